package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"farnese/internal/diag"
)

// Format is an AST interchange encoding.
type Format uint8

const (
	FormatMsgpack Format = iota + 1
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatMsgpack:
		return "msgpack"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// FormatFromPath picks the format by file extension: .json is JSON,
// .fast and .msgpack are msgpack.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".fast", ".msgpack":
		return FormatMsgpack, nil
	}
	return 0, diag.Errorf(diag.AstDecodeFailed, path, "cannot infer AST format of %s (want .fast, .msgpack or .json)", path)
}

// DocumentVersion is the interchange version written by Encode.
const DocumentVersion = 1

// document is the top-level interchange record.
type document struct {
	Version int        `msgpack:"version" json:"version"`
	Nodes   []wireNode `msgpack:"nodes" json:"nodes"`
}

// Decode parses an interchange document.
func Decode(data []byte, format Format) ([]Node, error) {
	var doc document
	var err error
	switch format {
	case FormatMsgpack:
		err = msgpack.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		return nil, diag.Errorf(diag.AstDecodeFailed, "", "unknown AST format %d", format)
	}
	if err != nil {
		return nil, diag.Wrap(diag.AstDecodeFailed, format.String(), err)
	}
	if doc.Version != DocumentVersion {
		return nil, diag.Errorf(diag.AstDecodeFailed, "", "unsupported AST document version %d", doc.Version)
	}
	nodes := make([]Node, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		n, err := doc.Nodes[i].node()
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Encode writes nodes as an interchange document.
func Encode(nodes []Node, format Format) ([]byte, error) {
	doc := document{Version: DocumentVersion, Nodes: make([]wireNode, 0, len(nodes))}
	for _, n := range nodes {
		w, err := toWire(n)
		if err != nil {
			return nil, err
		}
		doc.Nodes = append(doc.Nodes, w)
	}
	var buf bytes.Buffer
	switch format {
	case FormatMsgpack:
		if err := msgpack.NewEncoder(&buf).Encode(&doc); err != nil {
			return nil, err
		}
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(&doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown AST format %d", format)
	}
	return buf.Bytes(), nil
}

// Parser produces nodes from source text. The compiler only needs this
// contract; the grammar lives outside this repository.
type Parser interface {
	Parse(src []byte) ([]Node, error)
}

// DocumentParser is the Parser over pre-parsed interchange documents.
type DocumentParser struct {
	Format Format
}

func (p DocumentParser) Parse(src []byte) ([]Node, error) { return Decode(src, p.Format) }
