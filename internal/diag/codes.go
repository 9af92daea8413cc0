package diag

import "fmt"

// Code identifies a class of diagnostic.
type Code uint16

const (
	UnknownCode Code = 0

	// AST interchange
	AstInfo          Code = 2000
	AstDecodeFailed  Code = 2001
	AstUnknownNode   Code = 2002
	AstBadLiteral    Code = 2003
	AstMissingParser Code = 2004

	// Семантические
	SemaInfo                 Code = 3000
	SemaUndefinedSymbol      Code = 3001
	SemaUndefinedType        Code = 3002
	SemaDuplicateType        Code = 3003
	SemaUndefinedFunction    Code = 3004
	SemaTypeMismatch         Code = 3005
	SemaUnsupportedOperator  Code = 3006
	SemaUnsupportedConstruct Code = 3007

	// Линковка
	LinkInfo            Code = 4000
	LinkConflictingType Code = 4001

	// Backend
	BackendInfo                 Code = 5000
	BackendUnsupportedPrimitive Code = 5001

	IOLoadFileError  Code = 6001
	IOWriteFileError Code = 6002

	ProjInfo            Code = 7000
	ProjInvalidManifest Code = 7001
	ProjMissingInput    Code = 7002

	ObsInfo    Code = 8000
	ObsTimings Code = 8001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	AstInfo:                     "AST information",
	AstDecodeFailed:             "Cannot decode AST document",
	AstUnknownNode:              "Unknown AST node kind",
	AstBadLiteral:               "Malformed literal",
	AstMissingParser:            "No parser available for source input",
	SemaInfo:                    "Semantic information",
	SemaUndefinedSymbol:         "Undefined symbol",
	SemaUndefinedType:           "Undefined type",
	SemaDuplicateType:           "Duplicate type",
	SemaUndefinedFunction:       "Undefined function",
	SemaTypeMismatch:            "Type mismatch",
	SemaUnsupportedOperator:     "Unsupported operator",
	SemaUnsupportedConstruct:    "Unsupported construct",
	LinkInfo:                    "Link information",
	LinkConflictingType:         "Conflicting definition",
	BackendInfo:                 "Backend information",
	BackendUnsupportedPrimitive: "Primitive type has no backend mapping",
	IOLoadFileError:             "I/O load file error",
	IOWriteFileError:            "I/O write file error",
	ProjInfo:                    "Project information",
	ProjInvalidManifest:         "Invalid project manifest",
	ProjMissingInput:            "No input files",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Pipeline timings",
}

// ID returns the stable short identifier, e.g. "SEM3002".
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("AST%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("BCK%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
