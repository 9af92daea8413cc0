package ast

import (
	"fmt"
	"strconv"
)

// LiteralKind names the scalar kind of a literal; the spelling matches the
// Core type the literal is typed with.
type LiteralKind uint8

const (
	LitChar LiteralKind = iota + 1
	LitFloat32
	LitFloat64
	LitInt16
	LitInt32
	LitInt64
	LitString
	LitUInt16
	LitUInt32
	LitUInt64
)

var literalNames = map[LiteralKind]string{
	LitChar:    "Char",
	LitFloat32: "Float32",
	LitFloat64: "Float64",
	LitInt16:   "Int16",
	LitInt32:   "Int32",
	LitInt64:   "Int64",
	LitString:  "String",
	LitUInt16:  "UInt16",
	LitUInt32:  "UInt32",
	LitUInt64:  "UInt64",
}

// TypeName is the name of the DataType literals of kind k have.
func (k LiteralKind) TypeName() string { return literalNames[k] }

func (k LiteralKind) String() string {
	if n, ok := literalNames[k]; ok {
		return n
	}
	return fmt.Sprintf("LiteralKind(%d)", k)
}

// ParseLiteralKind maps a type name back to a kind.
func ParseLiteralKind(s string) (LiteralKind, error) {
	for k, n := range literalNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown literal kind %q", s)
}

// Literal holds one constant. Only the field matching Kind is meaningful:
// Int for signed kinds and Char, Uint for unsigned kinds, Float for floats,
// Str for strings.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Uint  uint64
	Float float64
	Str   string
}

func Char(r rune) *Primitive        { return &Primitive{Literal{Kind: LitChar, Int: int64(r)}} }
func Float32(v float32) *Primitive  { return &Primitive{Literal{Kind: LitFloat32, Float: float64(v)}} }
func Float64(v float64) *Primitive  { return &Primitive{Literal{Kind: LitFloat64, Float: v}} }
func Int16(v int16) *Primitive      { return &Primitive{Literal{Kind: LitInt16, Int: int64(v)}} }
func Int32(v int32) *Primitive      { return &Primitive{Literal{Kind: LitInt32, Int: int64(v)}} }
func Int64(v int64) *Primitive      { return &Primitive{Literal{Kind: LitInt64, Int: v}} }
func String(s string) *Primitive    { return &Primitive{Literal{Kind: LitString, Str: s}} }
func UInt16(v uint16) *Primitive    { return &Primitive{Literal{Kind: LitUInt16, Uint: uint64(v)}} }
func UInt32(v uint32) *Primitive    { return &Primitive{Literal{Kind: LitUInt32, Uint: uint64(v)}} }
func UInt64(v uint64) *Primitive    { return &Primitive{Literal{Kind: LitUInt64, Uint: v}} }

func (l Literal) String() string {
	switch l.Kind {
	case LitChar:
		return strconv.QuoteRune(rune(l.Int))
	case LitFloat32:
		return strconv.FormatFloat(l.Float, 'g', -1, 32) + "f32"
	case LitFloat64:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case LitInt16, LitInt32, LitInt64:
		return strconv.FormatInt(l.Int, 10) + suffix(l.Kind)
	case LitUInt16, LitUInt32, LitUInt64:
		return strconv.FormatUint(l.Uint, 10) + suffix(l.Kind)
	case LitString:
		return strconv.Quote(l.Str)
	}
	return "<invalid literal>"
}

func suffix(k LiteralKind) string {
	switch k {
	case LitInt16:
		return "i16"
	case LitInt32:
		return "i32"
	case LitUInt16:
		return "u16"
	case LitUInt32:
		return "u32"
	case LitUInt64:
		return "u64"
	}
	return ""
}
