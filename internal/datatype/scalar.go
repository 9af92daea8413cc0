package datatype

import (
	"farnese/internal/diag"
	"farnese/internal/symbol"
)

// ScalarKind classifies the physical representation of a primitive.
type ScalarKind uint8

const (
	ScalarInvalid ScalarKind = iota
	ScalarInt
	ScalarFloat
	ScalarString // pointer to NUL-terminated bytes
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarInt:
		return "int"
	case ScalarFloat:
		return "float"
	case ScalarString:
		return "string"
	default:
		return "invalid"
	}
}

// Scalar is the physical shape of a primitive type.
type Scalar struct {
	Kind   ScalarKind
	Bits   uint32 // for strings, the element width
	Signed bool
}

var scalars = map[string]Scalar{
	"Bool":    {Kind: ScalarInt, Bits: 1},
	"Char":    {Kind: ScalarInt, Bits: 8},
	"Int8":    {Kind: ScalarInt, Bits: 8, Signed: true},
	"Int16":   {Kind: ScalarInt, Bits: 16, Signed: true},
	"Int32":   {Kind: ScalarInt, Bits: 32, Signed: true},
	"Int64":   {Kind: ScalarInt, Bits: 64, Signed: true},
	"UInt8":   {Kind: ScalarInt, Bits: 8},
	"UInt16":  {Kind: ScalarInt, Bits: 16},
	"UInt32":  {Kind: ScalarInt, Bits: 32},
	"UInt64":  {Kind: ScalarInt, Bits: 64},
	"Float16": {Kind: ScalarFloat, Bits: 16, Signed: true},
	"Float32": {Kind: ScalarFloat, Bits: 32, Signed: true},
	"Float64": {Kind: ScalarFloat, Bits: 64, Signed: true},
	"String":  {Kind: ScalarString, Bits: 8},
}

// ScalarOf maps a primitive type name to its physical shape.
func ScalarOf(name symbol.Symbol) (Scalar, error) {
	s, ok := scalars[name.Name()]
	if !ok {
		return Scalar{}, diag.Errorf(diag.BackendUnsupportedPrimitive, name.Name(),
			"primitive %s has no backend representation", name)
	}
	return s, nil
}

// Scalar returns the physical shape of t, which must be a primitive.
func (t DataType) Scalar() (Scalar, error) {
	if !t.IsPrimitive {
		return Scalar{}, diag.Errorf(diag.SemaTypeMismatch, t.Name.Name(), "%s is not a primitive type", t.Name)
	}
	return ScalarOf(t.Name)
}

// IsInteger reports whether t is a primitive integer (Bool and Char included).
func (t DataType) IsInteger() bool {
	s, err := t.Scalar()
	return err == nil && s.Kind == ScalarInt
}

// IsFloat reports whether t is a primitive float.
func (t DataType) IsFloat() bool {
	s, err := t.Scalar()
	return err == nil && s.Kind == ScalarFloat
}

// IsString reports whether t is the String primitive.
func (t DataType) IsString() bool {
	s, err := t.Scalar()
	return err == nil && s.Kind == ScalarString
}
