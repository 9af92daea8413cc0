// Package datatype describes the nominal types of the language: abstract
// nodes of the hierarchy, fixed-width primitives and composite structs.
package datatype

import (
	"fmt"
	"strings"

	"farnese/internal/symbol"
)

// DataType is a nominal type descriptor. Types are compared by name; a type
// whose Supertype equals its Name is the root of its hierarchy.
//
// FieldTypes holds shallow references (see Ref) so a struct may name its own
// type as a field type without building an infinite value.
type DataType struct {
	Name        symbol.Symbol
	Supertype   symbol.Symbol
	IsAbstract  bool
	IsMutable   bool
	IsPrimitive bool
	Bits        uint32 // primitives only
	FieldNames  []symbol.Symbol
	FieldTypes  []DataType
}

// New is the general constructor. It panics when the field slices differ in
// length, which is a programming error rather than bad input.
func New(name, supertype symbol.Symbol, isAbstract, isMutable, isPrimitive bool, fieldNames []symbol.Symbol, fieldTypes []DataType) DataType {
	if len(fieldNames) != len(fieldTypes) {
		panic(fmt.Sprintf("datatype %s: %d field names for %d field types", name, len(fieldNames), len(fieldTypes)))
	}
	dt := DataType{
		Name:        name,
		Supertype:   supertype,
		IsAbstract:  isAbstract,
		IsMutable:   isMutable,
		IsPrimitive: isPrimitive,
	}
	if len(fieldNames) > 0 {
		dt.FieldNames = append([]symbol.Symbol(nil), fieldNames...)
		dt.FieldTypes = make([]DataType, len(fieldTypes))
		for i, ft := range fieldTypes {
			dt.FieldTypes[i] = ft.Ref()
		}
	}
	return dt
}

// NewAbstract declares an abstract type.
func NewAbstract(name, supertype string) DataType {
	return New(symbol.Intern(name), symbol.Intern(supertype), true, false, false, nil, nil)
}

// NewPrimitive declares a fixed-width primitive.
func NewPrimitive(name, supertype string, bits uint32) DataType {
	dt := New(symbol.Intern(name), symbol.Intern(supertype), false, false, true, nil, nil)
	dt.Bits = bits
	return dt
}

// NewStruct declares a composite type.
func NewStruct(name, supertype string, mutable bool, fieldNames []symbol.Symbol, fieldTypes []DataType) DataType {
	return New(symbol.Intern(name), symbol.Intern(supertype), false, mutable, false, fieldNames, fieldTypes)
}

// IsRoot reports whether t is its own supertype.
func (t DataType) IsRoot() bool { return t.Name == t.Supertype }

// IsComposite reports whether t is a concrete struct.
func (t DataType) IsComposite() bool { return !t.IsAbstract && !t.IsPrimitive }

// Ref returns a copy of t without its field list.
func (t DataType) Ref() DataType {
	t.FieldNames = nil
	t.FieldTypes = nil
	return t
}

// Clone returns a deep copy of t's field slices.
func (t DataType) Clone() DataType {
	if t.FieldNames != nil {
		t.FieldNames = append([]symbol.Symbol(nil), t.FieldNames...)
		t.FieldTypes = append([]DataType(nil), t.FieldTypes...)
	}
	return t
}

// Equal compares nominally.
func (t DataType) Equal(other DataType) bool { return t.Name == other.Name }

// Field finds a field by name, returning its type and index.
func (t DataType) Field(name symbol.Symbol) (DataType, int, bool) {
	for i, fn := range t.FieldNames {
		if fn == name {
			return t.FieldTypes[i], i, true
		}
	}
	return DataType{}, -1, false
}

// String renders "Name <: Supertype".
func (t DataType) String() string {
	return fmt.Sprintf("%s <: %s", t.Name, t.Supertype)
}

// Describe renders every attribute of t over several lines.
func (t DataType) Describe() string {
	var sb strings.Builder
	sb.WriteString("DataType:\n")
	fmt.Fprintf(&sb, "  Name         = %s\n", t.Name)
	fmt.Fprintf(&sb, "  Supertype    = %s\n", t.Supertype)
	fmt.Fprintf(&sb, "  Is abstract? = %t\n", t.IsAbstract)
	fmt.Fprintf(&sb, "  Is mutable?  = %t\n", t.IsMutable)
	fmt.Fprintf(&sb, "  Is primitive = %t\n", t.IsPrimitive)
	if t.IsPrimitive {
		fmt.Fprintf(&sb, "  Bits         = %d\n", t.Bits)
	}
	fields := make([]string, len(t.FieldNames))
	for i, fn := range t.FieldNames {
		fields[i] = fn.Name() + "::" + t.FieldTypes[i].Name.Name()
	}
	fmt.Fprintf(&sb, "  Fields       = [%s]\n", strings.Join(fields, ", "))
	return sb.String()
}
