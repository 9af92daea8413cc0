// Package core builds the "Core" module every user module links against:
// the reflective Symbol/DataType kernel, the abstract number and string
// hierarchy, and the concrete primitives.
package core

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

// Name is the name of the bootstrap module.
const Name = "Core"

var (
	symbolName   = symbol.Intern("Symbol")
	dataTypeName = symbol.Intern("DataType")
)

// Hierarchy lists every type Core declares, supertypes before subtypes
// except for the reflective kernel at the end.
func Hierarchy() []datatype.DataType {
	str := datatype.NewPrimitive("String", "AbstractString", 8)
	i64 := datatype.NewPrimitive("Int64", "Signed", 64)
	sym := datatype.NewStruct("Symbol", "Any", false, symbol.Names("name", "hash"), []datatype.DataType{str, i64})
	dt := datatype.NewStruct("DataType", "DataType", false, symbol.Names("name", "supertype"),
		[]datatype.DataType{sym, datatype.NewAbstract("DataType", "DataType")})
	return []datatype.DataType{
		datatype.NewAbstract("Any", "Any"),
		datatype.NewAbstract("Number", "Any"),
		datatype.NewAbstract("Real", "Number"),
		datatype.NewAbstract("AbstractFloat", "Real"),
		datatype.NewAbstract("Integer", "Real"),
		datatype.NewAbstract("Signed", "Integer"),
		datatype.NewAbstract("Unsigned", "Integer"),
		datatype.NewAbstract("AbstractString", "Any"),
		datatype.NewAbstract("AbstractChar", "Any"),
		datatype.NewPrimitive("Float32", "AbstractFloat", 32),
		datatype.NewPrimitive("Float64", "AbstractFloat", 64),
		datatype.NewPrimitive("Int16", "Signed", 16),
		datatype.NewPrimitive("Int32", "Signed", 32),
		i64,
		str,
		datatype.NewPrimitive("Char", "AbstractChar", 8),
		sym,
		dt,
	}
}

// Bootstrap creates a fresh Core module in sess.
func Bootstrap(sess *backend.Session) (*module.Module, error) {
	m, err := module.New(sess, Name)
	if err != nil {
		return nil, err
	}
	ns := m.Namespace()
	if _, err := ns.AddFunction("fflush", types.I32, ir.NewParam("stream", backend.BytePtr)); err != nil {
		return nil, fmt.Errorf("core: declare fflush: %w", err)
	}
	if err := declareKernel(ns); err != nil {
		return nil, fmt.Errorf("core: kernel layouts: %w", err)
	}
	for _, dt := range Hierarchy() {
		if err := m.InsertType(dt); err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
		if _, err := EmitTypeTag(m, dt); err != nil {
			return nil, fmt.Errorf("core: type tag %s: %w", dt.Name, err)
		}
		m.PushExport(dt.Name)
	}
	if err := declareReflection(m); err != nil {
		return nil, fmt.Errorf("core: reflection: %w", err)
	}
	return m, nil
}

// %Symbol = type { i8*, i64 }
// %DataType = type { %Symbol*, %DataType* }
func declareKernel(ns *backend.Namespace) error {
	sym, err := ns.AddStruct(symbolName.Name(), backend.BytePtr, types.I64)
	if err != nil {
		return err
	}
	dt, err := ns.AddStruct(dataTypeName.Name())
	if err != nil {
		return err
	}
	dt.Fields = []types.Type{types.NewPointer(sym), types.NewPointer(dt)}
	return nil
}
