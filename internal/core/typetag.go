package core

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
)

// SymbolGlobal is the name of the global holding the Symbol of name.
func SymbolGlobal(name string) string { return "__sym." + name }

// EmitTypeTag defines the global that represents dt at run time:
//
//	@__sym.T = global %Symbol { i8* "T", i64 hash(T) }
//	@T = global %DataType { %Symbol* @__sym.T, %DataType* @Super }
//
// The supertype global may be a forward declaration. m must contain the
// Symbol and DataType layouts, either its own or linked from Core.
func EmitTypeTag(m *module.Module, dt datatype.DataType) (*ir.Global, error) {
	symSt, err := m.StructType(symbolName.Name())
	if err != nil {
		return nil, err
	}
	dtSt, err := m.StructType(dataTypeName.Name())
	if err != nil {
		return nil, err
	}
	ns := m.Namespace()
	name := dt.Name.Name()

	symInit := constant.NewStruct(symSt,
		ns.CString(name),
		// the i64 field stores the hash bit pattern
		constant.NewInt(types.I64, int64(dt.Name.Hash())), //nolint:gosec
	)
	symG, err := m.AddGlobal(SymbolGlobal(name), symInit)
	if err != nil {
		return nil, err
	}

	tag, err := ns.DeclareGlobal(name, dtSt)
	if err != nil {
		return nil, diag.Attribute(err, m.Name().Name())
	}
	if tag.Init != nil {
		return nil, diag.Errorf(diag.LinkConflictingType, name, "type tag %s is already defined", name).InModule(m.Name().Name())
	}
	super := tag
	if !dt.IsRoot() {
		super, err = ns.DeclareGlobal(dt.Supertype.Name(), dtSt)
		if err != nil {
			return nil, diag.Attribute(err, m.Name().Name())
		}
	}
	tag.Init = constant.NewStruct(dtSt, symG, super)
	return tag, nil
}

// TypeTag returns the global representing the type called name in m.
func TypeTag(m *module.Module, name string) (*ir.Global, error) {
	return m.GetGlobal(name)
}
