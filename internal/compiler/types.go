package compiler

import (
	"github.com/llir/llvm/ir/types"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/core"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

// checkSupertype requires super to be declared and abstract unless the
// type is its own root. Since a type can only name existing supertypes,
// hierarchies stay acyclic.
func checkSupertype(mod *module.Module, name, super string) error {
	if name == super {
		return nil
	}
	st, err := mod.GetType(symbol.Intern(super))
	if err != nil {
		return err
	}
	if !st.IsAbstract {
		return diag.Errorf(diag.SemaTypeMismatch, super, "supertype %s of %s is not abstract", super, name)
	}
	return nil
}

func (c *Compiler) declareAbstract(mod *module.Module, n *ast.AbstractType) error {
	if err := checkSupertype(mod, n.Name, n.Supertype); err != nil {
		return err
	}
	return c.insertType(mod, datatype.NewAbstract(n.Name, n.Supertype))
}

func (c *Compiler) declarePrimitive(mod *module.Module, n *ast.PrimitiveType) error {
	if err := checkSupertype(mod, n.Name, n.Supertype); err != nil {
		return err
	}
	dt := datatype.NewPrimitive(n.Name, n.Supertype, n.Bits)
	scalar, err := dt.Scalar()
	if err != nil {
		return err
	}
	if scalar.Bits != n.Bits {
		return diag.Errorf(diag.SemaTypeMismatch, n.Name, "primitive %s is %d bits, declared %d", n.Name, scalar.Bits, n.Bits)
	}
	return c.insertType(mod, dt)
}

func (c *Compiler) declareStruct(mod *module.Module, n *ast.StructType) error {
	if err := checkSupertype(mod, n.Name, n.Supertype); err != nil {
		return err
	}
	if len(n.FieldNames) != len(n.FieldTypes) {
		return diag.Errorf(diag.SemaTypeMismatch, n.Name, "struct %s has %d field names and %d field types",
			n.Name, len(n.FieldNames), len(n.FieldTypes))
	}
	self := datatype.NewStruct(n.Name, n.Supertype, n.Mutable, nil, nil)
	fieldTypes := make([]datatype.DataType, len(n.FieldTypes))
	for i, ft := range n.FieldTypes {
		if ft == n.Name {
			fieldTypes[i] = self
			continue
		}
		t, err := mod.GetType(symbol.Intern(ft))
		if err != nil {
			return err
		}
		fieldTypes[i] = t
	}
	dt := datatype.NewStruct(n.Name, n.Supertype, n.Mutable, symbol.Names(n.FieldNames...), fieldTypes)
	if mod.HasType(dt.Name) {
		return diag.Errorf(diag.SemaDuplicateType, n.Name, "type %s is already declared", n.Name)
	}

	st, err := mod.Namespace().AddStruct(n.Name)
	if err != nil {
		return diag.Attribute(err, mod.Name().Name())
	}
	for _, ft := range fieldTypes {
		llt, err := c.lowerType(mod, ft)
		if err != nil {
			return err
		}
		st.Fields = append(st.Fields, llt)
	}
	return c.insertType(mod, dt)
}

// insertType adds dt to mod and emits its type tag.
func (c *Compiler) insertType(mod *module.Module, dt datatype.DataType) error {
	if err := mod.InsertType(dt); err != nil {
		return err
	}
	_, err := core.EmitTypeTag(mod, dt)
	return err
}

// lowerType maps a logical type to the IR type its values have: primitives
// become scalars, structs become pointers to their layout and every other
// type is represented by its %DataType tag.
func (c *Compiler) lowerType(mod *module.Module, dt datatype.DataType) (types.Type, error) {
	if dt.IsPrimitive {
		s, err := dt.Scalar()
		if err != nil {
			return nil, err
		}
		return backend.ScalarType(s)
	}
	if dt.IsComposite() {
		st, err := mod.StructType(dt.Name.Name())
		if err != nil {
			return nil, err
		}
		return types.NewPointer(st), nil
	}
	st, err := mod.StructType("DataType")
	if err != nil {
		return nil, err
	}
	return types.NewPointer(st), nil
}

// typeOfIR recovers a logical type for an IR type, for calls into functions
// that have no method table entry.
func typeOfIR(mod *module.Module, t types.Type) (datatype.DataType, bool) {
	var name string
	switch t := t.(type) {
	case *types.IntType:
		switch t.BitSize {
		case 1:
			name = "Bool"
		case 8:
			name = "Char"
		case 16:
			name = "Int16"
		case 32:
			name = "Int32"
		case 64:
			name = "Int64"
		}
	case *types.FloatType:
		switch t.Kind {
		case types.FloatKindHalf:
			name = "Float16"
		case types.FloatKindFloat:
			name = "Float32"
		case types.FloatKindDouble:
			name = "Float64"
		}
	case *types.PointerType:
		switch elem := t.ElemType.(type) {
		case *types.IntType:
			if elem.BitSize == 8 {
				name = "String"
			}
		case *types.StructType:
			name = elem.Name()
		}
	}
	if name == "" {
		return datatype.DataType{}, false
	}
	dt, err := mod.GetType(symbol.Intern(name))
	return dt, err == nil
}
