package core

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

// getter describes one reflective accessor over %DataType.
type getter struct {
	base   string
	field  int64
	result symbol.Symbol
}

var getters = []getter{
	{base: "name", field: 0, result: symbolName},
	{base: "supertype", field: 1, result: dataTypeName},
}

// declareReflection emits name_DataType and supertype_DataType and exports
// them under their base names.
func declareReflection(m *module.Module) error {
	dtSt, err := m.StructType(dataTypeName.Name())
	if err != nil {
		return err
	}
	dtType, err := m.GetType(dataTypeName)
	if err != nil {
		return err
	}
	for _, g := range getters {
		fieldT := dtSt.Fields[g.field]
		mangled := g.base + "_" + dataTypeName.Name()
		fn, err := m.AddFunction(mangled, fieldT, ir.NewParam("t", types.NewPointer(dtSt)))
		if err != nil {
			return err
		}
		b := backend.NewBuilder(fn)
		ptr := b.StructGEP(dtSt, fn.Params[0], g.field)
		b.Ret(b.Load(fieldT, ptr))

		result, err := m.GetType(g.result)
		if err != nil {
			return err
		}
		err = m.AddMethod(module.Method{
			Name:   symbol.Intern(mangled),
			Base:   symbol.Intern(g.base),
			Args:   []datatype.DataType{dtType.Ref()},
			Result: result.Ref(),
		})
		if err != nil {
			return err
		}
		m.PushExport(symbol.Intern(g.base))
	}
	return nil
}
