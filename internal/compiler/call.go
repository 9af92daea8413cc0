package compiler

import (
	"strings"

	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

// PrintIntrinsic is the reserved name of the formatted output routine.
const PrintIntrinsic = "printf"

// Mangle builds the dispatch name of base over argument types:
// add(Int64, Int64) becomes add_Int64_Int64. Without arguments it is base.
func Mangle(base string, args []datatype.DataType) string {
	if len(args) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	for _, a := range args {
		sb.WriteByte('_')
		sb.WriteString(a.Name.Name())
	}
	return sb.String()
}

func (c *Compiler) compileMethodCall(mod *module.Module, name string, argNodes []ast.Node) error {
	for _, a := range argNodes {
		if err := c.CompileExpr(mod, a); err != nil {
			return err
		}
	}
	args, err := c.stack.PopN(len(argNodes))
	if err != nil {
		return diag.Errorf(diag.SemaTypeMismatch, name, "an argument of %s produces no value", name)
	}
	b, err := c.insertPoint("call to " + name)
	if err != nil {
		return err
	}
	if name == PrintIntrinsic {
		return c.compilePrint(mod, b, args)
	}

	argTypes := make([]datatype.DataType, len(args))
	vals := make([]value.Value, len(args))
	for i, a := range args {
		argTypes[i] = a.Type
		vals[i] = a.Value
	}
	mangled := Mangle(name, argTypes)
	if meth, ok := mod.Method(symbol.Intern(mangled)); ok {
		fn, err := mod.GetFunction(mangled)
		if err != nil {
			return err
		}
		c.stack.Push(Operand{Value: b.Call(fn, vals...), Type: meth.Result})
		return nil
	}
	fn, err := mod.GetFunction(name)
	if err != nil {
		return diag.Errorf(diag.SemaUndefinedFunction, mangled, "no method %s for (%s)", name, typeList(argTypes)).InModule(mod.Name().Name())
	}
	call := b.Call(fn, vals...)
	if _, void := fn.Sig.RetType.(*types.VoidType); void {
		return nil
	}
	rt, ok := typeOfIR(mod, fn.Sig.RetType)
	if !ok {
		return diag.Errorf(diag.SemaTypeMismatch, name, "result type %s of %s has no logical type", fn.Sig.RetType, name)
	}
	c.stack.Push(Operand{Value: call, Type: rt})
	return nil
}

// compilePrint lowers printf. With one argument the format is chosen by the
// argument's type; with more the first argument is the format string.
func (c *Compiler) compilePrint(mod *module.Module, b *backend.Builder, args []Operand) error {
	printf, err := mod.GetFunction(PrintIntrinsic)
	if err != nil {
		return err
	}
	i32, err := mod.GetType(symbol.Intern("Int32"))
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return diag.Errorf(diag.SemaTypeMismatch, PrintIntrinsic, "printf needs an argument")
	}
	if len(args) > 1 {
		if !args[0].Type.IsString() {
			return diag.Errorf(diag.SemaTypeMismatch, PrintIntrinsic, "printf format must be a String, got %s", args[0].Type.Name)
		}
		vals := make([]value.Value, len(args))
		vals[0] = args[0].Value
		for i, a := range args[1:] {
			vals[i+1] = promoteVararg(b, a)
		}
		c.stack.Push(Operand{Value: b.Call(printf, vals...), Type: i32})
		return nil
	}
	format, v, err := c.printArg(mod, b, args[0])
	if err != nil {
		return err
	}
	call := b.Call(printf, mod.Namespace().CString(format), v)
	c.stack.Push(Operand{Value: call, Type: i32})
	return nil
}

// printArg picks the format for one operand and converts the value to the
// type printf expects for it.
func (c *Compiler) printArg(mod *module.Module, b *backend.Builder, arg Operand) (string, value.Value, error) {
	t := arg.Type
	switch t.Name.Name() {
	case "Char":
		return "%c", b.ZExt(arg.Value, types.I32), nil
	case "Symbol":
		s, err := symbolName(mod, b, arg.Value)
		return "%s", s, err
	case "DataType":
		symSt, err := mod.StructType("Symbol")
		if err != nil {
			return "", nil, err
		}
		dtSt, err := mod.StructType("DataType")
		if err != nil {
			return "", nil, err
		}
		sym := b.Load(types.NewPointer(symSt), b.StructGEP(dtSt, arg.Value, 0))
		s, err := symbolName(mod, b, sym)
		return "%s", s, err
	}
	if !t.IsPrimitive {
		return "", nil, diag.Errorf(diag.SemaTypeMismatch, t.Name.Name(), "cannot print a value of type %s", t.Name)
	}
	s, err := t.Scalar()
	if err != nil {
		return "", nil, err
	}
	switch s.Kind {
	case datatype.ScalarFloat:
		if s.Bits < 64 {
			return "%.8f", b.FPExt(arg.Value, types.Double), nil
		}
		return "%.8f", arg.Value, nil
	case datatype.ScalarInt:
		if s.Signed {
			if s.Bits < 64 {
				return "%lld", b.SExt(arg.Value, types.I64), nil
			}
			return "%lld", arg.Value, nil
		}
		if s.Bits < 64 {
			return "%llu", b.ZExt(arg.Value, types.I64), nil
		}
		return "%llu", arg.Value, nil
	case datatype.ScalarString:
		return "%s", arg.Value, nil
	}
	return "", nil, diag.Errorf(diag.SemaTypeMismatch, t.Name.Name(), "cannot print a value of type %s", t.Name)
}

// promoteVararg applies C's default argument promotions: floats narrower
// than double widen to double, integers narrower than int widen to i32.
func promoteVararg(b *backend.Builder, arg Operand) value.Value {
	s, err := arg.Type.Scalar()
	if err != nil {
		return arg.Value
	}
	switch {
	case s.Kind == datatype.ScalarFloat && s.Bits < 64:
		return b.FPExt(arg.Value, types.Double)
	case s.Kind == datatype.ScalarInt && s.Bits < 32 && s.Signed:
		return b.SExt(arg.Value, types.I32)
	case s.Kind == datatype.ScalarInt && s.Bits < 32:
		return b.ZExt(arg.Value, types.I32)
	}
	return arg.Value
}

// symbolName loads the C string out of a %Symbol*.
func symbolName(mod *module.Module, b *backend.Builder, sym value.Value) (value.Value, error) {
	symSt, err := mod.StructType("Symbol")
	if err != nil {
		return nil, err
	}
	return b.Load(backend.BytePtr, b.StructGEP(symSt, sym, 0)), nil
}

func typeList(ts []datatype.DataType) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name.Name()
	}
	return strings.Join(names, ", ")
}
