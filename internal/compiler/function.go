package compiler

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
	"farnese/internal/trace"
)

// EntryPoint is the name compiled as the program entry.
const EntryPoint = "main"

// CompileFunction compiles a function definition into mod.
//
// main becomes "i32 main()" returning 0 and ignores leftover values; it
// takes no parameters and declares no return type. Any
// other function is declared under its mangled name with parameters typed
// by their declarations; the value left by the last body statement is
// returned and must be a number matching returnType (or, when returnType
// is empty, decides it). Bindings made inside the body are dropped afterwards.
//
// A function that fails to compile is removed from mod again, together with
// its method entry, so a corrected definition can take its place.
func (c *Compiler) CompileFunction(mod *module.Module, name string, args []ast.FunctionArg, returnType string, body []ast.Node) (err error) {
	saved := c.scope.save()
	defer c.scope.restore(saved)
	depth := c.stack.Len()
	defer c.stack.Truncate(depth)
	outer := c.builder
	defer func() { c.builder = outer }()

	if name == EntryPoint {
		if len(args) > 0 || returnType != "" {
			return diag.Errorf(diag.SemaUnsupportedConstruct, EntryPoint, "main takes no arguments and declares no return type").InModule(mod.Name().Name())
		}
		return c.compileEntry(mod, body)
	}

	argTypes := make([]datatype.DataType, len(args))
	params := make([]*ir.Param, len(args))
	for i, a := range args {
		dt, err := mod.GetType(symbol.Intern(a.ArgType))
		if err != nil {
			return err
		}
		llt, err := c.lowerType(mod, dt)
		if err != nil {
			return err
		}
		argTypes[i] = dt.Ref()
		params[i] = ir.NewParam(a.Name, llt)
	}
	mangled := Mangle(name, argTypes)
	span := trace.Begin(c.tracer, trace.ScopeFunction, "fn:"+mangled, c.span)
	defer span.End("")

	var declared *datatype.DataType
	retLL := types.Type(types.Void)
	if returnType != "" {
		rt, err := mod.GetType(symbol.Intern(returnType))
		if err != nil {
			return err
		}
		if retLL, err = c.lowerType(mod, rt); err != nil {
			return err
		}
		declared = &rt
	}
	if _, exists := mod.Namespace().Function(mangled); exists {
		return diag.Errorf(diag.LinkConflictingType, mangled, "function %s is already defined", mangled).InModule(mod.Name().Name())
	}
	fn, err := mod.AddFunction(mangled, retLL, params...)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			mod.RemoveMethod(symbol.Intern(mangled))
			mod.RemoveFunction(fn.Name())
		}
	}()
	meth := module.Method{Name: symbol.Intern(mangled), Base: symbol.Intern(name), Args: argTypes}
	if declared != nil {
		// registered before the body so recursive calls resolve
		meth.Result = declared.Ref()
		if err := mod.AddMethod(meth); err != nil {
			return err
		}
	}

	for i, a := range args {
		c.scope.Bind(a.Name, Operand{Value: fn.Params[i], Type: argTypes[i]})
	}
	c.builder = backend.NewBuilder(fn)
	result, err := c.compileBody(mod, mangled, body, depth)
	if err != nil {
		return err
	}
	if !result.Type.IsInteger() && !result.Type.IsFloat() {
		return diag.Errorf(diag.SemaTypeMismatch, mangled, "%s returns %s, which is not a number", mangled, result.Type.Name)
	}
	if declared != nil && !declared.Equal(result.Type) {
		return diag.Errorf(diag.SemaTypeMismatch, mangled, "%s is declared to return %s but returns %s",
			mangled, declared.Name, result.Type.Name)
	}
	if declared == nil {
		fn.Sig.RetType = result.Value.Type()
		meth.Result = result.Type.Ref()
		if err := mod.AddMethod(meth); err != nil {
			return err
		}
	}
	c.builder.Ret(result.Value)
	return nil
}

// compileBody compiles statements and pops the final value; values left by
// earlier statements are discarded.
func (c *Compiler) compileBody(mod *module.Module, fnName string, body []ast.Node, depth int) (Operand, error) {
	for i, stmt := range body {
		if err := c.CompileExpr(mod, stmt); err != nil {
			return Operand{}, err
		}
		if i < len(body)-1 {
			c.stack.Truncate(depth)
		}
	}
	if c.stack.Len() <= depth {
		return Operand{}, diag.Errorf(diag.SemaTypeMismatch, fnName, "%s produces no return value", fnName)
	}
	return c.stack.Pop()
}

func (c *Compiler) compileEntry(mod *module.Module, body []ast.Node) (err error) {
	prior, exists := mod.Namespace().Function(EntryPoint)
	if exists && len(prior.Blocks) > 0 {
		return diag.Errorf(diag.LinkConflictingType, EntryPoint, "main is already defined").InModule(mod.Name().Name())
	}
	span := trace.Begin(c.tracer, trace.ScopeFunction, "fn:"+EntryPoint, c.span)
	defer span.End("")
	fn, err := mod.AddFunction(EntryPoint, types.I32)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			discardBody(mod, fn, exists)
		}
	}()
	depth := c.stack.Len()
	c.builder = backend.NewBuilder(fn)
	for _, stmt := range body {
		if err := c.CompileExpr(mod, stmt); err != nil {
			return err
		}
		c.stack.Truncate(depth)
	}
	c.builder.Ret(constant.NewInt(types.I32, 0))
	return nil
}

// discardBody undoes a failed definition of fn. A declaration that existed
// before the definition started survives as a bare declaration.
func discardBody(mod *module.Module, fn *ir.Func, declared bool) {
	if declared {
		fn.Blocks = nil
		return
	}
	mod.RemoveFunction(fn.Name())
}
