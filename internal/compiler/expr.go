package compiler

import (
	"math/big"

	"fortio.org/safecast"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

// CompileExpr compiles one node into mod, pushing its result (if any).
func (c *Compiler) CompileExpr(mod *module.Module, node ast.Node) error {
	switch n := node.(type) {
	case *ast.Primitive:
		return c.compilePrimitive(mod, n.Literal)
	case *ast.Symbol:
		return c.compileSymbol(mod, n.Name)
	case *ast.Assignment:
		return c.compileAssignment(mod, n)
	case *ast.Binary:
		return c.compileBinary(mod, n)
	case *ast.MethodCall:
		return c.compileMethodCall(mod, n.Name, n.Args)
	case *ast.AbstractType:
		return c.declareAbstract(mod, n)
	case *ast.PrimitiveType:
		return c.declarePrimitive(mod, n)
	case *ast.StructType:
		return c.declareStruct(mod, n)
	case *ast.Function:
		return c.CompileFunction(mod, n.Name, n.Args, n.ReturnType, n.Body)
	case *ast.Exports:
		for _, name := range n.Symbols {
			mod.PushExport(symbol.Intern(name))
		}
		return nil
	case *ast.Parens:
		return c.CompileExpr(mod, n.Expr)
	case *ast.Empty:
		return nil
	case *ast.Module:
		return diag.Errorf(diag.SemaUnsupportedConstruct, n.Name, "module %s must be declared at top level", n.Name)
	case nil:
		return diag.Errorf(diag.SemaUnsupportedConstruct, "", "missing node")
	}
	return diag.Errorf(diag.SemaUnsupportedConstruct, node.Kind().String(), "cannot compile %s", node.Kind())
}

func (c *Compiler) compilePrimitive(mod *module.Module, lit ast.Literal) error {
	dt, err := mod.GetType(symbol.Intern(lit.Kind.TypeName()))
	if err != nil {
		return err
	}
	scalar, err := dt.Scalar()
	if err != nil {
		return err
	}
	llt, err := backend.ScalarType(scalar)
	if err != nil {
		return diag.Wrap(diag.BackendUnsupportedPrimitive, dt.Name.Name(), err)
	}
	var v constant.Constant
	switch scalar.Kind {
	case datatype.ScalarString:
		v = mod.Namespace().CString(lit.Str)
	case datatype.ScalarFloat:
		x := lit.Float
		if scalar.Bits == 32 {
			x = float64(float32(x))
		}
		v = constant.NewFloat(llt.(*types.FloatType), x)
	case datatype.ScalarInt:
		x, err := intLiteral(lit, scalar)
		if err != nil {
			return err
		}
		v = &constant.Int{Typ: llt.(*types.IntType), X: x}
	default:
		return diag.Errorf(diag.AstBadLiteral, lit.String(), "literal %s has no scalar form", lit)
	}
	c.stack.Push(Operand{Value: v, Type: dt})
	return nil
}

// intLiteral range-checks lit against the width of s. Unsigned and Char
// values are stored in the two's-complement form of their width.
func intLiteral(lit ast.Literal, s datatype.Scalar) (*big.Int, error) {
	bad := func(err error) error {
		return diag.Wrap(diag.AstBadLiteral, lit.String(), err)
	}
	switch lit.Kind {
	case ast.LitChar:
		b, err := safecast.Conv[uint8](lit.Int)
		if err != nil {
			return nil, bad(err)
		}
		return big.NewInt(int64(int8(b))), nil
	case ast.LitInt16:
		if _, err := safecast.Conv[int16](lit.Int); err != nil {
			return nil, bad(err)
		}
	case ast.LitInt32:
		if _, err := safecast.Conv[int32](lit.Int); err != nil {
			return nil, bad(err)
		}
	case ast.LitInt64:
	case ast.LitUInt16:
		if _, err := safecast.Conv[uint16](lit.Uint); err != nil {
			return nil, bad(err)
		}
		return signedForm(lit.Uint, s.Bits), nil
	case ast.LitUInt32:
		if _, err := safecast.Conv[uint32](lit.Uint); err != nil {
			return nil, bad(err)
		}
		return signedForm(lit.Uint, s.Bits), nil
	case ast.LitUInt64:
		return signedForm(lit.Uint, s.Bits), nil
	default:
		return nil, diag.Errorf(diag.AstBadLiteral, lit.String(), "%s is not an integer literal", lit.Kind)
	}
	return big.NewInt(lit.Int), nil
}

func signedForm(u uint64, bits uint32) *big.Int {
	x := new(big.Int).SetUint64(u)
	half := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	if x.Cmp(half) >= 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(bits)))
	}
	return x
}

// compileSymbol resolves name in scope first; an unbound name that names a
// type in mod evaluates to that type's run-time tag.
func (c *Compiler) compileSymbol(mod *module.Module, name string) error {
	if op, ok := c.scope.Lookup(name); ok {
		c.stack.Push(op)
		return nil
	}
	sym := symbol.Intern(name)
	if mod.HasType(sym) {
		tag, err := mod.GetGlobal(name)
		if err != nil {
			return err
		}
		meta, err := mod.GetType(symbol.Intern("DataType"))
		if err != nil {
			return err
		}
		c.stack.Push(Operand{Value: tag, Type: meta})
		return nil
	}
	return diag.Errorf(diag.SemaUndefinedSymbol, name, "%s is not bound", name)
}

func (c *Compiler) compileAssignment(mod *module.Module, n *ast.Assignment) error {
	if err := c.CompileExpr(mod, n.Value); err != nil {
		return err
	}
	op, err := c.stack.Pop()
	if err != nil {
		return diag.Errorf(diag.SemaTypeMismatch, n.Identifier, "right-hand side of %s produces no value", n.Identifier)
	}
	c.scope.Bind(n.Identifier, op)
	return nil
}

func (c *Compiler) compileBinary(mod *module.Module, n *ast.Binary) error {
	if err := c.CompileExpr(mod, n.LHS); err != nil {
		return err
	}
	if err := c.CompileExpr(mod, n.RHS); err != nil {
		return err
	}
	rhs, err := c.stack.Pop()
	if err != nil {
		return err
	}
	lhs, err := c.stack.Pop()
	if err != nil {
		return err
	}
	if n.Op != ast.OpPlus && n.Op != ast.OpMinus {
		return diag.Errorf(diag.SemaUnsupportedOperator, n.Op.String(), "operator %s is not supported", n.Op)
	}
	if !lhs.Type.IsInteger() || !rhs.Type.IsInteger() {
		return diag.Errorf(diag.SemaTypeMismatch, n.Op.String(),
			"%s needs integer operands, got %s and %s", n.Op, lhs.Type.Name, rhs.Type.Name)
	}
	if !lhs.Type.Equal(rhs.Type) || backend.IntBits(lhs.Value.Type()) != backend.IntBits(rhs.Value.Type()) {
		return diag.Errorf(diag.SemaTypeMismatch, n.Op.String(),
			"operands of %s differ: %s and %s", n.Op, lhs.Type.Name, rhs.Type.Name)
	}

	fold := backend.FoldAdd
	if n.Op == ast.OpMinus {
		fold = backend.FoldSub
	}
	if v, ok := fold(lhs.Value, rhs.Value); ok {
		c.stack.Push(Operand{Value: v, Type: lhs.Type})
		return nil
	}
	b, err := c.insertPoint(n.Op.String())
	if err != nil {
		return err
	}
	if n.Op == ast.OpPlus {
		c.stack.Push(Operand{Value: b.Add(lhs.Value, rhs.Value), Type: lhs.Type})
	} else {
		c.stack.Push(Operand{Value: b.Sub(lhs.Value, rhs.Value), Type: lhs.Type})
	}
	return nil
}

// insertPoint returns the open builder, or UnsupportedConstruct outside a function body.
func (c *Compiler) insertPoint(what string) (*backend.Builder, error) {
	if c.builder == nil || c.builder.Terminated() {
		return nil, diag.Errorf(diag.SemaUnsupportedConstruct, what, "%s needs a function body", what)
	}
	return c.builder, nil
}
