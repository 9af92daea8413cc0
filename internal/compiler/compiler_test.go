package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/llir/llvm/ir/constant"

	"farnese/internal/ast"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

func newCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func scratch(t *testing.T, c *Compiler) *module.Module {
	t.Helper()
	m, err := module.New(c.Session(), "Scratch", c.Core())
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	return m
}

func sym(name string) *ast.Symbol { return &ast.Symbol{Name: name} }

func call(name string, args ...ast.Node) *ast.MethodCall {
	return &ast.MethodCall{Name: name, Args: args}
}

func addFn(argType string, body ast.Node) *ast.Function {
	return &ast.Function{
		Name:       "add",
		Args:       []ast.FunctionArg{{Name: "a", ArgType: argType}, {Name: "b", ArgType: argType}},
		ReturnType: argType,
		Body:       []ast.Node{body},
	}
}

func TestAssignmentBindsFoldedConstant(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	expr := &ast.Assignment{Identifier: "x", Value: &ast.Binary{Op: ast.OpPlus, LHS: ast.Int64(2), RHS: ast.Int64(3)}}
	if err := c.CompileExpr(m, expr); err != nil {
		t.Fatalf("assignment: %v", err)
	}
	if c.StackDepth() != 0 {
		t.Fatalf("assignment must not push, depth %d", c.StackDepth())
	}
	if err := c.CompileExpr(m, sym("x")); err != nil {
		t.Fatalf("symbol: %v", err)
	}
	op, err := c.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	v, ok := op.Value.(*constant.Int)
	if !ok || v.X.Int64() != 5 || v.Typ.BitSize != 64 {
		t.Fatalf("x = %v, want i64 5", op.Value)
	}
	if op.Type.Name.Name() != "Int64" {
		t.Fatalf("x has type %s", op.Type.Name)
	}
}

func TestStackBalancePerNodeKind(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	cases := []struct {
		node  ast.Node
		delta int
	}{
		{ast.Int64(1), 1},
		{ast.Float32(1.25), 1},
		{ast.String("hi"), 1},
		{ast.Char('a'), 1},
		{&ast.Parens{Expr: ast.Int32(4)}, 1},
		{&ast.Binary{Op: ast.OpMinus, LHS: ast.Int16(9), RHS: ast.Int16(4)}, 1},
		{&ast.Assignment{Identifier: "y", Value: ast.Int64(7)}, 0},
		{sym("y"), 1},
		{sym("Float64"), 1},
		{&ast.AbstractType{Name: "Shape", Supertype: "Any"}, 0},
		{&ast.Exports{Symbols: []string{"Shape"}}, 0},
		{&ast.Empty{}, 0},
	}
	for _, tc := range cases {
		before := c.StackDepth()
		if err := c.CompileExpr(m, tc.node); err != nil {
			t.Fatalf("%s: %v", tc.node, err)
		}
		if got := c.StackDepth() - before; got != tc.delta {
			t.Fatalf("%s pushed %d values, want %d", tc.node, got, tc.delta)
		}
	}
}

func TestSymbolFallsBackToTypeTag(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	if err := c.CompileExpr(m, sym("Int64")); err != nil {
		t.Fatalf("type symbol: %v", err)
	}
	op, _ := c.Pop()
	if op.Type.Name.Name() != "DataType" {
		t.Fatalf("type value has type %s", op.Type.Name)
	}
	if err := c.CompileExpr(m, sym("nope")); !errors.Is(err, diag.ErrUndefinedSymbol) {
		t.Fatalf("expected undefined symbol, got %v", err)
	}
}

func TestFunctionsMangleByArgumentTypes(t *testing.T) {
	c := newCompiler(t)
	m, err := c.CompileModule("Arith", []ast.Node{
		addFn("Int64", &ast.Binary{Op: ast.OpPlus, LHS: sym("a"), RHS: sym("b")}),
		addFn("Float64", sym("a")),
	})
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	ints, err := m.GetFunction("add_Int64_Int64")
	if err != nil {
		t.Fatalf("add_Int64_Int64: %v", err)
	}
	floats, err := m.GetFunction("add_Float64_Float64")
	if err != nil {
		t.Fatalf("add_Float64_Float64: %v", err)
	}
	if ints == floats || len(ints.Blocks) == 0 || len(floats.Blocks) == 0 {
		t.Fatalf("expected two distinct definitions")
	}
	if _, err := m.GetFunction("add"); !errors.Is(err, diag.ErrUndefinedFunction) {
		t.Fatalf("unmangled add must not exist, got %v", err)
	}
	if _, ok := c.Lookup("a"); ok {
		t.Fatalf("parameter binding leaked out of the function")
	}
	if !strings.Contains(m.IR(), "add i64 %a, %b") {
		t.Fatalf("expected an add instruction:\n%s", m.IR())
	}
}

func TestCallDispatchesOnStaticTypes(t *testing.T) {
	c := newCompiler(t)
	m, err := c.CompileModule("Calls", []ast.Node{
		addFn("Int64", &ast.Binary{Op: ast.OpPlus, LHS: sym("a"), RHS: sym("b")}),
		&ast.Function{Name: "main", Body: []ast.Node{
			&ast.Assignment{Identifier: "r", Value: call("add", ast.Int64(2), ast.Int64(3))},
			call("printf", sym("r")),
		}},
	})
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	out := m.IR()
	for _, want := range []string{"@add_Int64_Int64(i64 2, i64 3)", `c"%lld\00"`, "ret i32 0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("IR lacks %q:\n%s", want, out)
		}
	}
}

func TestPrintfFloatUsesDecimalFormat(t *testing.T) {
	c := newCompiler(t)
	m, err := c.CompileModule("Print", []ast.Node{
		&ast.Function{Name: "main", Body: []ast.Node{
			&ast.Assignment{Identifier: "x", Value: ast.Float64(2.5)},
			call("printf", sym("x")),
		}},
	})
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	out := m.IR()
	if !strings.Contains(out, `c"%.8f\00"`) {
		t.Fatalf("float format missing:\n%s", out)
	}
	if strings.Contains(out, `c"%lld\00"`) || strings.Contains(out, `c"%s\00"`) {
		t.Fatalf("float printf used another format:\n%s", out)
	}
}

func TestPrintfFormatsByType(t *testing.T) {
	cases := []struct {
		arg    ast.Node
		format string
	}{
		{ast.Int32(1), `c"%lld\00"`},
		{ast.Float32(1.5), `c"%.8f\00"`},
		{ast.String("hi"), `c"%s\00"`},
		{ast.Char('z'), `c"%c\00"`},
		{sym("Int64"), `c"%s\00"`},
		{call("name", sym("Int64")), `c"%s\00"`},
	}
	for _, tc := range cases {
		c := newCompiler(t)
		m, err := c.CompileModule("Print", []ast.Node{
			&ast.Function{Name: "main", Body: []ast.Node{call("printf", tc.arg)}},
		})
		if err != nil {
			t.Fatalf("printf(%s): %v", tc.arg, err)
		}
		if !strings.Contains(m.IR(), tc.format) {
			t.Fatalf("printf(%s) lacks %s:\n%s", tc.arg, tc.format, m.IR())
		}
	}
}

func TestPrintfPromotesTrailingArgs(t *testing.T) {
	c := newCompiler(t)
	m, err := c.CompileModule("Print", []ast.Node{
		&ast.Function{Name: "main", Body: []ast.Node{
			call("printf", ast.String("%d %f\n"), ast.Int16(7), ast.Float32(1.5)),
		}},
	})
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	out := m.IR()
	for _, want := range []string{"i32 7", "fpext float"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printf IR lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "i16 7") {
		t.Fatalf("Int16 argument passed unpromoted:\n%s", out)
	}
}

func TestCompileErrors(t *testing.T) {
	main := func(body ...ast.Node) ast.Node {
		return &ast.Function{Name: "main", Body: body}
	}
	cases := []struct {
		name string
		node ast.Node
		want error
	}{
		{"multiply", &ast.Binary{Op: ast.OpMultiply, LHS: ast.Int64(1), RHS: ast.Int64(2)}, diag.ErrUnsupportedOperator},
		{"int plus float", &ast.Binary{Op: ast.OpPlus, LHS: ast.Int64(1), RHS: ast.Float64(2)}, diag.ErrTypeMismatch},
		{"width mismatch", &ast.Binary{Op: ast.OpPlus, LHS: ast.Int64(1), RHS: ast.Int32(2)}, diag.ErrTypeMismatch},
		{"unknown call", main(call("frobnicate", ast.Int64(1))), diag.ErrUndefinedFunction},
		{"call outside function", call("printf", ast.Int64(1)), diag.ErrUnsupportedConstruct},
		{"nested module", &ast.Module{Name: "Inner"}, diag.ErrUnsupportedConstruct},
		{"unmapped primitive", &ast.PrimitiveType{Name: "Int128", Supertype: "Signed", Bits: 128}, diag.ErrUnsupportedPrimitive},
		{"wrong bits", &ast.PrimitiveType{Name: "UInt16", Supertype: "Unsigned", Bits: 32}, diag.ErrTypeMismatch},
		{"duplicate type", &ast.AbstractType{Name: "Number", Supertype: "Any"}, diag.ErrDuplicateType},
		{"missing supertype", &ast.AbstractType{Name: "Shape", Supertype: "Figure"}, diag.ErrUndefinedType},
		{"concrete supertype", &ast.AbstractType{Name: "Big", Supertype: "Int64"}, diag.ErrTypeMismatch},
		{"unknown field type", &ast.StructType{Name: "P", Supertype: "Any", FieldNames: []string{"x"}, FieldTypes: []string{"Real64"}}, diag.ErrUndefinedType},
		{"unknown arg type", addFn("Int99", sym("a")), diag.ErrUndefinedType},
		{"return mismatch", &ast.Function{Name: "f", ReturnType: "Float64", Body: []ast.Node{ast.Int64(1)}}, diag.ErrTypeMismatch},
		{"string result", &ast.Function{Name: "f", Body: []ast.Node{ast.String("s")}}, diag.ErrTypeMismatch},
		{"empty body", &ast.Function{Name: "f", ReturnType: "Int64"}, diag.ErrTypeMismatch},
		{"undefined in body", main(sym("ghost")), diag.ErrUndefinedSymbol},
		{"main with args", &ast.Function{Name: "main", Args: []ast.FunctionArg{{Name: "argc", ArgType: "Int32"}}}, diag.ErrUnsupportedConstruct},
		{"main with return type", &ast.Function{Name: "main", ReturnType: "Int32"}, diag.ErrUnsupportedConstruct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newCompiler(t)
			err := c.CompileExpr(scratch(t, c), tc.node)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStructDeclaration(t *testing.T) {
	c := newCompiler(t)
	m, err := c.CompileModule("Geometry", []ast.Node{
		&ast.AbstractType{Name: "Shape", Supertype: "Any"},
		&ast.StructType{Name: "Node", Supertype: "Shape", FieldNames: []string{"value", "next"}, FieldTypes: []string{"Float64", "Node"}},
		&ast.PrimitiveType{Name: "UInt64", Supertype: "Unsigned", Bits: 64},
		&ast.Exports{Symbols: []string{"Shape", "Node"}},
	})
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	node, err := c.GetType("Geometry", "Node")
	if err != nil {
		t.Fatalf("GetType: %v", err)
	}
	if len(node.FieldNames) != 2 || node.FieldTypes[1].Name.Name() != "Node" {
		t.Fatalf("unexpected fields: %s", node.Describe())
	}
	out := m.IR()
	for _, want := range []string{"%Node = type { double, %Node* }", "@Node = global %DataType", "@UInt64 = global %DataType"} {
		if !strings.Contains(out, want) {
			t.Fatalf("IR lacks %q:\n%s", want, out)
		}
	}
}

func TestFailedModuleIsNotRegistered(t *testing.T) {
	c := newCompiler(t)
	_, err := c.CompileModule("Broken", []ast.Node{sym("ghost")})
	if !errors.Is(err, diag.ErrUndefinedSymbol) {
		t.Fatalf("expected undefined symbol, got %v", err)
	}
	if diag.CodeOf(err) != diag.SemaUndefinedSymbol {
		t.Fatalf("CodeOf = %v", diag.CodeOf(err))
	}
	if _, ok := c.GetModule("Broken"); ok {
		t.Fatalf("failed module was registered")
	}
	if c.StackDepth() != 0 {
		t.Fatalf("stack not restored: %d", c.StackDepth())
	}
}

func TestLinkMain(t *testing.T) {
	c := newCompiler(t)
	if _, err := c.CompileModule("A", []ast.Node{
		&ast.AbstractType{Name: "Shape", Supertype: "Any"},
		&ast.Exports{Symbols: []string{"Shape"}},
	}); err != nil {
		t.Fatalf("A: %v", err)
	}
	if _, err := c.CompileModule("B", []ast.Node{
		addFn("Int64", &ast.Binary{Op: ast.OpMinus, LHS: sym("a"), RHS: sym("b")}),
		&ast.Exports{Symbols: []string{"add"}},
	}); err != nil {
		t.Fatalf("B: %v", err)
	}
	main, err := c.LinkMain()
	if err != nil {
		t.Fatalf("LinkMain: %v", err)
	}
	if _, err := c.GetType("Core", "Int64"); err != nil {
		t.Fatalf("GetType: %v", err)
	}
	if _, err := main.GetFunction("add_Int64_Int64"); err != nil {
		t.Fatalf("B's function not visible in Main: %v", err)
	}
	if len(c.Modules()) != 3 {
		t.Fatalf("expected Core, A and B, got %d modules", len(c.Modules()))
	}

	if _, err := c.CompileModule("C", []ast.Node{
		&ast.AbstractType{Name: "Shape", Supertype: "Any"},
		&ast.Exports{Symbols: []string{"Shape"}},
	}); err != nil {
		t.Fatalf("C: %v", err)
	}
	if _, err := c.LinkMain(); !errors.Is(err, diag.ErrConflictingType) {
		t.Fatalf("expected conflicting Shape, got %v", err)
	}
}

func TestCompileModuleWritesIR(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{OutDir: dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.CompileModule("Demo", []ast.Node{&ast.Function{Name: "main"}}); err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	if _, err := c.LinkMain(); err != nil {
		t.Fatalf("LinkMain: %v", err)
	}
	for _, name := range []string{"Core.ll", "Demo.ll", "Main.ll"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || len(data) == 0 {
			t.Fatalf("%s not written: %v", name, err)
		}
	}
}

func TestIncludeRoutesModules(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	src, err := ast.Encode([]ast.Node{
		&ast.Module{Name: "Lib", Exprs: []ast.Node{&ast.AbstractType{Name: "Animal", Supertype: "Any"}}},
		&ast.AbstractType{Name: "Plant", Supertype: "Any"},
	}, ast.FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := c.Include(m, src, ast.DocumentParser{Format: ast.FormatJSON}); err != nil {
		t.Fatalf("Include: %v", err)
	}
	if _, err := c.GetType("Lib", "Animal"); err != nil {
		t.Fatalf("Lib.Animal: %v", err)
	}
	if !m.HasType(symbol.Intern("Plant")) {
		t.Fatalf("Plant not compiled into the including module")
	}
	if err := c.Include(m, src, nil); !errors.Is(err, &diag.Error{Code: diag.AstMissingParser}) {
		t.Fatalf("expected missing parser, got %v", err)
	}
}

func TestEvaluateWrapsSnippet(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	name, err := c.Evaluate(m, 0, []ast.Node{
		&ast.Assignment{Identifier: "k", Value: ast.Int64(42)},
		call("printf", sym("k")),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if name != "repl_0" {
		t.Fatalf("name = %s", name)
	}
	out := m.IR()
	if !strings.Contains(out, "define void @repl_0()") || !strings.Contains(out, "@fflush(i8* null)") {
		t.Fatalf("unexpected snippet IR:\n%s", out)
	}
	if _, ok := c.Lookup("k"); !ok {
		t.Fatalf("constant binding should survive the snippet")
	}
	if _, err := c.Evaluate(m, 1, []ast.Node{call("printf", sym("k"))}); err != nil {
		t.Fatalf("second snippet: %v", err)
	}
	if _, err := c.Evaluate(m, 1, nil); err == nil {
		t.Fatalf("redefining repl_1 must fail")
	}
}

func TestFailedFunctionIsRolledBack(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	f := func(body ast.Node) *ast.Function {
		return &ast.Function{
			Name:       "f",
			Args:       []ast.FunctionArg{{Name: "a", ArgType: "Int64"}},
			ReturnType: "Int64",
			Body:       []ast.Node{body},
		}
	}
	bad := f(&ast.Binary{Op: ast.OpPlus, LHS: sym("a"), RHS: ast.Float64(1)})
	if err := c.CompileExpr(m, bad); !errors.Is(err, diag.ErrTypeMismatch) {
		t.Fatalf("bad f: got %v", err)
	}
	if _, ok := m.Method(symbol.Intern("f_Int64")); ok {
		t.Fatalf("method f_Int64 left registered after failure")
	}
	if _, ok := m.Namespace().Function("f_Int64"); ok {
		t.Fatalf("function f_Int64 left in the namespace after failure")
	}
	good := f(&ast.Binary{Op: ast.OpPlus, LHS: sym("a"), RHS: ast.Int64(1)})
	if err := c.CompileExpr(m, good); err != nil {
		t.Fatalf("corrected f: %v", err)
	}
	if err := c.CompileExpr(m, &ast.Function{Name: "main", Body: []ast.Node{sym("ghost")}}); err == nil {
		t.Fatalf("main with an undefined symbol must fail")
	}
	if err := c.CompileExpr(m, &ast.Function{Name: "main", Body: []ast.Node{call("f", ast.Int64(2))}}); err != nil {
		t.Fatalf("corrected main: %v", err)
	}
	out := m.IR()
	if !strings.Contains(out, "define i64 @f_Int64(i64 %a)") || strings.Count(out, "define i32 @main()") != 1 {
		t.Fatalf("unexpected IR after recovery:\n%s", out)
	}
}

func TestFailedSnippetIsRolledBack(t *testing.T) {
	c := newCompiler(t)
	m := scratch(t, c)
	if _, err := c.Evaluate(m, 0, []ast.Node{
		&ast.Assignment{Identifier: "tmp", Value: ast.Int64(1)},
		sym("ghost"),
	}); !errors.Is(err, diag.ErrUndefinedSymbol) {
		t.Fatalf("bad snippet: got %v", err)
	}
	if _, ok := m.Namespace().Function("repl_0"); ok {
		t.Fatalf("repl_0 left in the namespace after failure")
	}
	if _, ok := c.Lookup("tmp"); ok {
		t.Fatalf("binding from a failed snippet survived")
	}
	if _, err := c.Evaluate(m, 0, []ast.Node{call("printf", ast.Int64(3))}); err != nil {
		t.Fatalf("retried snippet: %v", err)
	}
	if out := m.IR(); !strings.Contains(out, "define void @repl_0()") {
		t.Fatalf("retried snippet missing:\n%s", out)
	}
}

func TestBootstrapTwiceIsEquivalent(t *testing.T) {
	a := newCompiler(t).Core().Types()
	b := newCompiler(t).Core().Types()
	if len(a) != len(b) {
		t.Fatalf("type counts differ")
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Supertype != b[i].Supertype {
			t.Fatalf("type %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}
