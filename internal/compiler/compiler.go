// Package compiler turns AST nodes into IR through an operand stack and a
// lexical scope. A Compiler bootstraps Core on construction; every module it
// compiles links Core.
package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/core"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/symbol"
	"farnese/internal/trace"
)

// MainModule is the name of the module every compiled module is linked into.
const MainModule = "Main"

// Options configures a Compiler.
type Options struct {
	// OutDir receives <Module>.ll for Core and each compiled module; empty disables writing.
	OutDir string
	// SkipCoreIR leaves Core.ll out of OutDir.
	SkipCoreIR bool
	Tracer     trace.Tracer
	// ParentSpan parents the compiler's trace spans.
	ParentSpan uint64
}

// Compiler is single-threaded; one instance owns one backend session.
type Compiler struct {
	sess    *backend.Session
	core    *module.Module
	modules map[symbol.Symbol]*module.Module
	scope   *Scope
	stack   Stack
	builder *backend.Builder
	tracer  trace.Tracer
	span    uint64
	outDir  string
}

// New bootstraps Core in a fresh session.
func New(opts Options) (*Compiler, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &Compiler{
		sess:    backend.NewSession(),
		modules: make(map[symbol.Symbol]*module.Module),
		scope:   newScope(),
		tracer:  tracer,
		span:    opts.ParentSpan,
		outDir:  opts.OutDir,
	}
	span := trace.Begin(tracer, trace.ScopeModule, "bootstrap", c.span)
	coreMod, err := core.Bootstrap(c.sess)
	if err != nil {
		span.End("failed")
		return nil, err
	}
	c.core = coreMod
	c.modules[coreMod.Name()] = coreMod
	if c.outDir != "" && !opts.SkipCoreIR {
		if _, err := coreMod.WriteIR(c.outDir); err != nil {
			span.End("failed")
			return nil, err
		}
	}
	span.WithExtra("types", strconv.Itoa(len(coreMod.Types()))).End("")
	return c, nil
}

// Core returns the bootstrap module.
func (c *Compiler) Core() *module.Module { return c.core }

// Session returns the backend session shared by every module.
func (c *Compiler) Session() *backend.Session { return c.sess }

// GetModule returns a compiled module by name.
func (c *Compiler) GetModule(name string) (*module.Module, bool) {
	m, ok := c.modules[symbol.Intern(name)]
	return m, ok
}

// GetType resolves a type inside a compiled module.
func (c *Compiler) GetType(moduleName, typeName string) (datatype.DataType, error) {
	m, ok := c.GetModule(moduleName)
	if !ok {
		return datatype.DataType{}, diag.Errorf(diag.SemaUndefinedSymbol, moduleName, "module %s is not compiled", moduleName)
	}
	return m.GetType(symbol.Intern(typeName))
}

// Modules returns every registered module, sorted by name (Core included).
func (c *Compiler) Modules() []*module.Module {
	out := make([]*module.Module, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name().Less(out[j].Name()) })
	return out
}

// Lookup returns the operand bound to name in the current scope.
func (c *Compiler) Lookup(name string) (Operand, bool) { return c.scope.Lookup(name) }

// StackDepth returns the number of pending operands.
func (c *Compiler) StackDepth() int { return c.stack.Len() }

// Pop removes the top pending operand.
func (c *Compiler) Pop() (Operand, error) { return c.stack.Pop() }

// CompileModule compiles exprs into a new module called name that links
// Core, registers it and writes its IR when an output directory is set.
// A module that fails to compile is not registered.
func (c *Compiler) CompileModule(name string, exprs []ast.Node) (*module.Module, error) {
	sym := symbol.Intern(name)
	if _, exists := c.modules[sym]; exists || name == MainModule {
		return nil, diag.Errorf(diag.LinkConflictingType, name, "module %s is already defined", name)
	}
	span := trace.Begin(c.tracer, trace.ScopeModule, "module:"+name, c.span)
	m, err := c.compileModule(name, exprs, span.ID())
	if err != nil {
		span.End("failed")
		return nil, err
	}
	span.WithExtra("types", strconv.Itoa(len(m.Types()))).WithExtra("methods", strconv.Itoa(len(m.Methods()))).End("")
	return m, nil
}

func (c *Compiler) compileModule(name string, exprs []ast.Node, spanID uint64) (*module.Module, error) {
	m, err := module.New(c.sess, name, c.core)
	if err != nil {
		return nil, err
	}
	saved := c.scope.save()
	defer c.scope.restore(saved)
	depth := c.stack.Len()
	defer c.stack.Truncate(depth)

	parent := c.span
	c.span = spanID
	defer func() { c.span = parent }()

	for _, expr := range exprs {
		trace.Point(c.tracer, trace.ScopeNode, expr.Kind().String(), "", spanID)
		if err := c.CompileExpr(m, expr); err != nil {
			return nil, diag.Attribute(err, name)
		}
		c.stack.Truncate(depth)
	}
	c.modules[m.Name()] = m
	if c.outDir != "" {
		if _, err := m.WriteIR(c.outDir); err != nil {
			delete(c.modules, m.Name())
			return nil, err
		}
	}
	return m, nil
}

// Include parses src with parser. Module nodes become new modules; every
// other node is compiled into mod.
func (c *Compiler) Include(mod *module.Module, src []byte, parser ast.Parser) error {
	if parser == nil {
		return diag.Errorf(diag.AstMissingParser, mod.Name().Name(), "no parser for include into %s", mod.Name())
	}
	nodes, err := parser.Parse(src)
	if err != nil {
		return err
	}
	depth := c.stack.Len()
	defer c.stack.Truncate(depth)
	for _, n := range nodes {
		if mn, ok := n.(*ast.Module); ok {
			if _, err := c.CompileModule(mn.Name, mn.Exprs); err != nil {
				return err
			}
			continue
		}
		if err := c.CompileExpr(mod, n); err != nil {
			return diag.Attribute(err, mod.Name().Name())
		}
		c.stack.Truncate(depth)
	}
	return nil
}

// LinkMain builds the Main module: Core plus every compiled module, linked
// in name order. The result is not registered; link failures leave no Main.
func (c *Compiler) LinkMain() (*module.Module, error) {
	span := trace.Begin(c.tracer, trace.ScopeModule, "link:"+MainModule, c.span)
	main, err := module.New(c.sess, MainModule, c.core)
	if err != nil {
		span.End("failed")
		return nil, err
	}
	for _, m := range c.Modules() {
		if m == c.core {
			continue
		}
		if err := main.Link(m); err != nil {
			span.End("failed")
			return nil, fmt.Errorf("link %s into %s: %w", m.Name(), MainModule, err)
		}
		trace.Point(c.tracer, trace.ScopeFunction, "linked", m.Name().Name(), span.ID())
	}
	if c.outDir != "" {
		if _, err := main.WriteIR(c.outDir); err != nil {
			span.End("failed")
			return nil, err
		}
	}
	span.End("")
	return main, nil
}
