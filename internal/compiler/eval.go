package compiler

import (
	"fmt"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/ast"
	"farnese/internal/backend"
	"farnese/internal/diag"
	"farnese/internal/module"
)

// Evaluate compiles one interactive snippet into mod as "void repl_<n>()",
// flushing stdout at the end, and returns the function name. Bindings to
// constants survive into later snippets; other bindings die with the
// function that computed them. A failed snippet leaves mod as it was.
func (c *Compiler) Evaluate(mod *module.Module, n int, nodes []ast.Node) (_ string, err error) {
	name := fmt.Sprintf("repl_%d", n)
	saved := c.scope.save()
	depth := c.stack.Len()
	defer c.stack.Truncate(depth)
	outer := c.builder
	defer func() { c.builder = outer }()

	prior, declared := mod.Namespace().Function(name)
	if declared && len(prior.Blocks) > 0 {
		return "", diag.Errorf(diag.LinkConflictingType, name, "%s is already defined", name).InModule(mod.Name().Name())
	}
	fn, err := mod.AddFunction(name, types.Void)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			c.scope.restore(saved)
			discardBody(mod, fn, declared)
		}
	}()
	c.builder = backend.NewBuilder(fn)
	for _, node := range nodes {
		if mn, ok := node.(*ast.Module); ok {
			if _, err := c.CompileModule(mn.Name, mn.Exprs); err != nil {
				return "", err
			}
			continue
		}
		if err := c.CompileExpr(mod, node); err != nil {
			return "", err
		}
		c.stack.Truncate(depth)
	}
	fflush, err := mod.GetFunction("fflush")
	if err != nil {
		return "", err
	}
	c.builder.Call(fflush, constant.NewNull(backend.BytePtr))
	c.builder.Ret(nil)
	c.scope.keepConstants(saved)
	return name, nil
}
