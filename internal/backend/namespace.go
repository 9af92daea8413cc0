package backend

import (
	"os"
	"path/filepath"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/diag"
	"farnese/internal/symbol"
)

// Namespace is one IR module plus name indexes over its contents.
type Namespace struct {
	name     string
	m        *ir.Module
	funcs    map[string]*ir.Func
	globals  map[string]*ir.Global
	structs  map[string]*types.StructType
	cstrings map[string]*ir.Global
	strNames *symbol.Generator
}

func newNamespace(name string) *Namespace {
	m := ir.NewModule()
	m.SourceFilename = name
	ns := &Namespace{
		name:     name,
		m:        m,
		funcs:    make(map[string]*ir.Func),
		globals:  make(map[string]*ir.Global),
		structs:  make(map[string]*types.StructType),
		cstrings: make(map[string]*ir.Global),
		strNames: symbol.NewGenerator(".str."),
	}
	printf := ns.declare("printf", types.I32, ir.NewParam("", BytePtr))
	printf.Sig.Variadic = true
	return ns
}

// Name returns the namespace name.
func (ns *Namespace) Name() string { return ns.name }

// Module exposes the underlying IR module.
func (ns *Namespace) Module() *ir.Module { return ns.m }

func (ns *Namespace) declare(name string, ret types.Type, params ...*ir.Param) *ir.Func {
	f := ns.m.NewFunc(name, ret, params...)
	ns.funcs[name] = f
	return f
}

// AddFunction declares a function. A second declaration with the same
// signature returns the existing one; a different signature is a conflict.
func (ns *Namespace) AddFunction(name string, ret types.Type, params ...*ir.Param) (*ir.Func, error) {
	if existing, ok := ns.funcs[name]; ok {
		want := types.NewFunc(ret, paramTypes(params)...)
		if !types.Equal(existing.Sig, want) || len(existing.Blocks) > 0 {
			return nil, diag.Errorf(diag.LinkConflictingType, name,
				"function %s already defined as %s", name, existing.Sig.LLString())
		}
		return existing, nil
	}
	return ns.declare(name, ret, params...), nil
}

// RemoveFunction drops a function and its body from the namespace.
func (ns *Namespace) RemoveFunction(name string) {
	f, ok := ns.funcs[name]
	if !ok {
		return
	}
	delete(ns.funcs, name)
	for i, g := range ns.m.Funcs {
		if g == f {
			ns.m.Funcs = append(ns.m.Funcs[:i], ns.m.Funcs[i+1:]...)
			break
		}
	}
}

// Function looks up a function by name.
func (ns *Namespace) Function(name string) (*ir.Func, bool) {
	f, ok := ns.funcs[name]
	return f, ok
}

// AddGlobal defines a global initialised with init.
func (ns *Namespace) AddGlobal(name string, init constant.Constant) (*ir.Global, error) {
	if _, ok := ns.globals[name]; ok {
		return nil, diag.Errorf(diag.LinkConflictingType, name, "global %s already defined", name)
	}
	g := ns.m.NewGlobalDef(name, init)
	ns.globals[name] = g
	return g, nil
}

// DeclareGlobal declares an external global of type content, or returns the existing one.
func (ns *Namespace) DeclareGlobal(name string, content types.Type) (*ir.Global, error) {
	if g, ok := ns.globals[name]; ok {
		if !types.Equal(g.ContentType, content) {
			return nil, diag.Errorf(diag.LinkConflictingType, name, "global %s has type %s", name, g.ContentType)
		}
		return g, nil
	}
	g := ns.m.NewGlobal(name, content)
	ns.globals[name] = g
	return g, nil
}

// Global looks up a global by name.
func (ns *Namespace) Global(name string) (*ir.Global, bool) {
	g, ok := ns.globals[name]
	return g, ok
}

// AddStruct registers a named struct layout. fields may be filled in later
// through the returned type, which self-referential layouts need.
func (ns *Namespace) AddStruct(name string, fields ...types.Type) (*types.StructType, error) {
	if _, ok := ns.structs[name]; ok {
		return nil, diag.Errorf(diag.LinkConflictingType, name, "struct layout %s already defined", name)
	}
	st := types.NewStruct(fields...)
	ns.m.NewTypeDef(name, st)
	ns.structs[name] = st
	return st, nil
}

// Struct looks up a named struct layout.
func (ns *Namespace) Struct(name string) (*types.StructType, bool) {
	st, ok := ns.structs[name]
	return st, ok
}

// CString returns an i8* constant pointing at a private NUL-terminated copy
// of s. Identical strings share one global.
func (ns *Namespace) CString(s string) constant.Constant {
	g, ok := ns.cstrings[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = ns.m.NewGlobalDef(ns.strNames.Next().Name(), data)
		g.Linkage = enum.LinkagePrivate
		g.Immutable = true
		ns.cstrings[s] = g
	}
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}

// String renders the namespace as textual IR.
func (ns *Namespace) String() string { return ns.m.String() }

// WriteFile writes the textual IR to dir/<name>.ll and returns the path.
func (ns *Namespace) WriteFile(dir string) (string, error) {
	path := filepath.Join(dir, ns.name+".ll")
	if err := os.WriteFile(path, []byte(ns.m.String()), 0o600); err != nil {
		return "", diag.Wrap(diag.IOWriteFileError, path, err)
	}
	return path, nil
}

func paramTypes(params []*ir.Param) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = p.Typ
	}
	return out
}
