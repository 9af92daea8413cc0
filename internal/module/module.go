// Package module implements compilation units: a type table, an export
// list, a method table and a backend namespace.
package module

import (
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/diag"
	"farnese/internal/symbol"
)

// Method is one entry of a module's method table.
type Method struct {
	Name   symbol.Symbol // mangled, e.g. add_Int64_Int64
	Base   symbol.Symbol // source-level name, e.g. add
	Args   []datatype.DataType
	Result datatype.DataType
}

// Module is a named compilation unit.
type Module struct {
	name    symbol.Symbol
	sess    *backend.Session
	ns      backend.NamespaceID
	types   map[symbol.Symbol]datatype.DataType
	exports *symbol.Table
	methods map[symbol.Symbol]Method
}

// New creates a module with a fresh namespace and links deps into it in order.
func New(sess *backend.Session, name string, deps ...*Module) (*Module, error) {
	id, err := sess.NewNamespace(name)
	if err != nil {
		return nil, err
	}
	m := &Module{
		name:    symbol.Intern(name),
		sess:    sess,
		ns:      id,
		types:   make(map[symbol.Symbol]datatype.DataType),
		exports: symbol.NewTable(),
		methods: make(map[symbol.Symbol]Method),
	}
	for _, dep := range deps {
		if err := m.Link(dep); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Module) Name() symbol.Symbol { return m.name }

// Namespace returns the backend namespace of the module.
func (m *Module) Namespace() *backend.Namespace { return m.sess.Namespace(m.ns) }

// InsertType adds t to the type table; an existing name is a DuplicateType error.
func (m *Module) InsertType(t datatype.DataType) error {
	if _, ok := m.types[t.Name]; ok {
		return m.errorf(diag.SemaDuplicateType, t.Name.Name(), "type %s is already declared", t.Name)
	}
	m.types[t.Name] = t.Clone()
	return nil
}

// GetType returns a copy of the named type.
func (m *Module) GetType(name symbol.Symbol) (datatype.DataType, error) {
	t, ok := m.types[name]
	if !ok {
		return datatype.DataType{}, m.errorf(diag.SemaUndefinedType, name.Name(), "type %s is not declared", name)
	}
	return t.Clone(), nil
}

// HasType reports whether name is in the type table.
func (m *Module) HasType(name symbol.Symbol) bool {
	_, ok := m.types[name]
	return ok
}

// Lookup adapts the type table for datatype.Supertypes.
func (m *Module) Lookup(name symbol.Symbol) (datatype.DataType, bool) {
	t, ok := m.types[name]
	return t, ok
}

// Types returns copies of every type, sorted by name.
func (m *Module) Types() []datatype.DataType {
	out := make([]datatype.DataType, 0, len(m.types))
	for _, t := range m.types {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Less(out[j].Name) })
	return out
}

// TypeNames returns the declared type names, sorted.
func (m *Module) TypeNames() []string {
	out := make([]string, 0, len(m.types))
	for name := range m.types {
		out = append(out, name.Name())
	}
	sort.Strings(out)
	return out
}

// PushExport marks name as visible to modules that link this one.
func (m *Module) PushExport(name symbol.Symbol) {
	m.exports.Push(name.Name())
}

// Exports returns the export list in declaration order.
func (m *Module) Exports() []symbol.Symbol {
	return m.exports.Snapshot()
}

// IsExported reports whether name was pushed as an export.
func (m *Module) IsExported(name symbol.Symbol) bool {
	_, ok := m.exports.Lookup(name.Name())
	return ok
}

// AddMethod registers a method. Re-registering the same signature is a no-op.
func (m *Module) AddMethod(meth Method) error {
	if existing, ok := m.methods[meth.Name]; ok {
		if !sameSignature(existing, meth) {
			return m.errorf(diag.LinkConflictingType, meth.Name.Name(), "method %s is already defined with another signature", meth.Name)
		}
		return nil
	}
	m.methods[meth.Name] = meth
	return nil
}

// RemoveMethod drops a method entry; unknown names are ignored.
func (m *Module) RemoveMethod(mangled symbol.Symbol) {
	delete(m.methods, mangled)
}

// Method looks up a method by mangled name.
func (m *Module) Method(mangled symbol.Symbol) (Method, bool) {
	meth, ok := m.methods[mangled]
	return meth, ok
}

// Methods returns every method, sorted by mangled name.
func (m *Module) Methods() []Method {
	out := make([]Method, 0, len(m.methods))
	for _, meth := range m.methods {
		out = append(out, meth)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Less(out[j].Name) })
	return out
}

// AddFunction declares a function in the namespace.
func (m *Module) AddFunction(name string, ret types.Type, params ...*ir.Param) (*ir.Func, error) {
	f, err := m.Namespace().AddFunction(name, ret, params...)
	if err != nil {
		return nil, diag.Attribute(err, m.name.Name())
	}
	return f, nil
}

// RemoveFunction drops a function from the namespace.
func (m *Module) RemoveFunction(name string) { m.Namespace().RemoveFunction(name) }

// GetFunction looks up a function in the namespace.
func (m *Module) GetFunction(name string) (*ir.Func, error) {
	f, ok := m.Namespace().Function(name)
	if !ok {
		return nil, m.errorf(diag.SemaUndefinedFunction, name, "function %s is not declared", name)
	}
	return f, nil
}

// AddGlobal defines a global in the namespace.
func (m *Module) AddGlobal(name string, init constant.Constant) (*ir.Global, error) {
	g, err := m.Namespace().AddGlobal(name, init)
	if err != nil {
		return nil, diag.Attribute(err, m.name.Name())
	}
	return g, nil
}

// GetGlobal looks up a global in the namespace.
func (m *Module) GetGlobal(name string) (*ir.Global, error) {
	g, ok := m.Namespace().Global(name)
	if !ok {
		return nil, m.errorf(diag.SemaUndefinedSymbol, name, "global %s is not declared", name)
	}
	return g, nil
}

// StructType returns the backend layout registered for name.
func (m *Module) StructType(name string) (*types.StructType, error) {
	st, ok := m.Namespace().Struct(name)
	if !ok {
		return nil, m.errorf(diag.SemaUndefinedType, name, "no backend layout for %s", name)
	}
	return st, nil
}

// IR renders the module as textual IR.
func (m *Module) IR() string { return m.Namespace().String() }

// WriteIR writes <Name>.ll into dir.
func (m *Module) WriteIR(dir string) (string, error) {
	path, err := m.Namespace().WriteFile(dir)
	if err != nil {
		return "", diag.Attribute(err, m.name.Name())
	}
	return path, nil
}

func (m *Module) errorf(code diag.Code, subject, format string, args ...any) error {
	e := diag.Errorf(code, subject, format, args...)
	e.Module = m.name.Name()
	return e
}

func sameSignature(a, b Method) bool {
	if a.Base != b.Base || !a.Result.Equal(b.Result) || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equal(b.Args[i]) {
			return false
		}
	}
	return true
}
