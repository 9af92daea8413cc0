package core

import (
	"strings"
	"testing"

	"farnese/internal/backend"
	"farnese/internal/datatype"
	"farnese/internal/module"
	"farnese/internal/symbol"
)

func bootstrap(t *testing.T) *module.Module {
	t.Helper()
	m, err := Bootstrap(backend.NewSession())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	return m
}

func TestBootstrapLatticeTerminates(t *testing.T) {
	m := bootstrap(t)
	roots := map[string]bool{"Any": true, "DataType": true}
	for _, dt := range m.Types() {
		chain, err := datatype.Supertypes(dt, m.Lookup)
		if err != nil {
			t.Fatalf("Supertypes(%s): %v", dt.Name, err)
		}
		last := chain[len(chain)-1]
		if !last.IsRoot() || !roots[last.Name.Name()] {
			t.Fatalf("%s ends at %s", dt.Name, last.Name)
		}
	}
}

func TestBootstrapDeclaresHierarchy(t *testing.T) {
	m := bootstrap(t)
	cases := map[string]string{
		"Float32":        "AbstractFloat",
		"Float64":        "AbstractFloat",
		"Int32":          "Signed",
		"Int64":          "Signed",
		"String":         "AbstractString",
		"AbstractFloat":  "Real",
		"Signed":         "Integer",
		"Unsigned":       "Integer",
		"AbstractString": "Any",
		"Any":            "Any",
	}
	for name, super := range cases {
		dt, err := m.GetType(symbol.Intern(name))
		if err != nil {
			t.Fatalf("GetType(%s): %v", name, err)
		}
		if dt.Supertype.Name() != super {
			t.Fatalf("%s <: %s, want %s", name, dt.Supertype, super)
		}
	}
	str, _ := m.GetType(symbol.Intern("String"))
	if !str.IsPrimitive || str.Bits != 8 {
		t.Fatalf("String should be an 8-bit primitive: %+v", str)
	}
	dt, _ := m.GetType(symbol.Intern("DataType"))
	if _, _, ok := dt.Field(symbol.Intern("supertype")); !ok || !dt.IsRoot() {
		t.Fatalf("DataType must be a root with a supertype field")
	}
}

func TestBootstrapExportsEveryType(t *testing.T) {
	m := bootstrap(t)
	exported := map[symbol.Symbol]bool{}
	for _, e := range m.Exports() {
		exported[e] = true
	}
	for _, dt := range m.Types() {
		if !exported[dt.Name] {
			t.Fatalf("%s not exported", dt.Name)
		}
	}
	if !exported[symbol.Intern("name")] || !exported[symbol.Intern("supertype")] {
		t.Fatalf("reflection getters not exported")
	}
}

func TestBootstrapIsDeterministic(t *testing.T) {
	a := bootstrap(t).Types()
	b := bootstrap(t).Types()
	if len(a) != len(b) {
		t.Fatalf("type counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].String() != b[i].String() || a[i].Describe() != b[i].Describe() {
			t.Fatalf("type %d differs: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestBootstrapIR(t *testing.T) {
	out := bootstrap(t).IR()
	for _, want := range []string{
		"%Symbol = type { i8*, i64 }",
		"%DataType = type { %Symbol*, %DataType* }",
		"@Int64 = global %DataType { %Symbol* @__sym.Int64, %DataType* @Signed }",
		"@Any = global %DataType { %Symbol* @__sym.Any, %DataType* @Any }",
		"define %Symbol* @name_DataType(%DataType* %t)",
		"@fflush(",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("Core IR lacks %q:\n%s", want, out)
		}
	}
}

func TestLinkedModuleSeesCore(t *testing.T) {
	sess := backend.NewSession()
	core, err := Bootstrap(sess)
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	m, err := module.New(sess, "Main", core)
	if err != nil {
		t.Fatalf("module.New: %v", err)
	}
	if !m.HasType(symbol.Intern("Float64")) {
		t.Fatalf("Core types not linked")
	}
	if _, ok := m.Method(symbol.Intern("supertype_DataType")); !ok {
		t.Fatalf("reflection method not linked")
	}
	shape := datatype.NewAbstract("Shape", "Any")
	if err := m.InsertType(shape); err != nil {
		t.Fatalf("InsertType: %v", err)
	}
	if _, err := EmitTypeTag(m, shape); err != nil {
		t.Fatalf("EmitTypeTag: %v", err)
	}
	if !strings.Contains(m.IR(), "@Any = external global %DataType") {
		t.Fatalf("supertype tag should be an external declaration:\n%s", m.IR())
	}
}
