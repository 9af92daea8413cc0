package symbol

import "testing"

func TestInternIsPure(t *testing.T) {
	a := Intern("Int64")
	b := Intern("Int64")
	if a != b || !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatalf("interning Int64 twice gave %v/%d and %v/%d", a, a.Hash(), b, b.Hash())
	}
	if a.Equal(Intern("Int32")) {
		t.Fatalf("distinct names compare equal")
	}
}

func TestInternNormalizes(t *testing.T) {
	composed := Intern("caf\u00e9")
	decomposed := Intern("cafe\u0301")
	if composed != decomposed {
		t.Fatalf("NFC-equivalent names differ: %q vs %q", composed.Name(), decomposed.Name())
	}
}

func TestSymbolAsMapKey(t *testing.T) {
	m := map[Symbol]int{Intern("x"): 1}
	if m[Intern("x")] != 1 {
		t.Fatalf("symbol lookup by fresh intern failed")
	}
	if (Symbol{}).IsZero() != true || Intern("x").IsZero() {
		t.Fatalf("IsZero misreports")
	}
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	first := tbl.Push("a")
	tbl.Push("b")
	again := tbl.Push("a")
	if first != again || tbl.Len() != 2 {
		t.Fatalf("table did not deduplicate: len=%d", tbl.Len())
	}
	if _, ok := tbl.Lookup("c"); ok {
		t.Fatalf("unexpected hit for c")
	}
	snap := tbl.Snapshot()
	if len(snap) != 2 || snap[0].Name() != "a" || snap[1].Name() != "b" {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
}

func TestGenerator(t *testing.T) {
	g := NewGenerator("tmp")
	if g.Next().Name() != "tmp0" || g.Next().Name() != "tmp1" {
		t.Fatalf("unexpected generator sequence")
	}
}
