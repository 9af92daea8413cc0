package diag

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Errorf(SemaUndefinedType, "Foo", "type Foo is not declared")
	wrapped := fmt.Errorf("compile: %w", err)
	if !errors.Is(wrapped, ErrUndefinedType) {
		t.Fatalf("expected match against ErrUndefinedType")
	}
	if errors.Is(wrapped, ErrDuplicateType) {
		t.Fatalf("unexpected match against ErrDuplicateType")
	}
	if CodeOf(wrapped) != SemaUndefinedType {
		t.Fatalf("CodeOf = %v", CodeOf(wrapped))
	}
}

func TestErrorMessage(t *testing.T) {
	err := (&Error{Code: SemaUndefinedSymbol, Subject: "x"}).InModule("Main")
	if got, want := err.Error(), "SEM3001: Main: undefined symbol x"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFromError(t *testing.T) {
	d := FromError(Wrap(IOWriteFileError, "Core.ll", errors.New("disk full")), "main.fast")
	if d.Code != IOWriteFileError || d.File != "main.fast" || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
	plain := FromError(errors.New("boom"), "")
	if plain.Code != UnknownCode || plain.Message != "boom" {
		t.Fatalf("unexpected plain diagnostic: %+v", plain)
	}
}

func TestBagLimitAndSort(t *testing.T) {
	b := NewBag(2)
	b.Add(Diagnostic{Severity: SevWarning, Code: SemaInfo, File: "b"})
	b.Add(Diagnostic{Severity: SevError, Code: SemaTypeMismatch, File: "a"})
	if b.Add(Diagnostic{File: "c"}) {
		t.Fatalf("limit not enforced")
	}
	b.Sort()
	if b.Items()[0].File != "a" || !b.HasErrors() {
		t.Fatalf("unexpected order: %+v", b.Items())
	}
}

func TestCodeIDRanges(t *testing.T) {
	cases := map[Code]string{
		AstDecodeFailed:             "AST2001",
		SemaDuplicateType:           "SEM3003",
		LinkConflictingType:         "LNK4001",
		BackendUnsupportedPrimitive: "BCK5001",
		UnknownCode:                 "E0000",
	}
	for c, want := range cases {
		if c.ID() != want {
			t.Fatalf("%d.ID() = %s, want %s", c, c.ID(), want)
		}
	}
}
