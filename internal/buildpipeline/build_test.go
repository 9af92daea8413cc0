package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"farnese/internal/ast"
	"farnese/internal/diag"
)

func writeDoc(t *testing.T, dir, name string, nodes ...ast.Node) string {
	t.Helper()
	path := filepath.Join(dir, name)
	format, err := ast.FormatFromPath(path)
	if err != nil {
		t.Fatalf("FormatFromPath: %v", err)
	}
	data, err := ast.Encode(nodes, format)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func geometryDoc() []ast.Node {
	return []ast.Node{&ast.Module{Name: "Geometry", Exprs: []ast.Node{
		&ast.AbstractType{Name: "Shape", Supertype: "Any"},
		&ast.Exports{Symbols: []string{"Shape"}},
	}}}
}

func mainDoc() []ast.Node {
	return []ast.Node{
		&ast.Function{Name: "inc", Args: []ast.FunctionArg{{Name: "x", ArgType: "Int64"}}, ReturnType: "Int64",
			Body: []ast.Node{&ast.Binary{Op: ast.OpPlus, LHS: &ast.Symbol{Name: "x"}, RHS: ast.Int64(1)}}},
		&ast.Function{Name: "main", Body: []ast.Node{
			&ast.MethodCall{Name: "printf", Args: []ast.Node{&ast.MethodCall{Name: "inc", Args: []ast.Node{ast.Int64(41)}}}},
		}},
	}
}

func TestBuildWritesIR(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	inputs := []string{
		writeDoc(t, src, "geometry.json", geometryDoc()...),
		writeDoc(t, src, "app.fast", mainDoc()...),
	}
	sink := &RecordingSink{}
	res, err := Build(context.Background(), &Request{Inputs: inputs, OutDir: out, Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatalf("Build: %v (%v)", err, res.Bag.Items())
	}
	if strings.Join(res.Modules, ",") != "Geometry,app" {
		t.Fatalf("modules = %v", res.Modules)
	}
	for _, name := range []string{"Geometry.ll", "app.ll", "Main.ll"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "Core.ll")); !os.IsNotExist(err) {
		t.Fatalf("Core.ll written without EmitCore")
	}
	if _, err := res.Main.GetFunction("inc_Int64"); err != nil {
		t.Fatalf("Main lacks inc_Int64: %v", err)
	}
	if res.Fingerprint.String() == "" || len(res.Timer.Phases()) != 4 {
		t.Fatalf("unexpected fingerprint/timer: %s %+v", res.Fingerprint, res.Timer.Phases())
	}

	done := 0
	for _, ev := range sink.Events() {
		if ev.Status == StatusDone {
			done++
		}
		if ev.Status == StatusError {
			t.Fatalf("unexpected error event: %+v", ev)
		}
	}
	if done != len(inputs) {
		t.Fatalf("expected %d done events, got %d", len(inputs), done)
	}
}

func TestBuildEmitCore(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	in := writeDoc(t, src, "geometry.json", geometryDoc()...)
	if _, err := Build(context.Background(), &Request{Inputs: []string{in}, OutDir: out, EmitCore: true}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "Core.ll")); err != nil {
		t.Fatalf("Core.ll missing: %v", err)
	}
}

func TestBuildCollectsCompileErrors(t *testing.T) {
	src := t.TempDir()
	good := writeDoc(t, src, "geometry.json", geometryDoc()...)
	bad := writeDoc(t, src, "broken.json", &ast.Assignment{Identifier: "y", Value: &ast.Symbol{Name: "ghost"}})
	sink := &RecordingSink{}
	res, err := Build(context.Background(), &Request{Inputs: []string{bad, good}, Progress: sink})
	if err == nil {
		t.Fatalf("expected a build error")
	}
	items := res.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaUndefinedSymbol || items[0].File != bad {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
	if items[0].Module != "broken" {
		t.Fatalf("diagnostic module = %q", items[0].Module)
	}
	if res.Main != nil {
		t.Fatalf("Main must not be linked after errors")
	}
	sawError := false
	for _, ev := range sink.Events() {
		if ev.File == bad && ev.Status == StatusError && ev.Stage == StageCompile {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("no error event for %s", bad)
	}
}

func TestBuildReportsDecodeErrors(t *testing.T) {
	src := t.TempDir()
	garbage := filepath.Join(src, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(src, "missing.json")
	unknown := filepath.Join(src, "notes.txt")
	res, err := Build(context.Background(), &Request{Inputs: []string{garbage, missing, unknown}})
	if err == nil {
		t.Fatalf("expected a build error")
	}
	items := res.Bag.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 diagnostics, got %+v", items)
	}
	if items[1].Code != diag.IOLoadFileError || items[1].File != missing {
		t.Fatalf("unexpected load diagnostic: %+v", items[1])
	}
}

func TestBuildWithoutInputs(t *testing.T) {
	_, err := Build(context.Background(), &Request{})
	if !errors.Is(err, &diag.Error{Code: diag.ProjMissingInput}) {
		t.Fatalf("expected missing input, got %v", err)
	}
	if _, err := Build(context.Background(), nil); err == nil {
		t.Fatalf("nil request must fail")
	}
}

func TestDecodeCancelled(t *testing.T) {
	src := t.TempDir()
	in := writeDoc(t, src, "geometry.json", geometryDoc()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Decode(ctx, []string{in}, 1, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestModuleName(t *testing.T) {
	if got := ModuleName("/src/geometry.fast"); got != "geometry" {
		t.Fatalf("ModuleName = %q", got)
	}
}
