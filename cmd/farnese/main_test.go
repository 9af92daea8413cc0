package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"farnese/internal/ast"
)

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}

func TestRenderVersionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderVersionJSON(&buf, true); err != nil {
		t.Fatalf("renderVersionJSON: %v", err)
	}
	var p versionPayload
	if err := json.Unmarshal(buf.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Tool != "farnese" || p.Version == "" || p.GitCommit == "" {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

// runCLI executes the root command with args inside dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	runCleanup()
	return out.String(), err
}

func TestBuildFromManifest(t *testing.T) {
	dir := t.TempDir()
	doc, err := ast.Encode([]ast.Node{
		&ast.Function{Name: "main", Body: []ast.Node{
			&ast.MethodCall{Name: "printf", Args: []ast.Node{ast.String("hello")}},
		}},
	}, ast.FormatJSON)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hello.json"), doc, 0o600); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	manifest := "[package]\nname = \"hello\"\n\n[build]\ninputs = [\"hello.json\"]\nout_dir = \"ir\"\n"
	if err := os.WriteFile(filepath.Join(dir, "farnese.toml"), []byte(manifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	out, err := runCLI(t, dir, "build", "--ui=off", "--emit-core")
	if err != nil {
		t.Fatalf("build: %v\n%s", err, out)
	}
	if !strings.Contains(out, "built hello: 1 module(s)") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	for _, name := range []string{"Core.ll", "hello.ll", "Main.ll"} {
		if _, err := os.Stat(filepath.Join(dir, "ir", name)); err != nil {
			t.Fatalf("%s missing: %v", name, err)
		}
	}
}

func TestBuildWithoutManifestOrInputs(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "build", "--ui=off")
	if err == nil || !strings.Contains(err.Error(), "no farnese.toml found") {
		t.Fatalf("expected missing manifest error, got %v", err)
	}
}

func TestCoreTypes(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "core", "--types")
	if err != nil {
		t.Fatalf("core: %v", err)
	}
	if !strings.Contains(out, "Int64 <: Signed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
