// Package buildpipeline orchestrates a build: AST documents are decoded in
// parallel, compiled one after another in input order and linked into Main.
package buildpipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"farnese/internal/ast"
	"farnese/internal/compiler"
	"farnese/internal/diag"
	"farnese/internal/module"
	"farnese/internal/observ"
	"farnese/internal/project"
	"farnese/internal/trace"
)

// DefaultMaxDiagnostics bounds the diagnostic bag when Request leaves it unset.
const DefaultMaxDiagnostics = 100

// Request configures a build.
type Request struct {
	Inputs         []string
	OutDir         string // empty keeps the IR in memory
	EmitCore       bool
	Jobs           int
	MaxDiagnostics int
	Progress       ProgressSink
}

// Result captures build artefacts.
type Result struct {
	// Modules lists compiled modules in compile order.
	Modules     []string
	Main        *module.Module
	Fingerprint project.Digest
	Bag         *diag.Bag
	Timer       *observ.Timer
}

// Build runs every stage. Errors from individual files are collected in
// Result.Bag; the returned error summarises them. The tracer is taken
// from ctx.
func Build(ctx context.Context, req *Request) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return Result{}, fmt.Errorf("missing build request")
	}
	maxDiag := req.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = DefaultMaxDiagnostics
	}
	res := Result{Bag: diag.NewBag(maxDiag), Timer: observ.NewTimer()}
	if len(req.Inputs) == 0 {
		err := diag.Errorf(diag.ProjMissingInput, "", "no input documents")
		res.Bag.AddError(err, "")
		return res, err
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "build", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	emitQueued(req.Progress, req.Inputs)
	emit(req.Progress, "", StageDecode, StatusWorking, nil)
	idx := res.Timer.Begin("decode")
	inputs, errs, err := Decode(ctx, req.Inputs, req.Jobs, req.Progress)
	res.Timer.End(idx, strconv.Itoa(len(req.Inputs))+" files")
	if err != nil {
		return res, err
	}
	failed := make(map[string]bool)
	for i, e := range errs {
		if e != nil {
			res.Bag.AddError(e, req.Inputs[i])
			failed[req.Inputs[i]] = true
		}
	}
	if res.Bag.HasErrors() {
		return res, buildError(res.Bag)
	}
	digests := make([]project.Digest, len(inputs))
	for i, in := range inputs {
		digests[i] = in.Digest
	}
	res.Fingerprint = project.Combine(digests[0], digests[1:]...)

	emit(req.Progress, "", StageCompile, StatusWorking, nil)
	c, err := compiler.New(compiler.Options{
		OutDir:     req.OutDir,
		SkipCoreIR: !req.EmitCore,
		Tracer:     tracer,
		ParentSpan: span.ID(),
	})
	if err != nil {
		res.Bag.AddError(err, "")
		return res, err
	}
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		emit(req.Progress, in.Path, StageCompile, StatusWorking, nil)
		idx := res.Timer.Begin("compile " + filepath.Base(in.Path))
		names, err := compileInput(c, in)
		res.Modules = append(res.Modules, names...)
		if err != nil {
			res.Timer.End(idx, "failed")
			res.Bag.AddError(err, in.Path)
			failed[in.Path] = true
			emit(req.Progress, in.Path, StageCompile, StatusError, err)
			continue
		}
		res.Timer.End(idx, strings.Join(names, ", "))
	}
	if res.Bag.HasErrors() {
		return res, buildError(res.Bag)
	}

	emit(req.Progress, "", StageLink, StatusWorking, nil)
	err = res.Timer.Track("link", func() error {
		var err error
		res.Main, err = c.LinkMain()
		return err
	})
	if err != nil {
		res.Bag.AddError(err, "")
		for _, in := range inputs {
			emit(req.Progress, in.Path, StageLink, StatusError, err)
		}
		return res, err
	}
	for _, in := range inputs {
		if !failed[in.Path] {
			emit(req.Progress, in.Path, StageLink, StatusDone, nil)
		}
	}
	span.WithExtra("modules", strconv.Itoa(len(res.Modules)))
	return res, nil
}

// compileInput compiles the Module nodes of a document as modules of their
// own. Any other top-level nodes form a module named after the file.
func compileInput(c *compiler.Compiler, in Input) ([]string, error) {
	var names []string
	var loose []ast.Node
	for _, n := range in.Nodes {
		mn, ok := n.(*ast.Module)
		if !ok {
			loose = append(loose, n)
			continue
		}
		if _, err := c.CompileModule(mn.Name, mn.Exprs); err != nil {
			return names, err
		}
		names = append(names, mn.Name)
	}
	if len(loose) == 0 {
		return names, nil
	}
	name := ModuleName(in.Path)
	if _, err := c.CompileModule(name, loose); err != nil {
		return names, err
	}
	return append(names, name), nil
}

// ModuleName derives a module name from a document path: the file name
// without its extension.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func buildError(bag *diag.Bag) error {
	n := 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return fmt.Errorf("build failed with %d error(s)", n)
}
