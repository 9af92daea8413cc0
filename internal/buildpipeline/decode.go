package buildpipeline

import (
	"context"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"farnese/internal/ast"
	"farnese/internal/diag"
	"farnese/internal/project"
	"farnese/internal/trace"
)

// Input is one decoded AST document.
type Input struct {
	Path   string
	Format ast.Format
	Nodes  []ast.Node
	Digest project.Digest
}

// Decode reads and decodes paths with up to jobs workers. The returned
// slice is in path order; errs[i] holds the failure for paths[i], if any.
// Only cancellation of ctx aborts the whole batch.
func Decode(ctx context.Context, paths []string, jobs int, sink ProgressSink) (inputs []Input, errs []error, err error) {
	inputs = make([]Input, len(paths))
	errs = make([]error, len(paths))
	if len(paths) == 0 {
		return inputs, errs, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			emit(sink, path, StageDecode, StatusWorking, nil)
			in, err := decodeFile(path)
			if err != nil {
				errs[i] = err
				emit(sink, path, StageDecode, StatusError, err)
				return nil
			}
			inputs[i] = in
			trace.Point(tracer, trace.ScopeModule, "decoded", path, parent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return inputs, errs, nil
}

func decodeFile(path string) (Input, error) {
	format, err := ast.FormatFromPath(path)
	if err != nil {
		return Input{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, diag.Wrap(diag.IOLoadFileError, path, err)
	}
	nodes, err := ast.Decode(data, format)
	if err != nil {
		return Input{}, err
	}
	return Input{Path: path, Format: format, Nodes: nodes, Digest: project.HashBytes(data)}, nil
}
