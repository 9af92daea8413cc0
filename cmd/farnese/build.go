package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"farnese/internal/buildpipeline"
	"farnese/internal/project"
)

const noManifestMessage = "no farnese.toml found\nplease name the AST documents explicitly, e.g.:\n  farnese build geometry.fast main.fast"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [inputs...]",
	Short: "Compile AST documents to LLVM IR",
	Long: `Compile AST documents (.fast/.msgpack or .json) into one IR module per
source module plus Main.ll. Without arguments the inputs come from farnese.toml.`,
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().StringP("out", "o", "", "output directory for .ll files (default: [build].out_dir or ./build)")
	buildCmd.Flags().IntP("jobs", "j", 0, "parallel decode workers (0 = GOMAXPROCS)")
	buildCmd.Flags().Bool("emit-core", false, "also write Core.ll")
	buildCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

// buildSettings is the merge of farnese.toml and the command line.
type buildSettings struct {
	name     string
	inputs   []string
	outDir   string
	emitCore bool
	jobs     int
}

func buildExecution(cmd *cobra.Command, args []string) error {
	settings, err := resolveBuildSettings(cmd, args)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if err := os.MkdirAll(settings.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	req := &buildpipeline.Request{
		Inputs:         settings.inputs,
		OutDir:         settings.outDir,
		EmitCore:       settings.emitCore,
		Jobs:           settings.jobs,
		MaxDiagnostics: maxDiagnostics,
	}
	var res buildpipeline.Result
	if !quiet && shouldUseTUI(mode) {
		res, err = runBuildWithUI(cmd.Context(), "build "+settings.name, settings.inputs, req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), req)
	}

	if res.Bag != nil && res.Bag.Len() > 0 {
		if renderErr := renderDiagnostics(cmd, res.Bag); renderErr != nil {
			return renderErr
		}
	}
	if showTimings && res.Timer != nil {
		fmt.Fprint(cmd.ErrOrStderr(), res.Timer.Summary())
	}
	if err != nil {
		return err
	}
	if !quiet {
		printBuildSummary(cmd.OutOrStdout(), settings, res)
	}
	return nil
}

// resolveBuildSettings prefers explicit arguments; otherwise it requires a
// manifest. Flags override manifest values.
func resolveBuildSettings(cmd *cobra.Command, args []string) (buildSettings, error) {
	var s buildSettings
	manifest, found, err := project.LoadManifest(".")
	if err != nil {
		return s, err
	}
	switch {
	case len(args) > 0:
		s.inputs = args
		s.name = buildpipeline.ModuleName(args[len(args)-1])
		s.outDir = project.DefaultOutDir
	case found:
		s.inputs = manifest.Inputs()
		if len(s.inputs) == 0 {
			return s, fmt.Errorf("%s: [build].inputs is empty", manifest.Path)
		}
		s.name = manifest.Config.Package.Name
		s.outDir = manifest.OutDir()
	default:
		return s, errors.New(noManifestMessage)
	}
	if found {
		s.emitCore = manifest.Config.Build.EmitCore
		s.jobs = manifest.Config.Build.Jobs
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		if s.outDir, err = flags.GetString("out"); err != nil {
			return s, err
		}
	}
	if flags.Changed("jobs") {
		if s.jobs, err = flags.GetInt("jobs"); err != nil {
			return s, err
		}
		if s.jobs < 0 {
			return s, fmt.Errorf("--jobs must not be negative")
		}
	}
	if flags.Changed("emit-core") {
		if s.emitCore, err = flags.GetBool("emit-core"); err != nil {
			return s, err
		}
	}
	return s, nil
}

func printBuildSummary(out io.Writer, s buildSettings, res buildpipeline.Result) {
	fmt.Fprintf(out, "built %s: %d module(s) -> %s\n", s.name, len(res.Modules), filepath.Join(s.outDir, "Main.ll"))
	fmt.Fprintf(out, "fingerprint %s\n", res.Fingerprint.Short())
}

// buildContext returns ctx or a background context.
func buildContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
