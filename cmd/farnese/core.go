package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"farnese/internal/compiler"
	"farnese/internal/trace"
)

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Print the IR of the bootstrapped Core module",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, err := cmd.Flags().GetString("out")
		if err != nil {
			return err
		}
		typesOnly, err := cmd.Flags().GetBool("types")
		if err != nil {
			return err
		}
		ctx := buildContext(cmd.Context())
		c, err := compiler.New(compiler.Options{
			OutDir:     outDir,
			Tracer:     trace.FromContext(ctx),
			ParentSpan: trace.CurrentSpan(ctx),
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if typesOnly {
			for _, t := range c.Core().Types() {
				fmt.Fprintln(out, t)
			}
			return nil
		}
		if outDir != "" {
			fmt.Fprintf(out, "wrote Core.ll to %s\n", outDir)
			return nil
		}
		fmt.Fprint(out, c.Core().IR())
		return nil
	},
}

func init() {
	coreCmd.Flags().StringP("out", "o", "", "write Core.ll into this directory instead of printing it")
	coreCmd.Flags().Bool("types", false, "list the Core type hierarchy instead of IR")
}
