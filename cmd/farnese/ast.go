package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"farnese/internal/ast"
	"farnese/internal/diag"
)

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Decode an AST document and print it",
	Long:  "Decode an AST document and print it as s-expressions, or convert it to another interchange format.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatValue, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		path := args[0]
		inFormat, err := ast.FormatFromPath(path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return diag.Wrap(diag.IOLoadFileError, path, err)
		}
		nodes, err := ast.Decode(data, inFormat)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch strings.ToLower(formatValue) {
		case "sexpr", "":
			for _, n := range nodes {
				fmt.Fprintln(out, n)
			}
			return nil
		case "json":
			enc, err := ast.Encode(nodes, ast.FormatJSON)
			if err != nil {
				return err
			}
			_, err = out.Write(append(enc, '\n'))
			return err
		case "msgpack":
			enc, err := ast.Encode(nodes, ast.FormatMsgpack)
			if err != nil {
				return err
			}
			_, err = out.Write(enc)
			return err
		}
		return fmt.Errorf("unsupported format %q (must be sexpr, json or msgpack)", formatValue)
	},
}

func init() {
	astCmd.Flags().String("format", "sexpr", "output format (sexpr|json|msgpack)")
}
