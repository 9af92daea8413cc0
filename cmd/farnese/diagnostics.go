package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"farnese/internal/diag"
	"farnese/internal/diagfmt"
)

// colorEnabled resolves --color against the terminal.
func colorEnabled(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "", "auto":
		return isTerminal(os.Stderr) && !color.NoColor, nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", value)
}

func renderDiagnostics(cmd *cobra.Command, bag *diag.Bag) error {
	useColor, err := colorEnabled(cmd)
	if err != nil {
		return err
	}
	if useColor {
		// fatih/color disables itself when stdout is not a terminal
		prev := color.NoColor
		color.NoColor = false
		defer func() { color.NoColor = prev }()
	}
	bag.Sort()
	diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{Color: useColor, ShowNotes: true})
	return nil
}
