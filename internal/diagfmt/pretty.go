package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"farnese/internal/diag"
)

// Pretty writes one block per diagnostic:
//
//	<file>: <SEV> <ID>: [<module>: ]<message>
//	  note: ...
//
// Callers should bag.Sort() first.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	dim := color.New(color.Faint)
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		code := d.Code.ID()
		loc := d.File
		if loc == "" {
			loc = "<input>"
		}
		if opts.Color {
			sev = sevColor[d.Severity].Sprint(sev)
			loc = color.New(color.Bold).Sprint(loc)
			code = dim.Sprint(code)
		}
		msg := d.Message
		if d.Module != "" {
			msg = d.Module + ": " + msg
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, code, msg)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			label := "note"
			if opts.Color {
				label = dim.Sprint(label)
			}
			fmt.Fprintf(w, "  %s: %s\n", label, n.Msg)
		}
	}
}
