package diagfmt

import (
	"encoding/json"
	"io"

	"farnese/internal/diag"
)

type diagnosticJSON struct {
	Severity string   `json:"severity"`
	Code     string   `json:"code"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Module   string   `json:"module,omitempty"`
	Subject  string   `json:"subject,omitempty"`
	Notes    []string `json:"notes,omitempty"`
}

type diagnosticsJSON struct {
	Count       int              `json:"count"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

// JSON writes the bag as an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
	}
	out := diagnosticsJSON{Count: bag.Len(), Diagnostics: make([]diagnosticJSON, 0, len(items))}
	for _, d := range items {
		j := diagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			File:     d.File,
			Module:   d.Module,
			Subject:  d.Subject,
		}
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				j.Notes = append(j.Notes, n.Msg)
			}
		}
		out.Diagnostics = append(out.Diagnostics, j)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
