package diag

import "errors"

type Note struct {
	Msg string
}

// Diagnostic is the reportable form of a failure, collected by the driver.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	File     string // input file the failure was traced to
	Module   string
	Subject  string
	Notes    []Note
}

// FromError converts err into an error-severity Diagnostic.
func FromError(err error, file string) Diagnostic {
	d := Diagnostic{Severity: SevError, Code: UnknownCode, Message: err.Error(), File: file}
	var de *Error
	if errors.As(err, &de) {
		d.Code = de.Code
		d.Module = de.Module
		d.Subject = de.Subject
		d.Message = de.Msg
		if d.Message == "" {
			d.Message = de.Code.Title()
			if de.Subject != "" {
				d.Message += " " + de.Subject
			}
		}
		if de.Err != nil {
			d.Notes = append(d.Notes, Note{Msg: de.Err.Error()})
		}
	}
	return d
}
