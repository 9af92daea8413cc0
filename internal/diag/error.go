package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the typed failure returned by every compiler operation.
// errors.Is matches two *Error values by Code, so callers test against
// the Err* sentinels below.
type Error struct {
	Code    Code
	Module  string // module the failure happened in, if known
	Subject string // offending name: a symbol, type or function
	Msg     string
	Err     error // underlying cause, optional
}

var (
	ErrUndefinedSymbol      = &Error{Code: SemaUndefinedSymbol}
	ErrUndefinedType        = &Error{Code: SemaUndefinedType}
	ErrDuplicateType        = &Error{Code: SemaDuplicateType}
	ErrConflictingType      = &Error{Code: LinkConflictingType}
	ErrUndefinedFunction    = &Error{Code: SemaUndefinedFunction}
	ErrTypeMismatch         = &Error{Code: SemaTypeMismatch}
	ErrUnsupportedOperator  = &Error{Code: SemaUnsupportedOperator}
	ErrUnsupportedPrimitive = &Error{Code: BackendUnsupportedPrimitive}
	ErrUnsupportedConstruct = &Error{Code: SemaUnsupportedConstruct}
)

// Errorf builds an *Error for subject with a formatted message.
func Errorf(code Code, subject, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error carrying cause.
func Wrap(code Code, subject string, cause error) *Error {
	return &Error{Code: code, Subject: subject, Err: cause}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Code.ID())
	sb.WriteString(": ")
	if e.Module != "" {
		sb.WriteString(e.Module)
		sb.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		sb.WriteString(e.Msg)
	default:
		sb.WriteString(strings.ToLower(e.Code.Title()))
		if e.Subject != "" {
			sb.WriteString(" ")
			sb.WriteString(e.Subject)
		}
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// InModule returns a copy of e attributed to module unless one is set already.
func (e *Error) InModule(module string) *Error {
	if e.Module != "" {
		return e
	}
	cp := *e
	cp.Module = module
	return &cp
}

// CodeOf extracts the Code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return UnknownCode
}

// Attribute tags err with module when it is an *Error, otherwise wraps it.
func Attribute(err error, module string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		if de.Module != "" {
			return err
		}
		if e, ok := err.(*Error); ok {
			return e.InModule(module)
		}
	}
	return fmt.Errorf("%s: %w", module, err)
}
