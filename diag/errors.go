package diag

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is against any error returned by the
// importers, exporters or the façade.
var (
	ErrRead                 = errors.New("read error")
	ErrInvalidData          = errors.New("invalid data")
	ErrValidation           = errors.New("validation error")
	ErrIO                   = errors.New("io error")
	ErrSerialization        = errors.New("serialization error")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrMissingRequiredField = errors.New("missing required field")
)

// Error is a hard conversion failure. Structural problems become an Error;
// content gaps become Warnings.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " at " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Read wraps an upstream decode or parse failure.
func Read(op string, err error) error {
	return &Error{Kind: ErrRead, Op: op, Err: err}
}

// Invalid reports a structurally inconsistent source.
func Invalid(op, path, format string, args ...any) error {
	return &Error{Kind: ErrInvalidData, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

// Missing reports a mandatory field absent from the source.
func Missing(op, path string) error {
	return &Error{Kind: ErrMissingRequiredField, Op: op, Path: path}
}

// Serialization wraps a writer-level failure.
func Serialization(op string, err error) error {
	return &Error{Kind: ErrSerialization, Op: op, Err: err}
}

// Unsupported reports a conversion pair the engine does not implement.
func Unsupported(op, format string, args ...any) error {
	return &Error{Kind: ErrUnsupportedFormat, Op: op, Err: fmt.Errorf(format, args...)}
}

// Validation wraps a destination-schema rejection.
func Validation(op string, err error) error {
	return &Error{Kind: ErrValidation, Op: op, Err: err}
}

// IO wraps a filesystem failure at the CLI boundary.
func IO(op string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Err: err}
}

// KindOf returns the short name of the error kind, or "unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRead):
		return "read"
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrSerialization):
		return "serialization"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrMissingRequiredField):
		return "missing_required_field"
	default:
		return "unknown"
	}
}
