package manifest

import (
	"errors"
	"strings"
)

var (
	// ErrMissingRequiredField is returned when a required key is absent or empty
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrMalformedDocument is returned when the descriptor cannot be decoded
	ErrMalformedDocument = errors.New("malformed document")
)

// ParseError describes a fatal descriptor problem.
// Kind is one of the sentinel errors above.
type ParseError struct {
	Kind   error
	Field  string
	Format Format
	Cause  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("manifest: ")
	b.WriteString(e.Kind.Error())

	if e.Field != "" {
		b.WriteString(" \"")
		b.WriteString(e.Field)
		b.WriteString("\"")
	}

	if e.Format != "" {
		b.WriteString(" (")
		b.WriteString(string(e.Format))
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Is matches the sentinel kind so callers can use errors.Is
func (e *ParseError) Is(target error) bool {
	return target == e.Kind
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func missingField(field string, format Format) *ParseError {
	return &ParseError{Kind: ErrMissingRequiredField, Field: field, Format: format}
}

func malformed(format Format, cause error) *ParseError {
	return &ParseError{Kind: ErrMalformedDocument, Format: format, Cause: cause}
}
