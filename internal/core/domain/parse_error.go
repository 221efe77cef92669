package domain

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) in the manifest input.
type Span struct {
	Start uint64
	End   uint64
}

// NewSpan creates a span covering [start, end).
func NewSpan(start, end uint64) *Span {
	return &Span{Start: start, End: end}
}

// String renders the span as "[start..end)".
func (s Span) String() string {
	return fmt.Sprintf("[%d..%d)", s.Start, s.End)
}

// ParseError describes a manifest that could not be decoded.
type ParseError struct {
	// Cause is the underlying error, usually one of the manifest sentinels.
	Cause error
	// Span locates the offending bytes, when known.
	Span *Span
	// Reason is a human-readable explanation.
	Reason string
}

// NewParseError creates a ParseError for cause located at span.
func NewParseError(cause error, span *Span, reason string) *ParseError {
	return &ParseError{Cause: cause, Span: span, Reason: reason}
}

// UnexpectedEOF creates the ParseError raised by short reads.
func UnexpectedEOF(span *Span) *ParseError {
	return NewParseError(ErrUnexpectedEOF, span, ErrUnexpectedEOF.Error())
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	if e.Span != nil {
		b.WriteString(" at ")
		b.WriteString(e.Span.String())
	}
	if e.Cause != nil && e.Cause.Error() != e.Reason {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
