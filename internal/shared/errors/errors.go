package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies toolkit errors so callers can branch on the failure
// class without matching message text.
type Kind int

const (
	// KindConfiguration indicates missing or contradictory workspace/tenant
	// identification supplied by the caller or the settings file.
	KindConfiguration Kind = iota + 1
	// KindConnection indicates that no usable workspace config could be
	// resolved, or the resolved config lacks required identifiers.
	KindConnection
	// KindNotConnected indicates a query was attempted before Connect.
	KindNotConnected
	// KindNoDataSource indicates the query's target table is absent from
	// the cached workspace schema.
	KindNoDataSource
	// KindQueryFailure indicates the service rejected the query or an
	// unrecognized error occurred during dispatch.
	KindQueryFailure
	// KindUserConfig indicates a missing or malformed user-level setting
	// (e.g. a provider API key).
	KindUserConfig
)

// Sentinel errors, one per kind, for errors.Is matching.
var (
	ErrConfiguration = stderrors.New("configuration error")
	ErrConnection    = stderrors.New("connection error")
	ErrNotConnected  = stderrors.New("not connected")
	ErrNoDataSource  = stderrors.New("no data source")
	ErrQueryFailure  = stderrors.New("query failure")
	ErrUserConfig    = stderrors.New("user configuration error")
)

var kindSentinels = map[Kind]error{
	KindConfiguration: ErrConfiguration,
	KindConnection:    ErrConnection,
	KindNotConnected:  ErrNotConnected,
	KindNoDataSource:  ErrNoDataSource,
	KindQueryFailure:  ErrQueryFailure,
	KindUserConfig:    ErrUserConfig,
}

// Error is the toolkit error type. Every raised error carries a
// human-readable title and a help-documentation reference alongside the
// message lines.
type Error struct {
	Kind    Kind
	Title   string
	Lines   []string
	HelpURI string
	Err     error // wrapped cause, may be nil
}

// New builds an Error with no underlying cause.
func New(kind Kind, title string, helpURI string, lines ...string) *Error {
	return &Error{Kind: kind, Title: title, HelpURI: helpURI, Lines: lines}
}

// Wrap builds an Error chaining an underlying cause.
func Wrap(kind Kind, cause error, title string, helpURI string, lines ...string) *Error {
	return &Error{Kind: kind, Title: title, HelpURI: helpURI, Lines: lines, Err: cause}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Title)
	for _, line := range e.Lines {
		b.WriteString(": ")
		b.WriteString(line)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.HelpURI != "" {
		fmt.Fprintf(&b, " (see %s)", e.HelpURI)
	}
	return b.String()
}

// Unwrap returns the underlying cause, preserving the error chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind, so
// errors.Is(err, errors.ErrNotConnected) works across wrapping.
func (e *Error) Is(target error) bool {
	return target == kindSentinels[e.Kind]
}
