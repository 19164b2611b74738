// Package catalog reads, writes and stores the moonquake event tables.
//
// The offline pipeline is CSV (as published with the Apollo passive seismic
// experiment) to a flat JSON array, optionally mirrored into SQLite. The
// viewer reads either form back into a [moonquake.EventStore].
package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is wrapped by every ParseError.
	ErrMalformedRecord = errors.New("catalog: malformed record")
	// ErrMissingDate reports a JSON record whose date is null or absent.
	ErrMissingDate = errors.New("catalog: missing date")
)

// ParseError describes a field that could not be decoded.
type ParseError struct {
	Line  int    // 1-based line (CSV) or array position (JSON)
	Field string // column name
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("catalog: line %d: field %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}
