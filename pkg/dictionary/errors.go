package dictionary

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaMismatch is matched by every SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a mandatory column missing from the source header.
type SchemaMismatchError struct {
	Column string
	Header []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: no %s column in header [%s]", e.Column, strings.Join(e.Header, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// RetrievalError wraps a failure to download the source dataset.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
