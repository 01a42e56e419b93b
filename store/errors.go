package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned when an operation is given an empty primary key value.
	ErrEmptyKey = errors.New("dojo: empty primary key")

	// ErrKeyMismatch is returned by Put when the key argument differs from the record's own key.
	ErrKeyMismatch = errors.New("dojo: key does not match record primary key")

	// ErrEncoding is wrapped by errors that come from converting between a record and its item.
	ErrEncoding = errors.New("dojo: attribute encoding failed")
)

// OpError describes a failed store operation.
type OpError struct {
	// Op is the operation that failed (e.g., "scan", "get", "put").
	Op string

	// Table is the table the operation targeted.
	Table string

	// Key is the primary key value, empty for table-level operations.
	Key string

	// Err is the underlying SDK, transport, or encoding error.
	Err error
}

func (e *OpError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("dojo: %s %s[%s]: %v", e.Op, e.Table, e.Key, e.Err)
	}
	return fmt.Sprintf("dojo: %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func opError(op, table, key string, err error) error {
	return &OpError{Op: op, Table: table, Key: key, Err: err}
}

func encodingError(op, table, key string, err error) error {
	return &OpError{Op: op, Table: table, Key: key, Err: fmt.Errorf("%w: %v", ErrEncoding, err)}
}
