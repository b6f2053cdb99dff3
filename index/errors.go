package index

import (
	"fmt"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when loading an index whose snapshot doesn't exist.
var ErrNotFound = errors.New("Index snapshot not found")

// ErrNoValidPixels is wrapped in a SourceReadError when a swath file has no lines or only fill values.
var ErrNoValidPixels = errors.New("Swath file contains no valid pixels")

// PersistenceError means writing a snapshot failed. The previous snapshot, if any, is still intact and the in-memory
// index is unchanged.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("Unable to save index snapshot %s: %s", e.Path, e.Err.Error())
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Cause() error {
	return e.Err
}

// SourceReadError means a swath file couldn't be opened or read. The file is not part of the index afterward.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("Unable to read swath file %s: %s", e.Path, e.Err.Error())
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

func (e *SourceReadError) Cause() error {
	return e.Err
}
