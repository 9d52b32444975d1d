// Package errors provides standardized error types and helpers for litescope.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common decode outcomes
var (
	// ErrTruncated indicates a byte source ran out before a structure was complete
	ErrTruncated = errors.New("truncated")
	// ErrCorrupt indicates a structure that violates the file format
	ErrCorrupt = errors.New("corrupt")
	// ErrUnsupported indicates an unsupported feature or format
	ErrUnsupported = errors.New("unsupported")
)

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "open", "stat")
	Path      string // File path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DecodeError represents a violation of the database file format
type DecodeError struct {
	Structure string // Structure being decoded (e.g., "file header", "varint", "record")
	Offset    int64  // Byte offset where decoding failed, -1 if unknown
	Message   string // Error details
	Err       error  // Underlying error, if any
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed %s at offset %d: %s", e.Structure, e.Offset, e.Message)
	}
	return fmt.Sprintf("malformed %s: %s", e.Structure, e.Message)
}

func (e *DecodeError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrCorrupt
}

// RowError represents a decode failure scoped to a single cell.
// Scanners treat it as skip-this-row, never as a reason to abort.
type RowError struct {
	Cell   int    // Cell index in the cell pointer array
	Offset uint16 // Cell pointer value (absolute file offset)
	Err    error  // Underlying error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("cell %d at offset %d: %v", e.Cell, e.Offset, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// UsageError represents bad command-line input, reported before any file I/O.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Helper functions for creating common errors

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewDecode creates a DecodeError
func NewDecode(structure string, offset int64, message string) *DecodeError {
	return &DecodeError{
		Structure: structure,
		Offset:    offset,
		Message:   message,
	}
}

// NewTruncated creates a DecodeError wrapping ErrTruncated
func NewTruncated(structure string, offset int64) *DecodeError {
	return &DecodeError{
		Structure: structure,
		Offset:    offset,
		Message:   "unexpected end of data",
		Err:       ErrTruncated,
	}
}

// NewRow creates a RowError
func NewRow(cell int, offset uint16, err error) *RowError {
	return &RowError{
		Cell:   cell,
		Offset: offset,
		Err:    err,
	}
}

// NewUsage creates a UsageError
func NewUsage(message string) *UsageError {
	return &UsageError{Message: message}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target any) bool {
	return errors.As(err, target)
}
