package writer

import (
	"errors"
	"fmt"
)

var (
	// ErrWriterNotOpened is returned when rows are added outside the Opened state.
	ErrWriterNotOpened = errors.New("writer is not opened")
	// ErrAlreadyOpened is returned by Open on an opened writer.
	ErrAlreadyOpened = errors.New("writer is already opened")
	// ErrWriterClosed is returned by Open on a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// UnsupportedFormatError reports a destination extension with no backend.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported format: destination has no file extension"
	}
	return fmt.Sprintf("unsupported format: no writer for extension %q", e.Extension)
}

// IOError reports a failure to create, write or flush the destination.
type IOError struct {
	Op   string // "open", "write", "flush" or "close"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
