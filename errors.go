package stripalpha

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidColor is returned for a color that is neither hex nor three integers.
	ErrInvalidColor = errors.New("invalid color")
	// ErrMissingSelection means neither a folder nor an image was given.
	ErrMissingSelection = errors.New("no folder or image selected")
	// ErrCancelled means an interactive prompt was dismissed.
	ErrCancelled = errors.New("selection cancelled")
)

// Op names the file operation that failed.
type Op string

const (
	OpDecode Op = "decode"
	OpEncode Op = "encode"
)

// FileError scopes a decode or encode failure to a single file.
type FileError struct {
	Op   Op
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
