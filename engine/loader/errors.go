package loader

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrEmptyResponse is wrapped by a FetchError when a fetch returned no bytes.
	ErrEmptyResponse = errors.New("empty response")

	// ErrInvalidEncoding is wrapped by a FetchError when fetched bytes are not valid UTF-8.
	ErrInvalidEncoding = errors.New("source is not valid UTF-8")

	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("loader closed")
)

// FetchError is returned when shader source text could not be retrieved or is unusable.
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Path, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CheckText validates fetched bytes as shader source text.
//
// Parameters:
//   - path: the path the bytes were fetched from, used in the error
//   - data: the fetched bytes
//
// Returns:
//   - string: the source text
//   - error: a *FetchError wrapping ErrEmptyResponse or ErrInvalidEncoding
func CheckText(path string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &FetchError{Path: path, Err: ErrEmptyResponse}
	}
	if !utf8.Valid(data) {
		return "", &FetchError{Path: path, Err: ErrInvalidEncoding}
	}
	return string(data), nil
}

// asFetchError wraps err in a *FetchError for path unless it already is one.
func asFetchError(path string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Path: path, Err: err}
}
