package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindSourceUnavailable means the video source could not be opened; no frame was processed.
	KindSourceUnavailable Kind = iota + 1
	// KindUnexpected is any failure while frames were being processed.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source unavailable"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

var (
	// ErrSourceUnavailable matches failures of kind KindSourceUnavailable.
	ErrSourceUnavailable = errors.New("video source unavailable")
	// ErrUnexpected matches failures of kind KindUnexpected.
	ErrUnexpected = errors.New("unexpected processing failure")
)

// Failure is the error returned when processing cannot start or stops abnormally.
type Failure struct {
	Kind Kind
	// Path names the source for KindSourceUnavailable.
	Path string
	Err  error
}

// SourceUnavailable reports a source that could not be opened.
func SourceUnavailable(path string, err error) *Failure {
	return &Failure{Kind: KindSourceUnavailable, Path: path, Err: err}
}

// Unexpected reports a failure during processing.
func Unexpected(err error) *Failure {
	return &Failure{Kind: KindUnexpected, Err: err}
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindSourceUnavailable:
		if f.Err == nil {
			return fmt.Sprintf("could not open video source %q", f.Path)
		}
		return fmt.Sprintf("could not open video source %q: %v", f.Path, f.Err)
	default:
		if f.Err == nil {
			return ErrUnexpected.Error()
		}
		return fmt.Sprintf("%s: %v", ErrUnexpected, f.Err)
	}
}

// Unwrap returns the cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the sentinel for the failure's kind.
func (f *Failure) Is(target error) bool {
	switch f.Kind {
	case KindSourceUnavailable:
		return target == ErrSourceUnavailable
	case KindUnexpected:
		return target == ErrUnexpected
	}
	return false
}
