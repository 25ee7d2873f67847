// Package source - Frame sources: video files, camera devices and directories of still frames.
package source

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/config"
)

// ErrUnavailable is matched by every error returned when a source cannot be opened.
var ErrUnavailable = errors.New("video source unavailable")

// Source yields frames in stream order.
type Source interface {
	// Read decodes the next frame into dst. It returns false at end of stream.
	Read(dst *gocv.Mat) bool
	Close() error
}

// unavailable wraps err so it matches ErrUnavailable while keeping the cause in the message.
func unavailable(path string, err error) error {
	return errors.Wrapf(&unavailableError{cause: err}, "opening %s", path)
}

type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string {
	if e.cause == nil {
		return ErrUnavailable.Error()
	}
	return ErrUnavailable.Error() + ": " + e.cause.Error()
}

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *unavailableError) Unwrap() error { return e.cause }

// Open opens the source named by settings: the camera device when one is set, otherwise the
// video path, read as a frame directory when it is a directory.
//
// Arguments:
//   - settings: The runtime settings.
//   - log: The logger for source lifecycle messages.
//
// Returns:
//   - Source: The opened source. Callers must Close it.
//   - error: An error matching ErrUnavailable if the source cannot be opened.
func Open(settings config.Settings, log logrus.FieldLogger) (Source, error) {
	switch {
	case settings.UseDevice():
		return asSource(OpenDevice(settings.Device))
	case settings.InputIsDirectory():
		return asSource(OpenDirectory(settings.VideoPath, log))
	default:
		return asSource(OpenVideo(settings.VideoPath))
	}
}

// asSource keeps a nil concrete source from becoming a non-nil interface.
func asSource[S Source](s S, err error) (Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
