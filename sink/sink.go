// Package sink - Destinations for annotated frames.
package sink

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Sink receives annotated frames.
type Sink interface {
	// Show consumes one frame. The frame is only borrowed for the call.
	Show(frame gocv.Mat) error
	// StopRequested reports whether the sink asked processing to stop.
	StopRequested() bool
	Close() error
}

// Multi fans frames out to several sinks.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out sink. Nil sinks are ignored.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of sinks frames are sent to.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Show sends frame to every sink and stops at the first error.
func (m *Multi) Show(frame gocv.Mat) error {
	for _, s := range m.sinks {
		if err := s.Show(frame); err != nil {
			return err
		}
	}
	return nil
}

// StopRequested reports whether any sink requested a stop.
func (m *Multi) StopRequested() bool {
	for _, s := range m.sinks {
		if s.StopRequested() {
			return true
		}
	}
	return false
}

// Close closes every sink and returns the first error.
func (m *Multi) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = errors.Wrap(err, "closing sink")
		}
	}
	return first
}

// Discard counts frames and drops them.
type Discard struct {
	frames int
}

// Show counts the frame.
func (d *Discard) Show(gocv.Mat) error {
	d.frames++
	return nil
}

// Frames returns the number of frames shown.
func (d *Discard) Frames() int {
	return d.frames
}

// StopRequested always returns false.
func (d *Discard) StopRequested() bool {
	return false
}

// Close is a no-op.
func (d *Discard) Close() error {
	return nil
}
