// Package test - Shared test doubles for the frame pipeline.
package test

import (
	"image"
	"image/color"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/classifier"
)

// MockFrameGenerator creates deterministic BGR test frames.
//
// @example
// gen := NewMockFrameGenerator(640, 480)
// frame := gen.GenerateStaticFrame()
// defer frame.Close()
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
//
// Returns:
// - A configured MockFrameGenerator instance.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{width: width, height: height}
}

// GenerateStaticFrame creates a mid-gray 3 channel frame.
func (g *MockFrameGenerator) GenerateStaticFrame() gocv.Mat {
	frame := gocv.NewMatWithSize(g.height, g.width, gocv.MatTypeCV8UC3)
	frame.SetTo(gocv.NewScalar(128, 128, 128, 0))
	return frame
}

// GenerateObjectFrame creates a frame with a filled white block where an object would be.
func (g *MockFrameGenerator) GenerateObjectFrame(box image.Rectangle) gocv.Mat {
	frame := g.GenerateStaticFrame()
	gocv.Rectangle(&frame, box, color.RGBA{255, 255, 255, 0}, -1)
	return frame
}

// ScriptedDetector returns a fixed list of detections per call, in order. Calls past the end of
// the script return no detections.
type ScriptedDetector struct {
	mu     sync.Mutex
	Script [][]classifier.Detection
	// FailAt makes the call with this zero-based index return Err. Negative disables it.
	FailAt int
	Err    error
	// PanicAt makes the call with this zero-based index panic. Negative disables it.
	PanicAt int

	calls  int
	closed bool
}

// NewScriptedDetector creates a detector replaying script.
func NewScriptedDetector(script ...[]classifier.Detection) *ScriptedDetector {
	return &ScriptedDetector{Script: script, FailAt: -1, PanicAt: -1}
}

// Detect returns the next scripted detections.
func (d *ScriptedDetector) Detect(frame gocv.Mat) ([]classifier.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	call := d.calls
	d.calls++

	if frame.Empty() {
		return nil, errors.New("empty frame")
	}
	if call == d.PanicAt {
		panic("scripted detector panic")
	}
	if call == d.FailAt {
		return nil, d.Err
	}
	if call >= len(d.Script) {
		return nil, nil
	}
	out := make([]classifier.Detection, len(d.Script[call]))
	copy(out, d.Script[call])
	return out, nil
}

// Calls returns the number of Detect calls.
func (d *ScriptedDetector) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Close marks the detector closed.
func (d *ScriptedDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *ScriptedDetector) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// SliceSource replays frames from memory. An empty Mat in the slice is delivered as an empty
// frame.
type SliceSource struct {
	frames []gocv.Mat
	next   int
	closed bool
}

// NewSliceSource takes ownership of frames; Close releases them.
func NewSliceSource(frames ...gocv.Mat) *SliceSource {
	return &SliceSource{frames: frames}
}

// GenerateSliceSource creates a source of n static frames.
func GenerateSliceSource(gen *MockFrameGenerator, n int) *SliceSource {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = gen.GenerateStaticFrame()
	}
	return NewSliceSource(frames...)
}

// Read copies the next frame into dst.
func (s *SliceSource) Read(dst *gocv.Mat) bool {
	if s.closed || s.next >= len(s.frames) {
		return false
	}
	frame := s.frames[s.next]
	s.next++

	if frame.Empty() {
		empty := gocv.NewMat()
		empty.CopyTo(dst)
		empty.Close()
		return true
	}
	frame.CopyTo(dst)
	return true
}

// Close releases every frame.
func (s *SliceSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for i := range s.frames {
		s.frames[i].Close()
	}
	return nil
}

// Closed reports whether Close was called.
func (s *SliceSource) Closed() bool {
	return s.closed
}

// RecordingSink records the frames it is shown.
type RecordingSink struct {
	// StopAfter requests a stop once this many frames have been shown. Zero disables it.
	StopAfter int
	// Err is returned from Show when set.
	Err error

	sizes  []image.Point
	closed bool
}

// Show records the frame size.
func (s *RecordingSink) Show(frame gocv.Mat) error {
	if s.Err != nil {
		return s.Err
	}
	s.sizes = append(s.sizes, image.Point{X: frame.Cols(), Y: frame.Rows()})
	return nil
}

// StopRequested reports whether StopAfter frames were shown.
func (s *RecordingSink) StopRequested() bool {
	return s.StopAfter > 0 && len(s.sizes) >= s.StopAfter
}

// Frames returns the number of frames shown.
func (s *RecordingSink) Frames() int {
	return len(s.sizes)
}

// Sizes returns the size of every shown frame.
func (s *RecordingSink) Sizes() []image.Point {
	return s.sizes
}

// Close marks the sink closed.
func (s *RecordingSink) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	return s.closed
}
