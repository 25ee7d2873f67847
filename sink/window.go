package sink

import (
	"gocv.io/x/gocv"
)

// QuitKey stops processing when pressed in the window.
const QuitKey = 'q'

// Window shows frames in a desktop window.
type Window struct {
	window  *gocv.Window
	stopped bool
}

// NewWindow opens a window titled title.
func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

// Show displays frame and polls the keyboard for one millisecond.
func (w *Window) Show(frame gocv.Mat) error {
	w.window.IMShow(frame)
	if key := w.window.WaitKey(1); key&0xFF == QuitKey {
		w.stopped = true
	}
	return nil
}

// StopRequested reports whether the quit key was pressed.
func (w *Window) StopRequested() bool {
	return w.stopped
}

// Close closes the window.
func (w *Window) Close() error {
	return w.window.Close()
}
