package source

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Capture reads frames from a gocv.VideoCapture.
type Capture struct {
	capture *gocv.VideoCapture
}

// OpenVideo opens a video file.
func OpenVideo(path string) (*Capture, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, unavailable(path, err)
	}
	return openCapture(path, path)
}

// OpenDevice opens a camera device by index.
func OpenDevice(id int) (*Capture, error) {
	return openCapture(id, fmt.Sprintf("device %d", id))
}

func openCapture(device interface{}, name string) (*Capture, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, unavailable(name, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, unavailable(name, errors.New("capture did not open"))
	}
	return &Capture{capture: capture}, nil
}

// Read reads the next frame.
func (c *Capture) Read(dst *gocv.Mat) bool {
	return c.capture.Read(dst)
}

// FPS returns the frame rate reported by the capture.
func (c *Capture) FPS() float64 {
	return c.capture.Get(gocv.VideoCaptureFPS)
}

// Close releases the capture.
func (c *Capture) Close() error {
	return c.capture.Close()
}
