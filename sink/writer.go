package sink

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultCodec is the FOURCC used for output files.
	DefaultCodec = "MJPG"
	// DefaultFPS is used when the source does not report a frame rate.
	DefaultFPS = 25.0
)

// Writer encodes frames to a video file. The file is created on the first frame so it can take
// the frame size.
type Writer struct {
	path   string
	codec  string
	fps    float64
	writer *gocv.VideoWriter
	width  int
	height int
}

// NewWriter creates a writer for path. A non-positive fps uses DefaultFPS.
func NewWriter(path string, fps float64) *Writer {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Writer{path: path, codec: DefaultCodec, fps: fps}
}

// Show appends frame to the file.
func (w *Writer) Show(frame gocv.Mat) error {
	if w.writer == nil {
		vw, err := gocv.VideoWriterFile(w.path, w.codec, w.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return errors.Wrapf(err, "opening video writer %s", w.path)
		}
		if !vw.IsOpened() {
			vw.Close()
			return errors.Errorf("video writer %s did not open", w.path)
		}
		w.writer = vw
		w.width, w.height = frame.Cols(), frame.Rows()
	}

	if frame.Cols() != w.width || frame.Rows() != w.height {
		return errors.Errorf("frame size %dx%d differs from output size %dx%d", frame.Cols(), frame.Rows(), w.width, w.height)
	}
	return errors.Wrap(w.writer.Write(frame), "writing frame")
}

// StopRequested always returns false.
func (w *Writer) StopRequested() bool {
	return false
}

// Close finalizes the file.
func (w *Writer) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}
