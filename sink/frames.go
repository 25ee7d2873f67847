package sink

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/render"
)

// stampColor is the frame number color on exported stills.
var stampColor = color.RGBA{R: 255, G: 255, B: 0, A: 255}

// FrameDir writes every frame as a numbered PNG still, stamped with its frame number in the
// bottom-left corner. Files are named frame-N.png so the directory can be replayed as a source.
type FrameDir struct {
	dir    string
	frames int
}

// NewFrameDir creates dir if needed.
func NewFrameDir(dir string) (*FrameDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating frame directory %s", dir)
	}
	return &FrameDir{dir: dir}, nil
}

// Show writes frame to the next file.
func (f *FrameDir) Show(frame gocv.Mat) error {
	src, err := frame.ToImage()
	if err != nil {
		return errors.Wrap(err, "converting frame")
	}
	img := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Src)

	f.frames++
	canvas, err := render.NewRGBACanvas(img)
	if err != nil {
		return err
	}
	canvas.Text(fmt.Sprintf("#%d", f.frames), image.Pt(10, img.Bounds().Dy()-10), render.LabelScale, stampColor, 1)
	if err := canvas.Err(); err != nil {
		return err
	}

	return f.write(img)
}

func (f *FrameDir) write(img image.Image) error {
	path := filepath.Join(f.dir, fmt.Sprintf("frame-%d.png", f.frames))
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return errors.Wrapf(err, "encoding %s", path)
	}
	return errors.Wrapf(out.Close(), "closing %s", path)
}

// Frames returns the number of frames written.
func (f *FrameDir) Frames() int {
	return f.frames
}

// StopRequested always returns false.
func (f *FrameDir) StopRequested() bool {
	return false
}

// Close is a no-op; every file is closed after it is written.
func (f *FrameDir) Close() error {
	return nil
}
