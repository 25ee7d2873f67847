package detector

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// FillCHW resizes img to size and writes it into dst as normalized planar RGB (CHW, [0, 1]).
//
// Arguments:
//   - img: The frame to prepare.
//   - dst: The destination tensor data, at least 3*size.X*size.Y floats.
//   - size: The model input size.
//
// Returns:
//   - error: An error if dst is too small.
func FillCHW(img image.Image, dst []float32, size image.Point) error {
	channelSize := size.X * size.Y
	if len(dst) < channelSize*3 {
		return errors.Errorf("destination tensor only holds %d floats, needs %d", len(dst), channelSize*3)
	}
	red := dst[0:channelSize]
	green := dst[channelSize : channelSize*2]
	blue := dst[channelSize*2 : channelSize*3]

	if b := img.Bounds(); b.Dx() != size.X || b.Dy() != size.Y {
		img = resize.Resize(uint(size.X), uint(size.Y), img, resize.Bilinear)
	}

	origin := img.Bounds().Min
	i := 0
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			r, g, b, _ := img.At(origin.X+x, origin.Y+y).RGBA()
			red[i] = float32(r>>8) / 255.0
			green[i] = float32(g>>8) / 255.0
			blue[i] = float32(b>>8) / 255.0
			i++
		}
	}
	return nil
}
