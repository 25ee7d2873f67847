package detector

import (
	"image"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/classifier"
)

// OpenCVDetector runs a YOLOv8 ONNX model with gocv.ReadNet.
type OpenCVDetector struct {
	mu         sync.Mutex
	net        gocv.Net
	inputShape image.Point
	decoder    *Decoder
	log        logrus.FieldLogger
}

// NewOpenCVDetector loads the model into an OpenCV DNN network on the CPU.
//
// Arguments:
//   - cfg: The detector configuration.
//
// Returns:
//   - *OpenCVDetector: The loaded detector.
//   - error: An error if the model file is missing or cannot be parsed.
func NewOpenCVDetector(cfg Config) (*OpenCVDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNet(cfg.ModelPath, "")
	if net.Empty() {
		return nil, errors.Errorf("failed to load ONNX model: %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	d := &OpenCVDetector{
		net:        net,
		inputShape: cfg.InputShape,
		decoder:    cfg.decoder(),
		log:        cfg.logger(),
	}
	d.log.WithFields(logrus.Fields{
		"backend": BackendOpenCV,
		"model":   cfg.ModelPath,
		"input":   cfg.InputShape,
		"classes": d.decoder.NumClasses(),
	}).Info("detector initialized")

	return d, nil
}

// Detect runs inference on one BGR frame.
func (d *OpenCVDetector) Detect(frame gocv.Mat) ([]classifier.Detection, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blob := gocv.BlobFromImage(frame, 1.0/255.0, d.inputShape, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "reading network output")
	}

	return d.decoder.Decode(data, image.Point{X: frame.Cols(), Y: frame.Rows()})
}

// Close releases the network.
func (d *OpenCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.net.Empty() {
		return nil
	}
	return d.net.Close()
}
