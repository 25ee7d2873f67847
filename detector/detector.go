// Package detector - Object detectors producing per-frame detections from a YOLOv8 ONNX model.
package detector

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/classifier"
	"github.com/nvr-ai/crowdwatch/models"
)

// Detector turns one frame into raw detections.
type Detector interface {
	Detect(frame gocv.Mat) ([]classifier.Detection, error)
	Close() error
}

// Backend is the runtime executing the model.
type Backend string

const (
	// BackendOpenCV runs the model through gocv's DNN module.
	BackendOpenCV Backend = "opencv"
	// BackendONNXRuntime runs the model through onnxruntime_go.
	BackendONNXRuntime Backend = "onnxruntime"
)

// Config configures a detector.
type Config struct {
	// Backend selects the inference runtime.
	Backend Backend `json:"backend"`
	// ModelPath is the YOLOv8 ONNX export.
	ModelPath string `json:"model_path"`
	// LibraryPath overrides the ONNX Runtime shared library (onnxruntime backend only).
	LibraryPath string `json:"library_path"`
	// InputShape is the model input size (width, height).
	InputShape image.Point `json:"input_shape"`
	// ScoreFloor drops candidates before NMS. It sits below the decision threshold so the
	// classifier sees every plausible detection.
	ScoreFloor float32 `json:"score_floor"`
	// NMSThreshold is the IoU above which same-class boxes are suppressed.
	NMSThreshold float32 `json:"nms_threshold"`
	// Classes maps class indices to labels. Nil means the 80 YOLO COCO classes.
	Classes *models.OutputClassSet `json:"-"`
	// Logger receives lifecycle messages. Nil uses the logrus standard logger.
	Logger logrus.FieldLogger `json:"-"`
}

// DefaultConfig returns the configuration for a stock YOLOv8n export.
func DefaultConfig() Config {
	return Config{
		Backend:      BackendOpenCV,
		InputShape:   image.Point{X: 640, Y: 640},
		ScoreFloor:   0.25,
		NMSThreshold: 0.7,
	}
}

func (c Config) logger() logrus.FieldLogger {
	if c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

func (c Config) decoder() *Decoder {
	classes := c.Classes
	if classes == nil {
		yolo := models.YOLOClasses()
		classes = &yolo
	}
	return NewDecoder(DecoderConfig{
		Classes:      classes,
		InputShape:   c.InputShape,
		ScoreFloor:   c.ScoreFloor,
		NMSThreshold: c.NMSThreshold,
	})
}

func (c Config) validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is empty")
	}
	if c.InputShape.X <= 0 || c.InputShape.Y <= 0 {
		return errors.Errorf("invalid input shape %v", c.InputShape)
	}
	return nil
}

// New creates the detector for cfg.Backend.
//
// Arguments:
//   - cfg: The detector configuration.
//
// Returns:
//   - Detector: The initialized detector. Callers must Close it.
//   - error: An error if the backend is unknown or the model cannot be loaded.
//
// @example
// cfg := detector.DefaultConfig()
// cfg.ModelPath = "yolov8n.onnx"
// d, err := detector.New(cfg)
func New(cfg Config) (Detector, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		d   Detector
		err error
	)
	switch cfg.Backend {
	case BackendOpenCV:
		d, err = NewOpenCVDetector(cfg)
	case BackendONNXRuntime:
		d, err = NewORTDetector(cfg)
	default:
		return nil, errors.Errorf("no matching detector backend registered: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
