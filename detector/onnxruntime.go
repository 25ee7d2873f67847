package detector

import (
	"image"
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/classifier"
)

// ORTDetector runs a YOLOv8 ONNX model with ONNX Runtime.
type ORTDetector struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	inputShape image.Point
	decoder    *Decoder
	log        logrus.FieldLogger
}

// SharedLibPath returns the default ONNX Runtime shared library path for the current platform.
//
// Returns:
//   - string: The path to the shared library.
func SharedLibPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// NewORTDetector creates an ONNX Runtime session bound to preallocated input and output tensors.
//
// Arguments:
//   - cfg: The detector configuration.
//
// Returns:
//   - *ORTDetector: The initialized detector.
//   - error: An error if the library, the model or the session cannot be set up.
func NewORTDetector(cfg Config) (*ORTDetector, error) {
	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = SharedLibPath()
	}
	if _, err := os.Stat(libPath); err != nil {
		return nil, errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, errors.Wrapf(err, "model file not found: %s", cfg.ModelPath)
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.Wrap(err, "initializing ORT environment")
		}
	}

	decoder := cfg.decoder()
	shape := cfg.InputShape

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(shape.Y), int64(shape.X)))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}

	rows := int64(4 + decoder.NumClasses())
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, rows, int64(anchorCount(shape))))
	if err != nil {
		input.Destroy()
		return nil, errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "creating ORT session options")
	}
	defer options.Destroy()

	// A zero value lets onnxruntime pick the thread count.
	options.SetIntraOpNumThreads(0)
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.Value{input},
		[]ort.Value{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, errors.Wrap(err, "creating ORT session")
	}

	d := &ORTDetector{
		session:    session,
		input:      input,
		output:     output,
		inputShape: shape,
		decoder:    decoder,
		log:        cfg.logger(),
	}
	d.log.WithFields(logrus.Fields{
		"backend": BackendONNXRuntime,
		"model":   cfg.ModelPath,
		"library": libPath,
		"input":   shape,
		"classes": decoder.NumClasses(),
	}).Info("detector initialized")

	return d, nil
}

// Detect runs inference on one BGR frame.
func (d *ORTDetector) Detect(frame gocv.Mat) ([]classifier.Detection, error) {
	if frame.Empty() {
		return nil, errors.New("empty frame")
	}

	img, err := frame.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "converting frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, errors.New("detector closed")
	}
	if err := FillCHW(img, d.input.GetData(), d.inputShape); err != nil {
		return nil, errors.Wrap(err, "preparing input")
	}
	if err := d.session.Run(); err != nil {
		return nil, errors.Wrap(err, "running inference")
	}

	return d.decoder.Decode(d.output.GetData(), image.Point{X: frame.Cols(), Y: frame.Rows()})
}

// Close releases the session, its tensors and the ORT environment.
func (d *ORTDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	d.input.Destroy()
	d.output.Destroy()
	d.session.Destroy()
	d.session = nil

	return ort.DestroyEnvironment()
}
