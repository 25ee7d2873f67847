// Package config - Decision constants and collaborator settings.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfidenceThreshold is the exclusive score a detection must exceed to be counted.
const ConfidenceThreshold float32 = 0.5

// anomalousClasses are COCO labels whose presence raises the anomaly flag.
var anomalousClasses = []string{"fire hydrant", "bus", "truck", "airplane", "boat", "car"}

// AnomalousClasses returns a copy of the anomalous class list.
func AnomalousClasses() []string {
	out := make([]string, len(anomalousClasses))
	copy(out, anomalousClasses)
	return out
}

// EnvPrefix is the prefix for environment overrides, e.g. CROWDWATCH_VIDEO.
const EnvPrefix = "CROWDWATCH"

const (
	// BackendOpenCV runs the model through the OpenCV DNN module.
	BackendOpenCV = "opencv"
	// BackendONNXRuntime runs the model through ONNX Runtime.
	BackendONNXRuntime = "onnxruntime"
)

const (
	// DefaultVideoPath is the video analysed when no input is given.
	DefaultVideoPath = "street_walk.mp4"
	// DefaultModelPath is the YOLOv8n ONNX export.
	DefaultModelPath = "yolov8n.onnx"
	// DefaultWindowTitle is the display window title.
	DefaultWindowTitle = "Combined Detector"
)

// Settings holds everything about the surrounding program that is not part of the decision
// policy: where frames come from, how the model runs and where annotated frames go.
type Settings struct {
	// VideoPath is a video file or a directory of frame images.
	VideoPath string `mapstructure:"video"`
	// Device is a camera index; negative means unused.
	Device int `mapstructure:"device"`
	// ModelPath is the ONNX model file.
	ModelPath string `mapstructure:"model"`
	// Backend is one of BackendOpenCV or BackendONNXRuntime.
	Backend string `mapstructure:"backend"`
	// LabelsPath is an optional class label file, one name per line, for custom models.
	LabelsPath string `mapstructure:"labels"`
	// LibraryPath overrides the ONNX Runtime shared library location.
	LibraryPath string `mapstructure:"ort-library"`
	// ShowWindow opens a display window.
	ShowWindow bool `mapstructure:"show-window"`
	// OutputPath writes the annotated video to a file when set.
	OutputPath string `mapstructure:"output"`
	// FramesDir writes every annotated frame as a PNG still when set.
	FramesDir string `mapstructure:"frames-dir"`
	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log-level"`
	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log-format"`
	// Profile enables the runtime profiler.
	Profile bool `mapstructure:"profile"`
}

// Default returns the settings used when nothing is overridden.
func Default() Settings {
	return Settings{
		VideoPath:  DefaultVideoPath,
		Device:     -1,
		ModelPath:  DefaultModelPath,
		Backend:    BackendOpenCV,
		ShowWindow: true,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// BindFlags registers the settings flags on fs with defaults taken from s.
func BindFlags(fs *pflag.FlagSet, s Settings) {
	fs.StringP("video", "v", s.VideoPath, "Path to a video file or a directory of frame images")
	fs.Int("device", s.Device, "Camera device index (overrides --video when >= 0)")
	fs.StringP("model", "m", s.ModelPath, "Path to the YOLOv8 ONNX model")
	fs.String("labels", s.LabelsPath, "Class label file for models not trained on COCO")
	fs.String("backend", s.Backend, "Inference backend: opencv or onnxruntime")
	fs.String("ort-library", s.LibraryPath, "Path to the ONNX Runtime shared library")
	fs.Bool("show-window", s.ShowWindow, "Display annotated frames in a window")
	fs.StringP("output", "o", s.OutputPath, "Write the annotated video to this file")
	fs.String("frames-dir", s.FramesDir, "Write every annotated frame as a PNG into this directory")
	fs.String("log-level", s.LogLevel, "Log level: debug, info, warn, error")
	fs.String("log-format", s.LogFormat, "Log format: text or json")
	fs.Bool("profile", s.Profile, "Enable the runtime profiler")
}

// Load resolves settings from flags and CROWDWATCH_* environment variables.
//
// Arguments:
//   - fs: The parsed flag set. Explicitly set flags take precedence over the environment.
//
// Returns:
//   - Settings: The resolved and validated settings.
//   - error: An error if binding, decoding or validation fails.
func Load(fs *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Settings{}, errors.Wrap(err, "binding flags")
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, errors.Wrap(err, "decoding settings")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// UseDevice reports whether frames come from a camera instead of a path.
func (s Settings) UseDevice() bool {
	return s.Device >= 0
}

// Validate checks the settings for contradictions.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendOpenCV, BackendONNXRuntime:
	default:
		return errors.Errorf("unsupported backend %q (want %s or %s)", s.Backend, BackendOpenCV, BackendONNXRuntime)
	}

	if !s.UseDevice() && s.VideoPath == "" {
		return errors.New("no input: set --video or --device")
	}
	if s.ModelPath == "" {
		return errors.New("no model: set --model")
	}

	switch s.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("unsupported log format %q", s.LogFormat)
	}
	return nil
}

// InputIsDirectory reports whether VideoPath names a directory of frames.
func (s Settings) InputIsDirectory() bool {
	if s.UseDevice() {
		return false
	}
	info, err := os.Stat(s.VideoPath)
	return err == nil && info.IsDir()
}
