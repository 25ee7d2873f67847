// Package cmd - The crowdwatch command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/crowdwatch/config"
	"github.com/nvr-ai/crowdwatch/detector"
	"github.com/nvr-ai/crowdwatch/models"
	"github.com/nvr-ai/crowdwatch/pipeline"
	"github.com/nvr-ai/crowdwatch/profiler"
	"github.com/nvr-ai/crowdwatch/sink"
	"github.com/nvr-ai/crowdwatch/source"
)

// RootCommand creates the crowdwatch command.
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crowdwatch",
		Short: "Count people and flag vehicles in video with YOLOv8",
		Long: "crowdwatch runs a YOLOv8 model over every frame of a video, overlays the number of\n" +
			"people in view and raises an anomaly banner when a vehicle or fire hydrant appears.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := configureLogger(logrus.StandardLogger(), settings); err != nil {
				return err
			}
			_, err = Run(cmd.Context(), settings, logrus.StandardLogger())
			return err
		},
	}

	config.BindFlags(rootCmd.Flags(), config.Default())
	return rootCmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCommand().ExecuteContext(ctx)
}

func configureLogger(logger *logrus.Logger, settings config.Settings) error {
	level, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logger.SetLevel(level)

	switch settings.LogFormat {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// Run opens the collaborators named by settings and processes the stream.
//
// Arguments:
//   - ctx: Cancelling it stops processing after the current frame.
//   - settings: The resolved settings.
//   - log: The logger.
//
// Returns:
//   - pipeline.Summary: What was processed.
//   - error: A *pipeline.Failure when the source cannot be opened or processing fails.
func Run(ctx context.Context, settings config.Settings, log logrus.FieldLogger) (pipeline.Summary, error) {
	src, err := source.Open(settings, log)
	if err != nil {
		return pipeline.Summary{}, pipeline.SourceUnavailable(inputName(settings), err)
	}
	defer src.Close()

	det, err := newDetector(settings, log)
	if err != nil {
		return pipeline.Summary{}, pipeline.Unexpected(err)
	}
	defer det.Close()

	out, err := newSink(settings, src)
	if err != nil {
		return pipeline.Summary{}, pipeline.Unexpected(err)
	}
	defer out.Close()

	var rp *profiler.RuntimeProfiler
	if settings.Profile {
		rp = profiler.NewRuntimeProfiler(profiler.ProfilingOptions{Logger: log})
	}

	p, err := pipeline.New(pipeline.Config{
		Source:   src,
		Detector: det,
		Sink:     out,
		Profiler: rp,
		Logger:   log.WithField("input", inputName(settings)),
	})
	if err != nil {
		return pipeline.Summary{}, pipeline.Unexpected(err)
	}
	return p.Run(ctx)
}

func newDetector(settings config.Settings, log logrus.FieldLogger) (detector.Detector, error) {
	cfg := detector.DefaultConfig()
	cfg.Backend = detector.Backend(settings.Backend)
	cfg.ModelPath = settings.ModelPath
	cfg.LibraryPath = settings.LibraryPath
	cfg.Logger = log

	if settings.LabelsPath != "" {
		labels, err := models.LoadLabels(settings.LabelsPath)
		if err != nil {
			return nil, err
		}
		cfg.Classes = &labels
	}

	det, err := detector.New(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "loading detector")
	}
	return det, nil
}

// fpsReporter is implemented by sources that know their frame rate.
type fpsReporter interface {
	FPS() float64
}

func newSink(settings config.Settings, src source.Source) (sink.Sink, error) {
	var sinks []sink.Sink
	if settings.ShowWindow {
		sinks = append(sinks, sink.NewWindow(config.DefaultWindowTitle))
	}
	if settings.OutputPath != "" {
		var fps float64
		if r, ok := src.(fpsReporter); ok {
			fps = r.FPS()
		}
		sinks = append(sinks, sink.NewWriter(settings.OutputPath, fps))
	}
	if settings.FramesDir != "" {
		frames, err := sink.NewFrameDir(settings.FramesDir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, frames)
	}
	if len(sinks) == 0 {
		return &sink.Discard{}, nil
	}
	return sink.NewMulti(sinks...), nil
}

func inputName(settings config.Settings) string {
	if settings.UseDevice() {
		return fmt.Sprintf("device %d", settings.Device)
	}
	return settings.VideoPath
}
