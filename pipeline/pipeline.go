// Package pipeline - The sequential per-frame loop: read, detect, classify, render, show.
package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/crowdwatch/classifier"
	"github.com/nvr-ai/crowdwatch/config"
	"github.com/nvr-ai/crowdwatch/detector"
	"github.com/nvr-ai/crowdwatch/profiler"
	"github.com/nvr-ai/crowdwatch/render"
	"github.com/nvr-ai/crowdwatch/sink"
	"github.com/nvr-ai/crowdwatch/source"
)

// StopReason says why Run returned without error.
type StopReason string

const (
	// StopEndOfStream means the source ran out of frames.
	StopEndOfStream StopReason = "end of stream"
	// StopQuitRequested means the sink asked to stop.
	StopQuitRequested StopReason = "quit requested"
	// StopCancelled means the context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// Summary describes a finished run.
type Summary struct {
	// Frames is the number of frames processed and shown.
	Frames int
	// Skipped is the number of empty frames read from the source.
	Skipped int
	// AnomalousFrames is the number of frames with the anomaly flag raised.
	AnomalousFrames int
	// MaxPersons is the highest per-frame person count.
	MaxPersons int
	Reason     StopReason
	Elapsed    time.Duration
}

// Config holds the pipeline's collaborators. Source, Detector and Sink are required and stay
// owned by the caller.
type Config struct {
	Source   source.Source
	Detector detector.Detector
	Sink     sink.Sink
	// Classifier defaults to the configured threshold and anomalous classes.
	Classifier *classifier.Classifier
	// Renderer defaults to render.NewRenderer().
	Renderer *render.Renderer
	// Profiler is optional.
	Profiler *profiler.RuntimeProfiler
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Pipeline processes frames one at a time, in stream order.
type Pipeline struct {
	source     source.Source
	detector   detector.Detector
	sink       sink.Sink
	classifier *classifier.Classifier
	renderer   *render.Renderer
	profiler   *profiler.RuntimeProfiler
	log        logrus.FieldLogger
}

// New creates a pipeline.
//
// Arguments:
//   - cfg: The collaborators.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: An error if a required collaborator is missing.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Source == nil:
		return nil, errors.New("pipeline needs a source")
	case cfg.Detector == nil:
		return nil, errors.New("pipeline needs a detector")
	case cfg.Sink == nil:
		return nil, errors.New("pipeline needs a sink")
	}

	p := &Pipeline{
		source:     cfg.Source,
		detector:   cfg.Detector,
		sink:       cfg.Sink,
		classifier: cfg.Classifier,
		renderer:   cfg.Renderer,
		profiler:   cfg.Profiler,
		log:        cfg.Logger,
	}
	if p.classifier == nil {
		p.classifier = classifier.New(config.ConfidenceThreshold, config.AnomalousClasses()...)
	}
	if p.renderer == nil {
		p.renderer = render.NewRenderer()
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	return p, nil
}

// Run processes frames until the source ends, the sink requests a stop or ctx is cancelled. All
// three return a nil error. Any detector or sink error, or a panic inside the loop, ends the run
// with a *Failure of kind KindUnexpected.
func (p *Pipeline) Run(ctx context.Context) (summary Summary, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = Unexpected(errors.Errorf("panic: %v", r))
		}
		summary.Elapsed = time.Since(start)

		entry := p.log.WithFields(logrus.Fields{
			"frames":    summary.Frames,
			"skipped":   summary.Skipped,
			"anomalous": summary.AnomalousFrames,
			"elapsed":   summary.Elapsed.Truncate(time.Millisecond),
		})
		if err != nil {
			entry.WithError(err).Error("processing stopped")
			return
		}
		entry.WithField("reason", summary.Reason).Info("processing finished")
	}()

	if p.profiler != nil {
		p.profiler.Start(ctx)
		defer p.profiler.Stop()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	p.log.Info("processing started")
	for {
		if ctx.Err() != nil {
			summary.Reason = StopCancelled
			return summary, nil
		}

		if !p.source.Read(&frame) {
			summary.Reason = StopEndOfStream
			return summary, nil
		}
		if frame.Empty() {
			summary.Skipped++
			continue
		}

		result, err := p.step(&frame)
		if err != nil {
			return summary, Unexpected(err)
		}

		summary.Frames++
		summary.MaxPersons = max(summary.MaxPersons, result.PersonCount)
		if result.AnomalyDetected {
			summary.AnomalousFrames++
		}

		if p.profiler != nil {
			p.profiler.RecordMetric(profiler.MetricPersons, float64(result.PersonCount))
			p.profiler.RecordMetric(profiler.MetricAnomaly, boolMetric(result.AnomalyDetected))
		}

		p.log.WithFields(logrus.Fields{
			"frame":   summary.Frames,
			"persons": result.PersonCount,
			"anomaly": result.AnomalyDetected,
		}).Debug("frame processed")

		if p.sink.StopRequested() {
			summary.Reason = StopQuitRequested
			return summary, nil
		}
	}
}

// step processes and shows one frame. Failed frames are still timed.
func (p *Pipeline) step(frame *gocv.Mat) (classifier.FrameResult, error) {
	if p.profiler != nil {
		defer p.profiler.StartOperation(profiler.OperationFrame)()
	}

	result, err := p.Process(frame)
	if err != nil {
		return result, err
	}
	if err := p.sink.Show(*frame); err != nil {
		return result, errors.Wrap(err, "showing frame")
	}
	return result, nil
}

// Process runs detection and classification on frame and draws the result onto it.
//
// Arguments:
//   - frame: The frame to analyse. It is annotated in place.
//
// Returns:
//   - classifier.FrameResult: The frame's classification.
//   - error: An error if detection fails.
func (p *Pipeline) Process(frame *gocv.Mat) (classifier.FrameResult, error) {
	var done func()
	if p.profiler != nil {
		done = p.profiler.StartOperation(profiler.OperationDetect)
	}
	detections, err := p.detector.Detect(*frame)
	if done != nil {
		done()
	}
	if err != nil {
		return classifier.FrameResult{}, errors.Wrap(err, "detecting objects")
	}

	result := p.classifier.Classify(detections)
	p.renderer.Render(render.NewMatCanvas(frame), result)
	return result, nil
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
