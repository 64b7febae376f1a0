// Package analysis runs agility analyses: it drives the pose pipeline over a
// video, feeds the resulting pose stream through a motion session, and
// reports the outcome.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/7ipolito/goals-vision/internal/motion"
	"github.com/7ipolito/goals-vision/internal/pipelines"
	"github.com/7ipolito/goals-vision/internal/pose"
)

// ErrPoseUnavailable is returned when the doctor probe reports that the pose
// pipeline cannot run on this machine.
var ErrPoseUnavailable = errors.New("pose pipeline not available")

// Outcome is the result of one analysis together with the metadata needed to
// persist it.
type Outcome struct {
	Result   motion.Result
	Counters motion.Counters

	SchemaVersion   string
	PipelineVersion string
	ModelVersion    string
	FPS             float64
	MalformedFrames int

	// PipelineDuration is how long the pose subprocess ran. Zero for streams.
	PipelineDuration time.Duration
}

// Analyzer runs offline analyses of video files.
type Analyzer struct {
	runner pipelines.Runner
	doctor *pipelines.CachedDoctor
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer. doctor may be nil, in which case the
// capability check is skipped.
func NewAnalyzer(runner pipelines.Runner, doctor *pipelines.CachedDoctor, logger *slog.Logger) *Analyzer {
	return &Analyzer{runner: runner, doctor: doctor, logger: logger}
}

// PoseTrackPath is where the pose track for a video is written.
func (a *Analyzer) PoseTrackPath(videoID string) string {
	return filepath.Join(a.runner.ArtifactsDir(), videoID, "pose.json")
}

// AnalyzeVideo runs the pose pipeline over videoPath and computes the agility
// summary of the resulting track.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, videoID, videoPath string) (*Outcome, error) {
	if a.doctor != nil {
		caps, err := a.doctor.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("doctor probe: %w", err)
		}
		if !caps.HasPose {
			return nil, ErrPoseUnavailable
		}
	}

	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file: %w", err)
	}

	outPath := a.PoseTrackPath(videoID)
	run, err := a.runner.RunPose(ctx, videoPath, outPath)
	if err != nil {
		// The environment may have changed since the last probe.
		if a.doctor != nil {
			a.doctor.Invalidate()
		}
		return nil, fmt.Errorf("pose pipeline: %w", err)
	}
	if !run.IsSuccess() {
		return nil, fmt.Errorf("pose pipeline exited %d: %s", run.ExitCode, run.StderrTail)
	}

	if _, err := a.runner.ValidateOutput(outPath); err != nil {
		return nil, fmt.Errorf("pose output: %w", err)
	}

	track, err := pose.LoadTrack(outPath)
	if err != nil {
		return nil, err
	}

	out, err := AnalyzeStream(ctx, pose.Stream(ctx, track, track))
	if err != nil {
		return nil, err
	}

	out.SchemaVersion = track.SchemaVersion
	out.PipelineVersion = track.PipelineVersion
	out.ModelVersion = track.ModelVersion
	out.FPS = track.FPS
	out.MalformedFrames = track.MalformedFrames
	out.PipelineDuration = run.Duration

	a.logger.Info("video analysed",
		"video_id", videoID,
		"frames", out.Counters.FramesSeen,
		"records", out.Counters.Records,
		"dropped", out.Counters.FramesDropped,
		"malformed", out.MalformedFrames,
		"inconclusive", out.Result.Inconclusive,
		"pipeline_ms", run.Duration.Milliseconds(),
	)

	return out, nil
}

// AnalyzeStream runs a fresh motion session over samples. The first error in
// the sequence aborts the analysis.
func AnalyzeStream(ctx context.Context, samples iter.Seq2[pose.Sample, error], opts ...motion.Option) (*Outcome, error) {
	session := motion.NewSession(opts...)
	if err := session.Start(); err != nil {
		return nil, err
	}

	for s, err := range samples {
		if err != nil {
			return nil, fmt.Errorf("pose stream: %w", err)
		}
		session.Ingest(s)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := session.Stop()
	return &Outcome{
		Result:   res,
		Counters: session.Counters(),
	}, nil
}
