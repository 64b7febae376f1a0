package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/7ipolito/goals-vision/internal/analysis"
	"github.com/7ipolito/goals-vision/internal/logging"
)

// VideoAnalyzer runs an offline analysis of one video file.
type VideoAnalyzer interface {
	AnalyzeVideo(ctx context.Context, videoID, videoPath string) (*analysis.Outcome, error)
}

type Runner struct {
	service      *Service
	repo         Repository
	analyzer     VideoAnalyzer
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(service *Service, repo Repository, analyzer VideoAnalyzer, logger *slog.Logger) *Runner {
	return &Runner{
		service:      service,
		repo:         repo,
		analyzer:     analyzer,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextJob(ctx context.Context) {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}

	if len(jobs) == 0 {
		return
	}

	job := jobs[0]
	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	switch job.Type {
	case JobTypeAnalyze:
		r.processAnalyzeJob(ctx, job)

	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "unknown job type")
	}
}

func (r *Runner) processAnalyzeJob(ctx context.Context, job *Job) {
	if r.analyzer == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "analyzer not configured")
		return
	}

	video, err := r.repo.GetVideo(ctx, job.VideoID)
	if err != nil || video == nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "video not found")
		return
	}

	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, "")
	r.repo.UpdateJobProgress(ctx, job.ID, 10)

	logger := logging.WithVideoID(logging.WithJobID(r.logger, job.ID), video.ID)
	logger.Info("running pose analysis")
	out, err := r.analyzer.AnalyzeVideo(ctx, video.ID, video.Path)
	if err != nil {
		if errors.Is(err, analysis.ErrPoseUnavailable) {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, "pose pipeline not available")
		} else {
			r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, truncateStr(fmt.Sprintf("analysis failed: %v", err), 512))
		}
		logger.Warn("analyze job failed", "error", err)
		return
	}
	r.repo.UpdateJobProgress(ctx, job.ID, 90)

	a := NewAnalysis(video.PlayerID, AnalysisSourceVideo, out.Result, out.Counters)
	a.VideoID = video.ID
	a.JobID = job.ID
	a.ModelVersion = out.ModelVersion

	if err := r.service.RecordAnalysis(ctx, a); err != nil {
		r.repo.UpdateJobStatus(ctx, job.ID, JobStatusFailed, fmt.Sprintf("cannot store analysis: %v", err))
		return
	}

	r.repo.UpdateJobProgress(ctx, job.ID, 100)
	r.repo.UpdateJobStatus(ctx, job.ID, JobStatusCompleted, "")
	logger.Info("analyze job completed",
		"analysis_id", a.ID,
		"status", a.Status,
		"duration", out.PipelineDuration,
	)
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[len(s)-maxLen:]
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	jobs, err := r.repo.ListJobs(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == JobStatusRunning {
			count++
		}
	}
	return count
}
