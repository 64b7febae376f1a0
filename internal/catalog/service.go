package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fingerprintSize = 64 * 1024

type CatalogService interface {
	CreatePlayer(ctx context.Context, p *Player) (*Player, error)
	GetPlayer(ctx context.Context, id string) (*Player, error)
	UpdatePlayer(ctx context.Context, id string, u PlayerUpdate) (*Player, error)
	DeletePlayer(ctx context.Context, id string) error
	ListPlayers(ctx context.Context, opts ListOptions) (*PlayerPage, error)
	PlayerStats(ctx context.Context) (*PlayerStats, error)

	RegisterVideo(ctx context.Context, playerID, path, kind string) (*Video, error)
	GetVideo(ctx context.Context, id string) (*Video, error)
	ListVideos(ctx context.Context, playerID string) ([]*Video, error)
	CountVideos(ctx context.Context) (int, error)

	RequestAnalysis(ctx context.Context, videoID string) (*Job, error)
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)

	RecordAnalysis(ctx context.Context, a *Analysis) error
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	ListAnalyses(ctx context.Context, playerID string) ([]*Analysis, error)
	CountAnalyses(ctx context.Context) (int, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreatePlayer(ctx context.Context, p *Player) (*Player, error) {
	player := *p
	player.Name = strings.TrimSpace(player.Name)
	if player.Role == "" {
		player.Role = RolePlayer
	}
	if err := player.Validate(); err != nil {
		return nil, err
	}

	player.ID = NewID()
	player.JoinedAt = time.Now().UTC()

	if err := s.repo.CreatePlayer(ctx, &player); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("player created", "player_id", player.ID, "position", player.Position)
	}
	return &player, nil
}

func (s *Service) GetPlayer(ctx context.Context, id string) (*Player, error) {
	p, err := s.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *Service) UpdatePlayer(ctx context.Context, id string, u PlayerUpdate) (*Player, error) {
	p, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	u.apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePlayer removes a player together with their videos, jobs and
// analyses.
func (s *Service) DeletePlayer(ctx context.Context, id string) error {
	if _, err := s.GetPlayer(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeletePlayer(ctx, id); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("player deleted", "player_id", id)
	}
	return nil
}

func (s *Service) ListPlayers(ctx context.Context, opts ListOptions) (*PlayerPage, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	players, total, err := s.repo.ListPlayers(ctx, opts)
	if err != nil {
		return nil, err
	}
	if players == nil {
		players = []*Player{}
	}

	return &PlayerPage{
		Players: players,
		Total:   total,
		IsNext:  total > (opts.Page-1)*opts.PageSize+len(players),
	}, nil
}

// ListPlayersByPosition lists the players of one position. Other options
// page and sort as in ListPlayers.
func (s *Service) ListPlayersByPosition(ctx context.Context, position string, opts ListOptions) (*PlayerPage, error) {
	if position == "" {
		return nil, fmt.Errorf("%w: position is required", ErrValidation)
	}
	opts.Position = position
	return s.ListPlayers(ctx, opts)
}

// ListPlayersByAgeRange lists players aged between minAge and maxAge,
// inclusive.
func (s *Service) ListPlayersByAgeRange(ctx context.Context, minAge, maxAge int, opts ListOptions) (*PlayerPage, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("%w: invalid age range", ErrValidation)
	}
	opts.MinAge, opts.MaxAge = minAge, maxAge
	return s.ListPlayers(ctx, opts)
}

func (s *Service) PlayerStats(ctx context.Context) (*PlayerStats, error) {
	return s.repo.PlayerStats(ctx)
}

// RegisterVideo records a video file for a player. Registering the same path
// twice for a player returns the existing video.
func (s *Service) RegisterVideo(ctx context.Context, playerID, path, kind string) (*Video, error) {
	if kind == "" {
		kind = VideoKindGingado
	}
	if kind != VideoKindGingado && kind != VideoKindHighlight {
		return nil, fmt.Errorf("%w: kind must be gingado or highlight", ErrValidation)
	}

	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid path: %v", ErrValidation, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: path does not exist", ErrValidation)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory", ErrValidation)
	}
	if !IsVideoFile(absPath) {
		return nil, fmt.Errorf("%w: unsupported video extension %q", ErrValidation, filepath.Ext(absPath))
	}

	existing, err := s.repo.GetVideoByPath(ctx, playerID, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fingerprint, err := computeFingerprint(absPath)
	if err != nil {
		return nil, fmt.Errorf("fingerprint video: %w", err)
	}

	video := &Video{
		ID:          NewID(),
		PlayerID:    playerID,
		Kind:        kind,
		Path:        absPath,
		Filename:    filepath.Base(absPath),
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateVideo(ctx, video); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("video registered", "video_id", video.ID, "player_id", playerID, "kind", kind)
	}
	return video, nil
}

func (s *Service) GetVideo(ctx context.Context, id string) (*Video, error) {
	v, err := s.repo.GetVideo(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return v, nil
}

func (s *Service) ListVideos(ctx context.Context, playerID string) ([]*Video, error) {
	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	return s.repo.ListVideosByPlayer(ctx, playerID)
}

func (s *Service) CountVideos(ctx context.Context) (int, error) {
	return s.repo.CountVideos(ctx)
}

// RequestAnalysis queues an analyze job for a video. A video can have at most
// one pending or running job.
func (s *Service) RequestAnalysis(ctx context.Context, videoID string) (*Job, error) {
	video, err := s.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.ListActiveJobsForVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return active[0], fmt.Errorf("video %s already has job %s: %w", videoID, active[0].ID, ErrConflict)
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeAnalyze,
		Status:    JobStatusPending,
		PlayerID:  video.PlayerID,
		VideoID:   video.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("analyze job created", "job_id", job.ID, "video_id", videoID)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

// RecordAnalysis persists a finished analysis. The player must exist.
func (s *Service) RecordAnalysis(ctx context.Context, a *Analysis) error {
	if _, err := s.GetPlayer(ctx, a.PlayerID); err != nil {
		return err
	}
	if err := s.repo.CreateAnalysis(ctx, a); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Info("analysis recorded",
			"analysis_id", a.ID,
			"player_id", a.PlayerID,
			"source", a.Source,
			"status", a.Status,
		)
	}
	return nil
}

func (s *Service) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	a, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// ListAnalyses returns a player's analyses oldest first.
func (s *Service) ListAnalyses(ctx context.Context, playerID string) ([]*Analysis, error) {
	if _, err := s.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	analyses, err := s.repo.ListAnalysesByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []*Analysis{}
	}
	return analyses, nil
}

func (s *Service) CountAnalyses(ctx context.Context) (int, error) {
	return s.repo.CountAnalyses(ctx)
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	lr := io.LimitReader(f, fingerprintSize)
	if _, err := io.Copy(h, lr); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
