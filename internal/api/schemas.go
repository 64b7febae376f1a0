package api

import (
	"time"

	"github.com/7ipolito/goals-vision/internal/card"
	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/motion"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string                  `json:"state"`
	LastError     string                  `json:"last_error,omitempty"`
	PlayersCount  int                     `json:"players_count"`
	VideosCount   int                     `json:"videos_count"`
	AnalysesCount int                     `json:"analyses_count"`
	JobsRunning   int                     `json:"jobs_running"`
	LiveSessions  int                     `json:"live_sessions"`
	ActiveJob     *JobResponse            `json:"active_job,omitempty"`
	Pipelines     *PipelineStatusResponse `json:"pipelines,omitempty"`
}

type PipelineStatusResponse struct {
	HasPose     bool     `json:"has_pose"`
	HasVideo    bool     `json:"has_video"`
	Missing     []string `json:"missing,omitempty"`
	LastProbeAt string   `json:"last_probe_at,omitempty"`
	DepsAvail   int      `json:"deps_available"`
	DepsTotal   int      `json:"deps_total"`
}

type CreatePlayerRequest struct {
	Name         string `json:"name"`
	Age          int    `json:"age"`
	DominantFoot string `json:"dominant_foot"`
	Position     string `json:"position"`
	Picture      string `json:"picture,omitempty"`
	Role         string `json:"role,omitempty"`
}

type PlayerResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	DominantFoot string `json:"dominant_foot"`
	Position     string `json:"position"`
	Picture      string `json:"picture,omitempty"`
	Role         string `json:"role"`
	JoinedAt     string `json:"joined_at"`
}

type PlayersResponse struct {
	Players []PlayerResponse `json:"players"`
	Total   int              `json:"total"`
	IsNext  bool             `json:"is_next"`
}

type RegisterVideoRequest struct {
	Path string `json:"path"`
	Kind string `json:"kind,omitempty"`
}

type VideoResponse struct {
	ID          string `json:"id"`
	PlayerID    string `json:"player_id"`
	Kind        string `json:"kind"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
}

type VideosResponse struct {
	Videos []VideoResponse `json:"videos"`
}

type AnalyzeResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	PlayerID  string `json:"player_id,omitempty"`
	VideoID   string `json:"video_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type AnalysisResponse struct {
	ID           string                 `json:"id"`
	PlayerID     string                 `json:"player_id"`
	VideoID      string                 `json:"video_id,omitempty"`
	JobID        string                 `json:"job_id,omitempty"`
	Source       string                 `json:"source"`
	Status       string                 `json:"status"`
	Summary      *motion.AgilitySummary `json:"summary,omitempty"`
	Counters     motion.Counters        `json:"counters"`
	ModelVersion string                 `json:"model_version,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

type AnalysesResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
}

type ScoutingRequest struct {
	card.Criteria
	Limit int `json:"limit,omitempty"`
}

type ScoutingResponse struct {
	Candidates []card.Ranked `json:"candidates"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func PlayerToResponse(p *catalog.Player) PlayerResponse {
	return PlayerResponse{
		ID:           p.ID,
		Name:         p.Name,
		Age:          p.Age,
		DominantFoot: p.DominantFoot,
		Position:     p.Position,
		Picture:      p.Picture,
		Role:         p.Role,
		JoinedAt:     p.JoinedAt.Format(time.RFC3339),
	}
}

func VideoToResponse(v *catalog.Video) VideoResponse {
	return VideoResponse{
		ID:          v.ID,
		PlayerID:    v.PlayerID,
		Kind:        v.Kind,
		Filename:    v.Filename,
		Size:        v.Size,
		Fingerprint: v.Fingerprint,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		PlayerID:  j.PlayerID,
		VideoID:   j.VideoID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func AnalysisToResponse(a *catalog.Analysis) AnalysisResponse {
	resp := AnalysisResponse{
		ID:           a.ID,
		PlayerID:     a.PlayerID,
		VideoID:      a.VideoID,
		JobID:        a.JobID,
		Source:       a.Source,
		Status:       a.Status,
		Counters:     a.Counters,
		ModelVersion: a.ModelVersion,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if a.Conclusive() {
		summary := a.AgilitySummary
		resp.Summary = &summary
	}
	return resp
}
