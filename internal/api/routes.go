package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/7ipolito/goals-vision/internal/card"
	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/export"
)

const (
	jobsListLimit   = 50
	scoutingMaxScan = 20 // pages of catalog players
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r, _ := newRouter(cfg)
	return r
}

func newRouter(cfg ServerConfig) (*chi.Mux, *liveHandler) {
	r := chi.NewRouter()
	live := newLiveHandler(cfg)

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist(cfg.AllowedOrigins...))

	r.Get("/health", healthHandler(cfg))
	r.Get("/status", statusHandler(cfg, live))

	r.Route("/players", func(r chi.Router) {
		r.Get("/", listPlayersHandler(cfg))
		r.Post("/", createPlayerHandler(cfg))
		r.Get("/stats", playerStatsHandler(cfg))
		r.Get("/{id}", getPlayerHandler(cfg))
		r.Patch("/{id}", updatePlayerHandler(cfg))
		r.Delete("/{id}", deletePlayerHandler(cfg))
		r.Get("/{id}/videos", listVideosHandler(cfg))
		r.Post("/{id}/videos", registerVideoHandler(cfg))
		r.Get("/{id}/analyses", listAnalysesHandler(cfg))
		r.Get("/{id}/card", playerCardHandler(cfg))
		r.Get("/{id}/chart", playerChartHandler(cfg))
		r.Post("/{id}/export", exportPlayerHandler(cfg))
	})

	r.Post("/videos/{id}/analyze", analyzeVideoHandler(cfg))
	r.Get("/analyses/{id}", getAnalysisHandler(cfg))
	r.Get("/jobs", listJobsHandler(cfg))
	r.Get("/jobs/{id}", getJobHandler(cfg))
	r.Post("/scouting/rank", scoutingRankHandler(cfg))
	r.Get("/ws/analyze", live.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())
		r.Get("/playback/video", playbackHandler(cfg))
		r.Head("/playback/video", playbackHandler(cfg))
	})

	return r, live
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig, live *liveHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stats, _ := cfg.CatalogService.PlayerStats(ctx)
		videosCount, _ := cfg.CatalogService.CountVideos(ctx)
		analysesCount, _ := cfg.CatalogService.CountAnalyses(ctx)
		jobs, _ := cfg.CatalogService.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == catalog.JobStatusRunning {
				state = "analyzing"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == catalog.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			VideosCount:   videosCount,
			AnalysesCount: analysesCount,
			JobsRunning:   jobsRunning,
			LiveSessions:  live.Active(),
			ActiveJob:     activeJob,
		}
		if stats != nil {
			resp.PlayersCount = stats.Total
		}

		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Pipelines = &PipelineStatusResponse{
					HasPose:   caps.HasPose,
					HasVideo:  caps.HasVideo,
					Missing:   caps.Missing,
					DepsAvail: caps.Summary.Available,
					DepsTotal: caps.Summary.Total,
				}
				if !caps.ProbedAt.IsZero() {
					resp.Pipelines.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listPlayersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := catalog.ListOptions{
			Search:   q.Get("search"),
			Sort:     q.Get("sort"),
			Position: q.Get("position"),
			Role:     q.Get("role"),
		}

		ints := []struct {
			name string
			dst  *int
		}{
			{"min_age", &opts.MinAge},
			{"max_age", &opts.MaxAge},
			{"page", &opts.Page},
			{"page_size", &opts.PageSize},
		}
		for _, p := range ints {
			v := q.Get(p.name)
			if v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, p.name+" must be an integer", "BAD_REQUEST")
				return
			}
			*p.dst = n
		}

		page, err := cfg.CatalogService.ListPlayers(r.Context(), opts)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp := PlayersResponse{
			Players: make([]PlayerResponse, len(page.Players)),
			Total:   page.Total,
			IsNext:  page.IsNext,
		}
		for i, p := range page.Players {
			resp.Players[i] = PlayerToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createPlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePlayerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		player, err := cfg.CatalogService.CreatePlayer(r.Context(), &catalog.Player{
			Name:         req.Name,
			Age:          req.Age,
			DominantFoot: req.DominantFoot,
			Position:     req.Position,
			Picture:      req.Picture,
			Role:         req.Role,
		})
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusCreated, PlayerToResponse(player))
	}
}

func playerStatsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := cfg.CatalogService.PlayerStats(r.Context())
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, stats)
	}
}

func getPlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := cfg.CatalogService.GetPlayer(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, PlayerToResponse(player))
	}
}

func updatePlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req catalog.PlayerUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		player, err := cfg.CatalogService.UpdatePlayer(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, PlayerToResponse(player))
	}
}

func deletePlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.CatalogService.DeletePlayer(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listVideosHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videos, err := cfg.CatalogService.ListVideos(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp := VideosResponse{Videos: make([]VideoResponse, len(videos))}
		for i, v := range videos {
			resp.Videos[i] = VideoToResponse(v)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func registerVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		video, err := cfg.CatalogService.RegisterVideo(r.Context(), chi.URLParam(r, "id"), req.Path, req.Kind)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusCreated, VideoToResponse(video))
	}
}

func listAnalysesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analyses, err := cfg.CatalogService.ListAnalyses(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp := AnalysesResponse{Analyses: make([]AnalysisResponse, len(analyses))}
		for i, a := range analyses {
			resp.Analyses[i] = AnalysisToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func playerCardHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		player, err := cfg.CatalogService.GetPlayer(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		analyses, err := cfg.CatalogService.ListAnalyses(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusOK, card.Build(player, analyses))
	}
}

func playerChartHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		player, err := cfg.CatalogService.GetPlayer(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		analyses, err := cfg.CatalogService.ListAnalyses(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		var buf bytes.Buffer
		if err := export.RenderProgressChart(&buf, player, analyses); err != nil {
			writeServiceError(w, cfg.Logger, fmt.Errorf("render chart: %w", err))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(buf.Bytes())
	}
}

func exportPlayerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		ctx := r.Context()
		id := chi.URLParam(r, "id")
		player, err := cfg.CatalogService.GetPlayer(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		analyses, err := cfg.CatalogService.ListAnalyses(ctx, id)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		resp, err := export.Export(req, player, analyses)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		cfg.Logger.Info("player report exported", "player_id", id, "files", len(resp.OutputPaths))
		WriteJSON(w, http.StatusOK, resp)
	}
}

func analyzeVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.CatalogService.RequestAnalysis(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, AnalyzeResponse{JobID: job.ID})
	}
}

func getAnalysisHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := cfg.CatalogService.GetAnalysis(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, AnalysisToResponse(a))
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.CatalogService.ListJobs(r.Context(), jobsListLimit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.CatalogService.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

// scoutingRankHandler ranks every catalog player against a coach's criteria.
func scoutingRankHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoutingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if err := req.Validate(); err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}
		if req.Limit < 0 {
			WriteError(w, http.StatusBadRequest, "limit must not be negative", "BAD_REQUEST")
			return
		}

		ctx := r.Context()
		var cands []card.Candidate
		opts := catalog.ListOptions{Role: catalog.RolePlayer, PageSize: 100, Page: 1}
		for ; opts.Page <= scoutingMaxScan; opts.Page++ {
			page, err := cfg.CatalogService.ListPlayers(ctx, opts)
			if err != nil {
				writeServiceError(w, cfg.Logger, err)
				return
			}
			for _, p := range page.Players {
				analyses, err := cfg.CatalogService.ListAnalyses(ctx, p.ID)
				if err != nil && !errors.Is(err, catalog.ErrNotFound) {
					writeServiceError(w, cfg.Logger, err)
					return
				}
				cands = append(cands, card.CandidateFromCard(p, card.Build(p, analyses)))
			}
			if !page.IsNext {
				break
			}
		}

		ranked := card.Rank(cands, req.Criteria)
		if req.Limit > 0 && len(ranked) > req.Limit {
			ranked = ranked[:req.Limit]
		}
		WriteJSON(w, http.StatusOK, ScoutingResponse{Candidates: ranked})
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		videoID := r.URL.Query().Get("video_id")
		if videoID == "" {
			WriteError(w, http.StatusBadRequest, "video_id is required", "BAD_REQUEST")
			return
		}

		video, err := cfg.CatalogService.GetVideo(r.Context(), videoID)
		if err != nil {
			writeServiceError(w, cfg.Logger, err)
			return
		}

		if _, err := os.Stat(video.Path); err != nil {
			WriteError(w, http.StatusNotFound,
				"video file is no longer available at its registered path",
				"VIDEO_MISSING")
			return
		}

		if err := cfg.PlaybackServer.ServeFile(w, r, video.Path); err != nil {
			cfg.Logger.Error("playback error", "error", err, "video_id", videoID)
		}
	}
}
