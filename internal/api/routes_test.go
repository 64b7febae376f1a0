package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7ipolito/goals-vision/internal/analysis"
	"github.com/7ipolito/goals-vision/internal/catalog"
	"github.com/7ipolito/goals-vision/internal/motion"
	"github.com/7ipolito/goals-vision/internal/pipelines"
	"github.com/7ipolito/goals-vision/internal/pose"
)

func TestStatusHandler_NilDoctor(t *testing.T) {
	cfg := testServerConfig(nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	statusHandler(cfg, newLiveHandler(cfg)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if _, ok := body["pipelines"]; ok {
		t.Fatal("pipelines should be omitted when doctor is nil")
	}
	if got := body["state"]; got != "idle" {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestStatusHandler_EmptyCache(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doctor := pipelines.NewCachedDoctor(&fakeDoctorPipelineRunner{}, logger)
	cfg := testServerConfig(doctor)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	statusHandler(cfg, newLiveHandler(cfg)).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if _, ok := body["pipelines"]; ok {
		t.Fatal("pipelines should be omitted when cache is empty")
	}
}

func TestStatusHandler_WithCachedCaps(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doctor := pipelines.NewCachedDoctor(&fakeDoctorPipelineRunner{
		caps: &pipelines.Capabilities{
			HasPose:  true,
			HasVideo: true,
			ProbedAt: time.Now(),
			Summary:  pipelines.SummaryInfo{Available: 4, Total: 6},
		},
	}, logger)

	if _, err := doctor.Refresh(context.Background()); err != nil {
		t.Fatalf("doctor.Refresh() error = %v", err)
	}

	cfg := testServerConfig(doctor)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	statusHandler(cfg, newLiveHandler(cfg)).ServeHTTP(rr, req)

	body := decodeJSONBody(t, rr)
	pipelinesMap, ok := body["pipelines"].(map[string]interface{})
	if !ok {
		t.Fatal("pipelines missing from response")
	}

	if got, ok := pipelinesMap["has_pose"].(bool); !ok || !got {
		t.Fatalf("pipelines.has_pose = %v, want true", pipelinesMap["has_pose"])
	}
	if got := pipelinesMap["deps_total"]; got != float64(6) {
		t.Fatalf("pipelines.deps_total = %v, want 6", got)
	}
	if _, ok := pipelinesMap["last_probe_at"]; !ok {
		t.Fatal("last_probe_at missing")
	}
}

func TestStatusHandler_ZeroProbedAt(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	doctor := pipelines.NewCachedDoctor(&fakeDoctorPipelineRunner{
		caps: &pipelines.Capabilities{
			HasPose: true,
			Summary: pipelines.SummaryInfo{Available: 3, Total: 5},
		},
	}, logger)

	if _, err := doctor.Refresh(context.Background()); err != nil {
		t.Fatalf("doctor.Refresh() error = %v", err)
	}

	cfg := testServerConfig(doctor)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)

	statusHandler(cfg, newLiveHandler(cfg)).ServeHTTP(rr, req)

	body := decodeJSONBody(t, rr)
	pipelinesMap, ok := body["pipelines"].(map[string]interface{})
	if !ok {
		t.Fatal("pipelines missing from response")
	}

	if _, ok := pipelinesMap["last_probe_at"]; ok {
		t.Fatal("last_probe_at should be omitted when ProbedAt is zero")
	}
}

func TestStatusHandler_RunningAndFailedJobs(t *testing.T) {
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	svc.jobs = []*catalog.Job{
		{ID: "j2", Type: catalog.JobTypeAnalyze, Status: catalog.JobStatusRunning, Progress: 40},
		{ID: "j1", Type: catalog.JobTypeAnalyze, Status: catalog.JobStatusFailed, Error: "pose exited 1"},
	}

	rr := httptest.NewRecorder()
	statusHandler(cfg, newLiveHandler(cfg)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "analyzing", resp.State)
	assert.Equal(t, 1, resp.JobsRunning)
	assert.Equal(t, "pose exited 1", resp.LastError)
	require.NotNil(t, resp.ActiveJob)
	assert.Equal(t, "j2", resp.ActiveJob.ID)
}

func TestHealthHandler(t *testing.T) {
	cfg := testServerConfig(nil)
	cfg.Version = "1.2.3"

	rr := httptest.NewRecorder()
	healthHandler(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "test-device", resp.DeviceID)
	assert.GreaterOrEqual(t, resp.UptimeS, int64(10))
}

func TestPlayersRoutes_CreateGetList(t *testing.T) {
	cfg := testServerConfig(nil)
	router := NewRouter(cfg)

	body := `{"name":"Vini","age":17,"dominant_foot":"right","position":"forward"}`
	rr := doRequest(router, http.MethodPost, "/players", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created PlayerResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, catalog.RolePlayer, created.Role)

	rr = doRequest(router, http.MethodGet, "/players/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, http.MethodGet, "/players?position=forward", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list PlayersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestPlayersRoutes_ErrorMapping(t *testing.T) {
	cfg := testServerConfig(nil)
	router := NewRouter(cfg)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown player", http.MethodGet, "/players/missing", "", http.StatusNotFound, "NOT_FOUND"},
		{"invalid profile", http.MethodPost, "/players", `{"name":"","age":17,"dominant_foot":"right","position":"forward"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed body", http.MethodPost, "/players", `{`, http.StatusBadRequest, "BAD_REQUEST"},
		{"non integer page", http.MethodGet, "/players?page=x", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"duplicate analysis request", http.MethodPost, "/videos/busy/analyze", "", http.StatusConflict, "CONFLICT"},
		{"video path missing", http.MethodPost, "/players/p1/videos", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestAnalyzeVideo_Accepted(t *testing.T) {
	cfg := testServerConfig(nil)
	router := NewRouter(cfg)

	rr := doRequest(router, http.MethodPost, "/videos/v1/analyze", "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)

	rr = doRequest(router, http.MethodGet, "/jobs/"+resp.JobID, "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestPlayerCard(t *testing.T) {
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	p := svc.addPlayer("Rodrygo", catalog.PositionForward)
	svc.addAnalysis(p.ID, 70, 80, 0.4)
	svc.addAnalysis(p.ID, 80, 90, 0.5)

	rr := doRequest(NewRouter(cfg), http.MethodGet, "/players/"+p.ID+"/card", "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decodeJSONBody(t, rr)
	assert.Equal(t, p.ID, body["player_id"])
	assert.Equal(t, float64(2), body["analyses"])
	assert.Equal(t, false, body["unrated"])
}

func TestPlayerChart(t *testing.T) {
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	p := svc.addPlayer("Endrick", catalog.PositionForward)
	svc.addAnalysis(p.ID, 60, 70, 0.3)

	rr := doRequest(NewRouter(cfg), http.MethodGet, "/players/"+p.ID+"/chart", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Endrick")
}

func TestScoutingRank(t *testing.T) {
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	fast := svc.addPlayer("Fast", catalog.PositionForward)
	svc.addAnalysis(fast.ID, 90, 80, 0.5)
	slow := svc.addPlayer("Slow", catalog.PositionForward)
	svc.addAnalysis(slow.ID, 40, 50, 0.1)
	keeper := svc.addPlayer("Keeper", catalog.PositionGoalkeeper)
	svc.addAnalysis(keeper.ID, 99, 99, 0.5)

	router := NewRouter(cfg)
	body := `{"positions":["forward"],"weights":{"speed":80,"dribbling":50,"physical":0}}`
	rr := doRequest(router, http.MethodPost, "/scouting/rank", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Candidates []struct {
			Name          string `json:"name"`
			Compatibility int    `json:"compatibility"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 2)
	assert.Equal(t, "Fast", resp.Candidates[0].Name)
	assert.Equal(t, "Slow", resp.Candidates[1].Name)
	assert.Greater(t, resp.Candidates[0].Compatibility, resp.Candidates[1].Compatibility)

	rr = doRequest(router, http.MethodPost, "/scouting/rank", `{"positions":["forward"],"limit":1}`)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Candidates, 1)

	rr = doRequest(router, http.MethodPost, "/scouting/rank", `{"positions":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLiveAnalyze_PersistsForPlayer(t *testing.T) {
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	p := svc.addPlayer("Live", catalog.PositionMidfielder)

	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze?player_id=" + p.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg analysis.LiveMessage) analysis.LiveReply {
		t.Helper()
		require.NoError(t, conn.WriteJSON(msg))
		var reply analysis.LiveReply
		require.NoError(t, conn.ReadJSON(&reply))
		return reply
	}

	reply := send(analysis.LiveMessage{Type: analysis.MsgStart})
	require.Equal(t, analysis.MsgStarted, reply.Type)

	for i := 0; i < 12; i++ {
		ts := int64(i) * 100
		reply = send(analysis.LiveMessage{
			Type:        analysis.MsgFrame,
			TimestampMs: &ts,
			Landmarks:   liveLandmarks(0.5 + 0.1*float64(i%2)),
		})
		require.Equal(t, analysis.MsgAck, reply.Type)
	}

	reply = send(analysis.LiveMessage{Type: analysis.MsgStop})
	require.Equal(t, analysis.MsgResult, reply.Type)
	require.NotNil(t, reply.Summary)
	require.NotEmpty(t, reply.AnalysisID)

	again := send(analysis.LiveMessage{Type: analysis.MsgStop})
	assert.Equal(t, reply.AnalysisID, again.AnalysisID)

	// Start without a reset is rejected and must not lead to a second row.
	rejected := send(analysis.LiveMessage{Type: analysis.MsgStart})
	require.Equal(t, analysis.MsgError, rejected.Type)
	afterRejected := send(analysis.LiveMessage{Type: analysis.MsgStop})
	assert.Equal(t, reply.AnalysisID, afterRejected.AnalysisID)

	stored, err := svc.ListAnalyses(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, catalog.AnalysisSourceLive, stored[0].Source)
}

func TestLiveAnalyze_InvalidMessage(t *testing.T) {
	cfg := testServerConfig(nil)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/analyze", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var reply analysis.LiveReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, analysis.MsgError, reply.Type)
}

func TestLiveAnalyze_UnknownPlayer(t *testing.T) {
	cfg := testServerConfig(nil)
	srv := httptest.NewServer(NewRouter(cfg))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/analyze?player_id=nope", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func liveLandmarks(hipX float64) []pose.Landmark {
	lms := make([]pose.Landmark, pose.NumLandmarks)
	lms[pose.LeftHip] = pose.Landmark{X: hipX - 0.05, Y: 0.6, Visibility: 0.95}
	lms[pose.RightHip] = pose.Landmark{X: hipX + 0.05, Y: 0.6, Visibility: 0.95}
	lms[pose.LeftShoulder] = pose.Landmark{X: 0.42, Y: 0.3, Visibility: 0.95}
	lms[pose.RightShoulder] = pose.Landmark{X: 0.58, Y: 0.3, Visibility: 0.95}
	return lms
}

func testServerConfig(doctor *pipelines.CachedDoctor) ServerConfig {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return ServerConfig{
		CatalogService: newFakeService(),
		PlaybackServer: &fakePlayback{},
		Doctor:         doctor,
		Logger:         logger,
		StartTime:      time.Now().Add(-10 * time.Second),
		DeviceID:       "test-device",
	}
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

// fakeService is an in-memory catalog.CatalogService.
type fakeService struct {
	mu       sync.Mutex
	players  map[string]*catalog.Player
	order    []string
	videos   map[string]*catalog.Video
	jobs     []*catalog.Job
	analyses []*catalog.Analysis
}

func newFakeService() *fakeService {
	return &fakeService{
		players: make(map[string]*catalog.Player),
		videos:  make(map[string]*catalog.Video),
	}
}

func (f *fakeService) addPlayer(name, position string) *catalog.Player {
	p, err := f.CreatePlayer(context.Background(), &catalog.Player{
		Name: name, Age: 18, DominantFoot: catalog.FootRight, Position: position,
	})
	if err != nil {
		panic(err)
	}
	return p
}

func (f *fakeService) addAnalysis(playerID string, agility, coordination, avgSpeed float64) {
	a := catalog.NewAnalysis(playerID, catalog.AnalysisSourceVideo, motion.Result{
		Summary: motion.AgilitySummary{
			LateralMovementCount: 12,
			AgilityScore:         agility,
			CoordinationScore:    coordination,
			AverageLateralSpeed:  avgSpeed,
			TotalDurationSeconds: 3,
		},
		Records: 30,
	}, motion.Counters{FramesSeen: 30})
	f.RecordAnalysis(context.Background(), a)
}

func (f *fakeService) CreatePlayer(ctx context.Context, p *catalog.Player) (*catalog.Player, error) {
	player := *p
	if player.Role == "" {
		player.Role = catalog.RolePlayer
	}
	if err := player.Validate(); err != nil {
		return nil, err
	}
	player.ID = catalog.NewID()
	player.JoinedAt = time.Now().UTC()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.players[player.ID] = &player
	f.order = append(f.order, player.ID)
	return &player, nil
}

func (f *fakeService) GetPlayer(ctx context.Context, id string) (*catalog.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (f *fakeService) UpdatePlayer(ctx context.Context, id string, u catalog.PlayerUpdate) (*catalog.Player, error) {
	return f.GetPlayer(ctx, id)
}

func (f *fakeService) DeletePlayer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.players, id)
	return nil
}

func (f *fakeService) ListPlayers(ctx context.Context, opts catalog.ListOptions) (*catalog.PlayerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	page := &catalog.PlayerPage{}
	for _, id := range f.order {
		p, ok := f.players[id]
		if !ok {
			continue
		}
		if opts.Position != "" && p.Position != opts.Position {
			continue
		}
		if opts.Role != "" && p.Role != opts.Role {
			continue
		}
		page.Players = append(page.Players, p)
	}
	page.Total = len(page.Players)
	return page, nil
}

func (f *fakeService) PlayerStats(ctx context.Context) (*catalog.PlayerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &catalog.PlayerStats{Total: len(f.players)}, nil
}

func (f *fakeService) RegisterVideo(ctx context.Context, playerID, path, kind string) (*catalog.Video, error) {
	if _, err := f.GetPlayer(ctx, playerID); err != nil {
		return nil, err
	}
	v := &catalog.Video{ID: catalog.NewID(), PlayerID: playerID, Path: path, Kind: kind, CreatedAt: time.Now()}
	f.mu.Lock()
	f.videos[v.ID] = v
	f.mu.Unlock()
	return v, nil
}

func (f *fakeService) GetVideo(ctx context.Context, id string) (*catalog.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", id, catalog.ErrNotFound)
	}
	return v, nil
}

func (f *fakeService) ListVideos(ctx context.Context, playerID string) ([]*catalog.Video, error) {
	return []*catalog.Video{}, nil
}

func (f *fakeService) CountVideos(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.videos), nil
}

func (f *fakeService) RequestAnalysis(ctx context.Context, videoID string) (*catalog.Job, error) {
	if videoID == "busy" {
		return nil, fmt.Errorf("video %s already queued: %w", videoID, catalog.ErrConflict)
	}
	j := &catalog.Job{
		ID:        catalog.NewID(),
		Type:      catalog.JobTypeAnalyze,
		Status:    catalog.JobStatusPending,
		VideoID:   videoID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	f.mu.Lock()
	f.jobs = append(f.jobs, j)
	f.mu.Unlock()
	return j, nil
}

func (f *fakeService) GetJob(ctx context.Context, id string) (*catalog.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeService) ListJobs(ctx context.Context, limit int) ([]*catalog.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs, nil
}

func (f *fakeService) RecordAnalysis(ctx context.Context, a *catalog.Analysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses = append(f.analyses, a)
	return nil
}

func (f *fakeService) GetAnalysis(ctx context.Context, id string) (*catalog.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.analyses {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeService) ListAnalyses(ctx context.Context, playerID string) ([]*catalog.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*catalog.Analysis
	for _, a := range f.analyses {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeService) CountAnalyses(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyses), nil
}

type fakeDoctorPipelineRunner struct {
	caps *pipelines.Capabilities
}

func (f *fakeDoctorPipelineRunner) RunDoctor(ctx context.Context) (*pipelines.Capabilities, error) {
	if f.caps == nil {
		return &pipelines.Capabilities{}, nil
	}
	return f.caps, nil
}

func (f *fakeDoctorPipelineRunner) RunPose(ctx context.Context, videoPath, outPath string) (pipelines.RunResult, error) {
	return pipelines.RunResult{}, nil
}

func (f *fakeDoctorPipelineRunner) ValidateOutput(path string) (*pipelines.PipelineOutput, error) {
	return &pipelines.PipelineOutput{SchemaVersion: "1.0", PipelineVersion: "0.1.0", ModelVersion: "test"}, nil
}

func (f *fakeDoctorPipelineRunner) ArtifactsDir() string {
	return "/tmp/test-artifacts"
}
