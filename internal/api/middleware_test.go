package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost",
		"https://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1",
		"http://[::1]:3000",
	}

	for _, origin := range allowed {
		if !isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = false, want true", origin)
		}
	}

	denied := []string{
		"https://evil.com",
		"https://localhost.evil.com",
		"http://192.168.1.1:3000",
		"",
		"ftp://localhost:3000",
		"http://localhost:not-a-port",
		"http://localhost:99999",
		"http://localhost:3000/path",
		"http://user@localhost:3000",
	}

	for _, origin := range denied {
		if isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

func TestOriginAllowed_Extra(t *testing.T) {
	extra := []string{"https://club.example"}

	if !originAllowed("https://club.example", extra) {
		t.Error("configured origin should be allowed")
	}
	if originAllowed("https://club.example.evil.com", extra) {
		t.Error("extra origins must match exactly")
	}
	if originAllowed("", extra) {
		t.Error("empty origin should never be allowed")
	}
}

func TestIsLoopbackRemoteAddr(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:12345", true},
		{"[::1]:12345", true},
		{"::1", true},
		{"[::1]", true},
		{"127.0.0.1", true},
		{"8.8.8.8:12345", false},
		{"192.168.1.1:8080", false},
		{"10.0.0.1:3000", false},
		{"not-an-ip:1234", false},
		{"", false},
		{"garbage", false},
	}

	for _, tc := range cases {
		if got := isLoopbackRemoteAddr(tc.addr); got != tc.want {
			t.Errorf("isLoopbackRemoteAddr(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSAllowlist_AllowedOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want %q", got, "Origin")
	}
}

func TestCORSAllowlist_ConfiguredOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/players", nil)
	req.Header.Set("Origin", "https://club.example")
	rr := httptest.NewRecorder()

	CORSAllowlist("https://club.example")(okHandler()).ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://club.example" {
		t.Errorf("ACAO = %q, want %q", got, "https://club.example")
	}
}

func TestCORSAllowlist_DeniedOrigin_GET(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (request still served, just no ACAO)", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty for denied origin", got)
	}
}

func TestCORSAllowlist_DeniedOrigin_Preflight(t *testing.T) {
	handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for denied preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/playback/video", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d for denied preflight", rr.Code, http.StatusForbidden)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty for denied preflight", got)
	}
}

func TestCORSAllowlist_NoOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty when no Origin header", got)
	}
}

func TestCORSAllowlist_AllowedPreflight(t *testing.T) {
	handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called for preflight")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/playback/video", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "range")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got == "" {
		t.Error("Access-Control-Max-Age missing on preflight")
	}
}

func TestCORSAllowlist_Headers(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/playback/video", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	checks := []struct {
		header string
		want   []string
	}{
		{"Access-Control-Allow-Headers", []string{"Range", "Content-Type", "X-Request-ID"}},
		{"Access-Control-Expose-Headers", []string{"Content-Range", "Accept-Ranges", "Content-Length", "Content-Type"}},
		{"Access-Control-Allow-Methods", []string{"GET", "HEAD", "POST", "PATCH", "DELETE", "OPTIONS"}},
	}
	for _, c := range checks {
		got := headerList(rr.Header().Get(c.header))
		for _, w := range c.want {
			if !slices.Contains(got, w) {
				t.Errorf("%s missing %q, got %v", c.header, w, got)
			}
		}
	}
}

func headerList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func TestCORSAllowlist_VaryIsAdditive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	rr.Header().Set("Vary", "Accept-Encoding")

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	vary := rr.Header().Values("Vary")
	if !slices.Contains(vary, "Accept-Encoding") {
		t.Errorf("Vary lost Accept-Encoding, got %v", vary)
	}
	if !slices.Contains(vary, "Origin") {
		t.Errorf("Vary missing Origin, got %v", vary)
	}
}

func TestLoopbackGuard(t *testing.T) {
	cases := []struct {
		remote string
		want   int
	}{
		{"127.0.0.1:12345", http.StatusOK},
		{"[::1]:12345", http.StatusOK},
		{"8.8.8.8:12345", http.StatusForbidden},
		{"192.168.0.20:5000", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.remote, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/playback/video?video_id=test", nil)
			req.RemoteAddr = tc.remote
			rr := httptest.NewRecorder()

			LoopbackGuard()(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tc.want {
				t.Fatalf("status = %d, want %d", rr.Code, tc.want)
			}
			if tc.want == http.StatusForbidden {
				body := decodeJSONBody(t, rr)
				if code, ok := body["code"].(string); !ok || code != "FORBIDDEN" {
					t.Errorf("error code = %v, want FORBIDDEN", body["code"])
				}
			}
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/players", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(seen) != 8 {
		t.Fatalf("request id = %q, want 8 characters", seen)
	}
	if got := rr.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID = %q, want %q", got, seen)
	}
}

func TestWriteServiceError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("player x: %w", catalog.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: age", catalog.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("busy: %w", catalog.ErrConflict), http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		writeServiceError(rr, logger, tc.err)
		if rr.Code != tc.want {
			t.Errorf("writeServiceError(%v) status = %d, want %d", tc.err, rr.Code, tc.want)
		}
	}

	rr := httptest.NewRecorder()
	writeServiceError(rr, logger, errors.New("disk full"))
	if strings.Contains(rr.Body.String(), "disk full") {
		t.Error("internal error details must not leak to the client")
	}
}

func playbackConfig(t *testing.T) (ServerConfig, *catalog.Video) {
	t.Helper()
	cfg := testServerConfig(nil)
	svc := cfg.CatalogService.(*fakeService)
	p := svc.addPlayer("Playback", catalog.PositionDefender)

	path := filepath.Join(t.TempDir(), "gingado.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	v, err := svc.RegisterVideo(context.Background(), p.ID, path, catalog.VideoKindGingado)
	if err != nil {
		t.Fatalf("register video: %v", err)
	}
	return cfg, v
}

func TestPlaybackRoute_Loopback_Integration(t *testing.T) {
	cfg, v := playbackConfig(t)

	server := httptest.NewServer(NewRouter(cfg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/playback/video?video_id=" + v.ID)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d (loopback request via httptest should be allowed)", resp.StatusCode, http.StatusOK)
	}
}

func TestPlaybackRoute_RemoteRejected(t *testing.T) {
	cfg, v := playbackConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/playback/video?video_id="+v.ID, nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rr := httptest.NewRecorder()

	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rr.Code)
	}
}

func TestPlaybackRoute_VideoFileGone(t *testing.T) {
	cfg, v := playbackConfig(t)
	if err := os.Remove(v.Path); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/playback/video?video_id="+v.ID, nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rr := httptest.NewRecorder()

	NewRouter(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["code"] != "VIDEO_MISSING" {
		t.Errorf("code = %v, want VIDEO_MISSING", body["code"])
	}
}

func TestHealthRoute_CORS_Integration(t *testing.T) {
	router := NewRouter(testServerConfig(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestHEAD_PlaybackVideo_NoBody(t *testing.T) {
	cfg, v := playbackConfig(t)

	server := httptest.NewServer(NewRouter(cfg))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodHead, server.URL+"/playback/video?video_id="+v.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("HEAD response body length = %d, want 0", len(body))
	}
}

func TestHEAD_PlaybackVideo_MissingVideoID(t *testing.T) {
	server := httptest.NewServer(NewRouter(testServerConfig(nil)))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodHead, server.URL+"/playback/video", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) != 0 {
		t.Errorf("HEAD response body length = %d, want 0", len(body))
	}
}

type fakePlayback struct{}

func (f *fakePlayback) ServeFile(w http.ResponseWriter, r *http.Request, path string) error {
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(http.StatusOK)
	return nil
}
