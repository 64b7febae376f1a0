package playback

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeVideo(t *testing.T, name string, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func newTestServer() *Server {
	return NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
}

func TestServeFile_Full(t *testing.T) {
	path := writeVideo(t, "gingado.mp4", 1000)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)

	if err := newTestServer().ServeFile(rr, req, path); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if rr.Body.Len() != 1000 {
		t.Errorf("body length = %d, want 1000", rr.Body.Len())
	}
	if got := rr.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "private, max-age=3600" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestServeFile_Range(t *testing.T) {
	path := writeVideo(t, "gingado.mov", 1000)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)
	req.Header.Set("Range", "bytes=100-199")

	if err := newTestServer().ServeFile(rr, req, path); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}

	if rr.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rr.Code)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	body := rr.Body.Bytes()
	if len(body) != 100 || body[0] != byte(100%251) {
		t.Errorf("unexpected range body: len=%d first=%d", len(body), body[0])
	}
	if got := rr.Header().Get("Content-Type"); got != "video/quicktime" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestServeFile_Unsatisfiable(t *testing.T) {
	path := writeVideo(t, "a.mp4", 10)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)
	req.Header.Set("Range", "bytes=50-")

	newTestServer().ServeFile(rr, req, path)

	if rr.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rr.Code)
	}
	if got := rr.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeFile_InvalidRangeServesWhole(t *testing.T) {
	path := writeVideo(t, "a.webm", 64)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)
	req.Header.Set("Range", "frames=1-2")

	newTestServer().ServeFile(rr, req, path)

	if rr.Code != http.StatusOK || rr.Body.Len() != 64 {
		t.Errorf("status = %d len = %d, want 200 and 64", rr.Code, rr.Body.Len())
	}
}

func TestServeFile_Head(t *testing.T) {
	path := writeVideo(t, "a.mkv", 500)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "/playback/video", nil)

	newTestServer().ServeFile(rr, req, path)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("HEAD body length = %d, want 0", rr.Body.Len())
	}
	if got := rr.Header().Get("Content-Length"); got != "500" {
		t.Errorf("Content-Length = %q, want 500", got)
	}
}

func TestServeFile_Missing(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)

	err := newTestServer().ServeFile(rr, req, filepath.Join(t.TempDir(), "gone.mp4"))
	if err != nil {
		t.Fatalf("ServeFile: %v", err)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestServeFile_NoCache(t *testing.T) {
	path := writeVideo(t, "a.mp4", 1)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/video", nil)

	NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)), 0).ServeFile(rr, req, path)

	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.MP4":  "video/mp4",
		"b.avi":  "video/x-msvideo",
		"c.mkv":  "video/x-matroska",
		"d.bin":  "application/octet-stream",
		"noext":  "application/octet-stream",
	}
	for in, want := range tests {
		if got := ContentType(in); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}
