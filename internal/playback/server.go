// Package playback streams registered player videos to the local UI with
// HTTP range support so browsers can seek.
package playback

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/7ipolito/goals-vision/internal/logging"
)

type PlaybackService interface {
	ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error
}

// videoTypes covers extensions the OS mime table often lacks.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

type Server struct {
	logger *slog.Logger
	maxAge time.Duration
}

// NewServer returns a playback server. maxAge sets the Cache-Control max-age
// of served videos; zero disables caching.
func NewServer(logger *slog.Logger, maxAge time.Duration) *Server {
	return &Server{logger: logger, maxAge: maxAge}
}

func ContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := videoTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "video not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat video: %w", err)
	}
	if stat.IsDir() {
		http.Error(w, "video not found", http.StatusNotFound)
		return nil
	}

	size := stat.Size()
	h := w.Header()
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Type", ContentType(filePath))
	h.Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))
	if s.maxAge > 0 {
		h.Set("Cache-Control", "private, max-age="+strconv.Itoa(int(s.maxAge.Seconds())))
	} else {
		h.Set("Cache-Control", "no-store")
	}

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)
	if err == ErrUnsatisfiable {
		h.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}
	// A malformed Range header is ignored and the whole video is served.
	if err != nil && err != ErrInvalidRange {
		return err
	}

	start, length, status := int64(0), size, http.StatusOK
	if parsedRange != nil {
		start, length, status = parsedRange.Start, parsedRange.ContentLength(), http.StatusPartialContent
		h.Set("Content-Range", parsedRange.ContentRange(size))
	}
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return nil
	}

	if start > 0 {
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
	}
	n, err := io.CopyN(w, file, length)
	if err != nil {
		// Clients abort mid-stream when seeking; not worth an error log.
		s.logger.Debug("playback interrupted",
			"path", logging.SanitizePath(filePath),
			"sent", n,
			"error", err,
		)
	}
	return nil
}
