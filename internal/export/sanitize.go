package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

const maxNameLen = 64

// SanitizeName turns a player name into a file name stem. Control characters
// are dropped, spaces become underscores and anything outside letters, digits
// and "-_." becomes "_". An empty result falls back to "player".
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	if cleaned == "" {
		return "player"
	}
	return cleaned
}

// ValidateOutputDir checks that dir is a clean absolute path to an existing
// directory.
func ValidateOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return fmt.Errorf("%w: output_dir is required", catalog.ErrValidation)
	}

	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return fmt.Errorf("%w: output_dir cannot contain path traversal", catalog.ErrValidation)
		}
	}

	if !filepath.IsAbs(dir) {
		return fmt.Errorf("%w: output_dir must be absolute", catalog.ErrValidation)
	}
	if filepath.Clean(dir) != dir {
		return fmt.Errorf("%w: output_dir must be clean path", catalog.ErrValidation)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: output_dir does not exist", catalog.ErrValidation)
		}
		return fmt.Errorf("invalid output_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: output_dir is not a directory", catalog.ErrValidation)
	}

	return nil
}
