package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

func TestSanitizeName_ControlChars(t *testing.T) {
	got := SanitizeName(" A\nB\rC\tD\x00 ", 100)
	if strings.ContainsAny(got, "\n\r\t\x00") {
		t.Fatalf("sanitize output contains control chars: %q", got)
	}
	if got != "ABCD" {
		t.Fatalf("SanitizeName control char behavior mismatch, got %q", got)
	}
}

func TestSanitizeName_MaxLength(t *testing.T) {
	got := SanitizeName("abcdefghijklmnopqrstuvwxyz", 10)
	if len([]rune(got)) != 10 {
		t.Fatalf("expected length 10, got %d (%q)", len([]rune(got)), got)
	}
}

func TestSanitizeName_PlayerNames(t *testing.T) {
	tests := map[string]string{
		"Vinícius Júnior": "Vinícius_Júnior",
		"Ana-Clara 2009":  "Ana-Clara_2009",
		"../../etc":       "etc",
		"bad<>|\"name":    "bad____name",
		"   ":             "player",
		"...":             "player",
	}
	for in, want := range tests {
		if got := SanitizeName(in, maxNameLen); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateOutputDir_Valid(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateOutputDir(dir); err != nil {
		t.Fatalf("ValidateOutputDir(%q) error = %v, want nil", dir, err)
	}
}

func TestValidateOutputDir_Rejects(t *testing.T) {
	base := t.TempDir()
	filePath := filepath.Join(base, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	cases := map[string]string{
		"empty":     "",
		"missing":   filepath.Join(base, "missing"),
		"traversal": "/tmp/../etc",
		"relative":  "reports",
		"unclean":   base + "/",
		"not a dir": filePath,
	}
	for name, dir := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateOutputDir(dir)
			if err == nil {
				t.Fatalf("ValidateOutputDir(%q) expected error", dir)
			}
			if !errors.Is(err, catalog.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}
