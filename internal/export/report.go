package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

var csvHeader = []string{
	"analysis_id", "created_at", "source", "status", "video_id",
	"lateral_movement_count", "coordination_score", "agility_score",
	"average_lateral_speed", "total_duration_seconds",
	"frames_seen", "frames_without_pose", "frames_dropped", "records",
}

// WriteCSV writes one row per analysis, in the order given. Metric columns
// are empty for inconclusive analyses.
func WriteCSV(w io.Writer, analyses []*catalog.Analysis) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, a := range analyses {
		row := []string{a.ID, a.CreatedAt.UTC().Format(time.RFC3339), a.Source, a.Status, a.VideoID}
		if a.Conclusive() {
			row = append(row,
				strconv.Itoa(a.LateralMovementCount),
				strconv.FormatFloat(a.CoordinationScore, 'f', -1, 64),
				strconv.FormatFloat(a.AgilityScore, 'f', -1, 64),
				strconv.FormatFloat(a.AverageLateralSpeed, 'f', 3, 64),
				strconv.Itoa(a.TotalDurationSeconds),
			)
		} else {
			row = append(row, "", "", "", "", "")
		}
		row = append(row,
			strconv.Itoa(a.FramesSeen),
			strconv.Itoa(a.FramesWithoutPose),
			strconv.Itoa(a.FramesDropped),
			strconv.Itoa(a.Records),
		)
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Export writes the requested report formats for a player into
// req.OutputDir. With no formats every format is written.
func Export(req ExportRequest, player *catalog.Player, analyses []*catalog.Analysis) (*ExportResponse, error) {
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return nil, err
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = Formats
	}
	for _, f := range formats {
		if !slices.Contains(Formats, f) {
			return nil, fmt.Errorf("%w: unknown format %q", catalog.ErrValidation, f)
		}
	}

	stem := SanitizeName(player.Name, maxNameLen)
	resp := &ExportResponse{Status: "ok", Analyses: len(analyses)}

	if slices.Contains(formats, FormatCSV) {
		path := filepath.Join(req.OutputDir, stem+"_analyses.csv")
		if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, analyses) }); err != nil {
			return nil, err
		}
		resp.OutputPaths = append(resp.OutputPaths, path)
	}
	if slices.Contains(formats, FormatChart) {
		path := filepath.Join(req.OutputDir, stem+"_progress.html")
		if err := writeFile(path, func(w io.Writer) error { return RenderProgressChart(w, player, analyses) }); err != nil {
			return nil, err
		}
		resp.OutputPaths = append(resp.OutputPaths, path)
	}

	return resp, nil
}

// writeFile writes through a temp file in the same directory so a failed
// export never leaves a truncated report behind.
func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
