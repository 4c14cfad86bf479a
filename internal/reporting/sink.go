package reporting

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Output file names, suffixed with the run date.
const (
	WorkbookPrefix = "BUILD_TODAY_"
	CSVPrefix      = "velocity_summary_"
	BriefingPrefix = "daily_briefing_"
)

// FileSink writes the workbook, CSV and Markdown briefing of a report to Dir.
type FileSink struct {
	Dir    string
	Logger *zerolog.Logger
}

// Paths returns the three output paths for a run date.
func (s *FileSink) Paths(runDate string) (workbook, csvPath, briefing string) {
	return filepath.Join(s.Dir, WorkbookPrefix+runDate+".xlsx"),
		filepath.Join(s.Dir, CSVPrefix+runDate+".csv"),
		filepath.Join(s.Dir, BriefingPrefix+runDate+".md")
}

// Render writes every output file. Existing files for the same date are replaced.
func (s *FileSink) Render(ctx context.Context, r *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workbookPath, csvPath, briefingPath := s.Paths(r.Run.RunDate)

	var xlsx bytes.Buffer
	if err := WriteWorkbook(&xlsx, r); err != nil {
		return err
	}
	if err := writeFile(workbookPath, xlsx.Bytes()); err != nil {
		return err
	}

	csvText, err := RenderCSV(r.Recommendations)
	if err != nil {
		return fmt.Errorf("render csv: %w", err)
	}
	if err := writeFile(csvPath, []byte(csvText)); err != nil {
		return err
	}

	if err := writeFile(briefingPath, []byte(RenderBriefing(r))); err != nil {
		return err
	}

	if s.Logger != nil {
		s.Logger.Info().
			Str("component", "report").
			Str("run_id", r.Run.RunID).
			Str("workbook", workbookPath).
			Str("csv", csvPath).
			Str("briefing", briefingPath).
			Msg("report written")
	}
	return nil
}

// writeFile writes through a temp file in the same directory and renames it
// into place, so readers never see a partial file.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
