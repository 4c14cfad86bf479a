package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"trendbuild/internal/domain"
)

// Workbook sheet names.
const (
	SheetVelocity = "Velocity Summary"
	SheetGaps     = "Competitor Gaps"
	SheetBriefing = "Daily Briefing"
)

const (
	headerFill = "1F4E78"
	headerFont = "FFFFFF"
	colWidth   = 18.0
)

var windowFills = map[domain.ActionWindow]string{
	domain.WindowActNow:      "FF6B6B",
	domain.WindowSixToTwelve: "FFE4B5",
	domain.WindowTwelveTo24:  "FFFACD",
	domain.WindowMonitor:     "90EE90",
}

type sheet struct {
	name   string
	header []string
	rows   [][]any
	// window of each row, used to color the first column
	windows []domain.ActionWindow
}

// Workbook renders the report as an xlsx workbook. The caller closes it.
func Workbook(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerFont},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	windowStyles := make(map[domain.ActionWindow]int, len(windowFills))
	for w, color := range windowFills {
		id, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: w == domain.WindowActNow},
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("window style: %w", err)
		}
		windowStyles[w] = id
	}

	sheets := []sheet{velocitySheet(r), gapsSheet(r), briefingSheet(r)}
	for i, s := range sheets {
		idx, err := f.NewSheet(s.name)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		if err := writeSheet(f, s, header, windowStyles); err != nil {
			f.Close()
			return nil, fmt.Errorf("write sheet %q: %w", s.name, err)
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	return f, nil
}

// WriteWorkbook renders the report and writes the xlsx bytes to w.
func WriteWorkbook(w io.Writer, r *Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int, windowStyles map[domain.ActionWindow]int) error {
	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cells := make([]any, len(row))
		for j, v := range row {
			if str, ok := v.(string); ok {
				v = Sanitize(str)
			}
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &cells); err != nil {
			return err
		}
		if i < len(s.windows) {
			if style, ok := windowStyles[s.windows[i]]; ok {
				if err := f.SetCellStyle(s.name, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(s.header))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", lastCol, colWidth)
}

func velocitySheet(r *Report) sheet {
	s := sheet{
		name: SheetVelocity,
		header: []string{
			"Action Window", "Trajectory", "Trend", "Creator", "Age", "Current", "Velocity",
			"In 6h", "In 12h", "In 24h", "Peak In", "Confidence", "Market", "URL",
			"Variants", "Non-Pos Streak", "Stop Building", "Stop Reason",
		},
	}
	for _, rec := range r.Recommendations {
		peak := "N/A"
		if p := rec.Velocity.PeakEstimateHours; p != nil {
			peak = fmt.Sprintf("%.0fh", *p)
		}
		s.rows = append(s.rows, []any{
			rec.Window.Label(),
			rec.Velocity.Trajectory.Label(),
			headRunes(rec.Record.Caption, 60),
			rec.Record.Author,
			fmt.Sprintf("%.1fh", rec.Metrics.AgeHours),
			int64(rec.Metrics.Momentum),
			fmt.Sprintf("%+.0f/day", rec.Velocity.Velocity),
			int64(rec.Velocity.Predicted6h),
			int64(rec.Velocity.Predicted12h),
			int64(rec.Velocity.Predicted24h),
			peak,
			rec.Velocity.Confidence.String(),
			rec.Record.Market.Label(),
			rec.Record.URL,
			rec.Variants,
			rec.Streak,
			rec.Stop,
			rec.StopReason.String(),
		})
		s.windows = append(s.windows, rec.Window)
	}
	return s
}

func gapsSheet(r *Report) sheet {
	s := sheet{
		name: SheetGaps,
		header: []string{
			"Competitor", "Trend", "Momentum", "Shares/h", "Age", "Market", "Category",
			"Gap Type", "Hours Behind", "Est. Missed Revenue", "URL",
		},
	}
	for _, g := range r.Gaps {
		var behind any = ""
		if g.HoursBehind != nil {
			behind = round1(*g.HoursBehind)
		}
		category := "NON-AI"
		if g.IsAI {
			category = "AI"
		}
		s.rows = append(s.rows, []any{
			g.Competitor,
			g.Caption,
			int64(g.Momentum),
			round1(g.SharesPerHour),
			round1(g.AgeHours),
			g.Market.Label(),
			category,
			string(g.GapType),
			behind,
			g.EstimatedMissedRevenue,
			g.URL,
		})
	}
	return s
}

func briefingSheet(r *Report) sheet {
	s := sheet{
		name: SheetBriefing,
		header: []string{
			"Rank", "Trend", "Creator", "Market", "Momentum", "Shares/h", "Age",
			"Window Remaining", "Velocity", "Predicted 24h", "Action", "Trajectory", "Why", "URL",
		},
	}
	for _, item := range r.Briefing {
		rec := item.Recommendation
		var velocity, predicted, action, trajectory any = "", "", "", ""
		if r.HasHistory {
			velocity = round1(rec.Velocity.Velocity)
			predicted = int64(rec.Velocity.Predicted24h)
			action = rec.Window.Label()
			trajectory = rec.Velocity.Trajectory.Label()
		}
		s.rows = append(s.rows, []any{
			item.Rank,
			headRunes(rec.Record.Caption, 60),
			creator(rec.Record.Author),
			rec.Record.Market.Label(),
			int64(rec.Metrics.Momentum),
			round1(rec.Metrics.SharesPerHour),
			round1(rec.Metrics.AgeHours),
			item.WindowRemaining,
			velocity,
			predicted,
			action,
			trajectory,
			strings.Join(item.Reasons, "; "),
			rec.Record.URL,
		})
	}
	return s
}

// Sanitize strips the control characters that are illegal in xlsx cell XML.
// Tab, newline and carriage return are kept.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
