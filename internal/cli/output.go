// Package cli formats run results, history, and stats for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/datawizard/internal/materialize"
	"github.com/hyperjump/datawizard/internal/models"
	"github.com/hyperjump/datawizard/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text or json", s)
}

// Completion lines read by the calling front-end.
const (
	LineOK       = "OK"
	noTableInfo  = "[INFO] Tidak ada tabel markdown untuk diekspor ke Excel."
	degradedLine = "[ERROR] Proses selesai dengan peringatan"
)

// ErrorLine formats msg as an error completion line.
func ErrorLine(msg string) string {
	return "[ERROR] " + msg
}

// RunLines returns the text lines reporting res: one per degraded stage, a success line per
// derived artifact, then the completion line. With strict set, a degraded run completes with
// an error line instead of OK.
func RunLines(res *models.RunResult, strict bool) []string {
	var lines []string
	for _, o := range res.Problems() {
		if o.Status != models.StatusDegraded {
			continue
		}
		lines = append(lines, problemLine(o))
	}
	for _, a := range res.Artifacts {
		switch a.Kind {
		case models.ArtifactSpreadsheet:
			lines = append(lines, "[SUKSES] File Excel hasil perbaikan disimpan ke "+a.Path)
		case models.ArtifactDocument:
			lines = append(lines, "[SUKSES] Dokumen Word disimpan ke "+a.Path)
		}
	}

	switch res.Status() {
	case models.StatusFatal:
		lines = append(lines, ErrorLine(fatalReason(res)))
	case models.StatusDegraded:
		if strict {
			lines = append(lines, fmt.Sprintf("%s (%d tahap)", degradedLine, len(res.Problems())))
		} else {
			lines = append(lines, LineOK)
		}
	default:
		lines = append(lines, LineOK)
	}
	return lines
}

func problemLine(o models.Outcome) string {
	switch o.Stage {
	case models.StageExtract:
		return "[WARN] Ekstraksi dokumen bermasalah: " + o.Reason
	case models.StageGenerate:
		return "[WARN] Gagal menghubungi layanan AI: " + o.Reason
	case models.StageMaterialize:
		if o.Reason == materialize.ErrNoTable.Error() {
			return noTableInfo
		}
		return "[WARN] Gagal membuat file turunan: " + o.Reason
	}
	return fmt.Sprintf("[WARN] %s: %s", o.Stage, o.Reason)
}

func fatalReason(res *models.RunResult) string {
	for _, o := range res.Outcomes {
		if o.Status == models.StatusFatal {
			return o.Reason
		}
	}
	return "run failed"
}

// WriteRunResult writes res to w in the given format.
func WriteRunResult(w io.Writer, res *models.RunResult, format OutputFormat, strict bool) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	for _, l := range RunLines(res, strict) {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// WriteHistory writes history records to w, newest first as given.
func WriteHistory(w io.Writer, recs []*models.HistoryRecord, format OutputFormat) error {
	if format == OutputJSON {
		if recs == nil {
			recs = []*models.HistoryRecord{}
		}
		return writeJSON(w, map[string]interface{}{"runs": recs})
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range recs {
		source := r.SourcePath
		if source == "" || r.InputKind == models.KindNone {
			source = "(prompt only)"
		}
		fmt.Fprintf(w, "%s  %-8s  %-13s  %-5s  %-11s  %6dms  %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status, r.InputKind, r.Format, r.Mode, r.ProcessingTimeMs,
			utils.Truncate(source, 60))
		if r.Prompt != "" {
			fmt.Fprintf(w, "    prompt: %s\n", utils.Truncate(strings.Join(strings.Fields(r.Prompt), " "), 80))
		}
		for _, reason := range r.Reasons {
			fmt.Fprintf(w, "    ! %s\n", reason)
		}
		for _, a := range r.Artifacts {
			fmt.Fprintf(w, "    -> %s (%s)\n", a.Path, FormatBytes(a.Size))
		}
	}
	return nil
}

// Stats is the summary printed by the stats command.
type Stats struct {
	Runs          int64              `json:"runs"`
	ByKind        []models.KindCount `json:"by_kind"`
	DatabasePath  string             `json:"database_path,omitempty"`
	DatabaseBytes int64              `json:"database_bytes"`
}

// WriteStats writes s to w in the given format.
func WriteStats(w io.Writer, s *Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Runs:     %d\n", s.Runs)
	if s.DatabasePath != "" {
		fmt.Fprintf(w, "Database: %s (%s)\n", s.DatabasePath, FormatBytes(s.DatabaseBytes))
	}
	if len(s.ByKind) > 0 {
		fmt.Fprintln(w, "By input kind:")
		for _, k := range s.ByKind {
			fmt.Fprintf(w, "  %-14s %d\n", k.Kind, k.Count)
		}
	}
	return nil
}

// FormatBytes renders n as a human-readable size.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
