package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Writer serializes output records. The jsonl format writes one record per
// line as they arrive; the summary format accumulates band counts and emits
// a single JSON document on Close.
type Writer struct {
	out     io.Writer
	format  string
	logger  *zerolog.Logger
	summary summaryStats
}

type summaryStats struct {
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Bands      map[string]int `json:"bands"`
	AvgPercent float64        `json:"avg_percentage"`

	percentSum int
}

func NewWriter(out io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	switch format {
	case "jsonl", "summary":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Writer{
		out:     out,
		format:  format,
		logger:  logger,
		summary: summaryStats{Bands: make(map[string]int)},
	}, nil
}

func (w *Writer) Write(record OutputRecord) error {
	w.summary.Total++
	if record.Error != "" {
		w.summary.Failed++
	} else {
		w.summary.Succeeded++
		w.summary.Bands[string(record.Result.Band)]++
		w.summary.percentSum += record.Result.Percentage
	}

	if w.format != "jsonl" {
		return nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := fmt.Fprintln(w.out, string(data)); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	if w.format != "summary" {
		return nil
	}

	if w.summary.Succeeded > 0 {
		w.summary.AvgPercent = float64(w.summary.percentSum) / float64(w.summary.Succeeded)
	}

	data, err := json.MarshalIndent(w.summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if _, err := fmt.Fprintln(w.out, string(data)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
