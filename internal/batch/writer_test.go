package batch

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vivalab/interview-agent/internal/models"
)

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, "xml", newTestLogger()); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestWriter_JSONL(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, "jsonl", newTestLogger())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	records := []OutputRecord{
		{JobID: "1", Result: models.EvaluationResult{Percentage: 88, Band: models.BandSuccess}},
		{JobID: "2", Error: "evaluation failed"},
	}
	for _, r := range records {
		if err := writer.Write(r); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first OutputRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 is not valid JSON: %v", err)
	}
	if first.JobID != "1" || first.Result.Percentage != 88 {
		t.Errorf("unexpected first line: %+v", first)
	}
}

func TestWriter_Summary(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewWriter(&buf, "summary", newTestLogger())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	writer.Write(OutputRecord{JobID: "1", Result: models.EvaluationResult{Percentage: 80, Band: models.BandSuccess}})
	writer.Write(OutputRecord{JobID: "2", Result: models.EvaluationResult{Percentage: 40, Band: models.BandWarning}})
	writer.Write(OutputRecord{JobID: "3", Error: "boom"})

	// Nothing written until Close for the summary format.
	if buf.Len() != 0 {
		t.Errorf("summary emitted before Close: %q", buf.String())
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	var summary struct {
		Total      int            `json:"total"`
		Succeeded  int            `json:"succeeded"`
		Failed     int            `json:"failed"`
		Bands      map[string]int `json:"bands"`
		AvgPercent float64        `json:"avg_percentage"`
	}
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("summary is not valid JSON: %v", err)
	}

	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}
	if summary.Bands["success"] != 1 || summary.Bands["warning"] != 1 {
		t.Errorf("unexpected bands: %+v", summary.Bands)
	}
	if summary.AvgPercent != 60 {
		t.Errorf("expected avg 60, got %f", summary.AvgPercent)
	}
}
