package reconcile

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

const fullRow = `<tr><td>Q1_correctness</td><td>2</td><td>Accurate and complete</td></tr>`

func TestFeed_PartialRowRendersNothing(t *testing.T) {
	rec := New(newTestLogger())

	rendered := rec.Feed(`<tr><td>Q1</`)
	if rendered != "" {
		t.Errorf("expected no rendering for truncated row, got %q", rendered)
	}
	if rec.State() != StateStreaming {
		t.Errorf("expected streaming state, got %s", rec.State())
	}
}

func TestFeed_CompleteRowThenPartial(t *testing.T) {
	rec := New(newTestLogger())

	// First delivery: complete row plus the opening of the next one.
	rendered := rec.Feed(fullRow + `<tr><td>Q1_depth</td><td>1`)
	if rendered != fullRow {
		t.Errorf("expected only the complete row, got %q", rendered)
	}

	// Second delivery closes the open row.
	rendered = rec.Feed(fullRow + `<tr><td>Q1_depth</td><td>1</td><td>shallow</td></tr>`)
	if !strings.Contains(rendered, "Q1_depth") {
		t.Errorf("expected second row rendered, got %q", rendered)
	}
	if !strings.HasPrefix(rendered, fullRow) {
		t.Errorf("expected first row unchanged at prefix, got %q", rendered)
	}
}

func TestFeed_TruncationAtEveryOffset(t *testing.T) {
	payload := fullRow + `<tr><td>Q2_breadth</td><td>0</td><td>Not covered</td></tr>`

	// Any prefix must render only fully closed rows, never broken markup.
	for i := 0; i <= len(payload); i++ {
		rec := New(newTestLogger())
		rendered := rec.Feed(payload[:i])

		if strings.Count(rendered, "<tr>") != strings.Count(rendered, "</tr>") {
			t.Fatalf("unbalanced rows at offset %d: %q", i, rendered)
		}
		if strings.Count(rendered, "<td>") != strings.Count(rendered, "</td>") {
			t.Fatalf("unbalanced cells at offset %d: %q", i, rendered)
		}
	}
}

func TestFeed_Idempotent(t *testing.T) {
	rec := New(newTestLogger())

	first := rec.Feed(fullRow)
	second := rec.Feed(fullRow)
	if first != second {
		t.Errorf("same payload produced different renderings: %q vs %q", first, second)
	}
}

func TestFeed_ReplacesNotAppends(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(fullRow)
	rendered := rec.Feed(fullRow)
	if strings.Count(rendered, "Q1_correctness") != 1 {
		t.Errorf("row duplicated across feeds: %q", rendered)
	}
}

func TestFeed_EscapesCellText(t *testing.T) {
	rec := New(newTestLogger())

	// Nested tags are dropped by tokenization; loose angle brackets in text
	// are re-escaped. Neither can reach the rendering as live markup.
	rendered := rec.Feed(`<tr><td>Q1_a</td><td>1</td><td>uses <b>bold</b> claims</td></tr>`)
	if strings.Contains(rendered, "<b>") {
		t.Errorf("markup leaked into rendering: %q", rendered)
	}
	if !strings.Contains(rendered, "uses bold claims") {
		t.Errorf("expected tag-stripped cell text, got %q", rendered)
	}

	rec = New(newTestLogger())
	rendered = rec.Feed(`<tr><td>Q1_a</td><td>1</td><td>score < max expected</td></tr>`)
	if !strings.Contains(rendered, "score &lt; max expected") {
		t.Errorf("expected escaped angle bracket, got %q", rendered)
	}
}

func TestComplete_ParsesEntries(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(fullRow + `<tr><td>Q2_breadth</td><td>0</td><td>Not covered</td></tr>`)
	entries, err := rec.Complete()
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "Q1_correctness" || entries[0].Score != 2 {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "Q2_breadth" || entries[1].Score != 0 {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
	if rec.State() != StateComplete {
		t.Errorf("expected complete state, got %s", rec.State())
	}
}

func TestComplete_SkipsHeaderRows(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(`<tr><th>Name</th><th>Score</th><th>Reason</th></tr>` + fullRow)
	entries, err := rec.Complete()
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected header skipped, got %d entries", len(entries))
	}
}

func TestComplete_NoRows(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed("the model wrote prose instead of a table")
	if _, err := rec.Complete(); err == nil {
		t.Error("expected error for payload without rows")
	}
}

func TestComplete_RowsWithoutScoreShape(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(`<tr><td>only</td><td>two cells but no number</td></tr>`)
	if _, err := rec.Complete(); err == nil {
		t.Error("expected error for rows that never fit the entry shape")
	}
}

func TestFail_KeepsPartialRendering(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(fullRow)
	rec.Fail(errors.New("connection reset"))

	if rec.Rendered() != fullRow {
		t.Errorf("partial rendering lost on failure: %q", rec.Rendered())
	}
	if rec.State() != StateFailed {
		t.Errorf("expected failed state, got %s", rec.State())
	}

	// Late chunks after failure are dropped.
	rendered := rec.Feed(fullRow + fullRow)
	if rendered != fullRow {
		t.Errorf("feed after failure changed rendering: %q", rendered)
	}

	if _, err := rec.Complete(); err == nil {
		t.Error("expected Complete to surface the stream failure")
	}
}

func TestFeed_AfterCompleteIsNoop(t *testing.T) {
	rec := New(newTestLogger())

	rec.Feed(fullRow)
	if _, err := rec.Complete(); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	rendered := rec.Feed("<tr><td>late</td><td>1</td><td>x</td></tr>")
	if rendered != fullRow {
		t.Errorf("feed after completion changed rendering: %q", rendered)
	}
}

func TestFeed_TableWrappedInProse(t *testing.T) {
	rec := New(newTestLogger())

	rendered := rec.Feed("Here are the scores:\n<table>" + fullRow + "</table>\nDone.")
	if rendered != fullRow {
		t.Errorf("expected rows extracted from surrounding prose, got %q", rendered)
	}
}
