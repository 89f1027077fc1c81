package reconcile

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/models"
	"golang.org/x/net/html"
)

type State int

const (
	StateIdle State = iota
	StateStreaming
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Reconciler converts accumulated snapshots of a streamed score table into a
// safe partial rendering. The payload is untrusted and may be truncated at
// any byte offset; only complete, balanced rows are ever emitted, and a
// trailing partial row is buffered rather than rendered.
type Reconciler struct {
	state    State
	payload  string
	rendered string
	failure  error
	logger   *zerolog.Logger
}

func New(logger *zerolog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

func (r *Reconciler) State() State { return r.state }

// Rendered returns the last safe rendering. Partial output produced before a
// failure stays visible.
func (r *Reconciler) Rendered() string { return r.rendered }

// Feed receives the entire accumulated payload so far (not a delta) and
// re-derives the safe-to-render prefix. Feeding the same or a longer prefix
// again produces the same rendering for the shared part; the previous
// rendering is overwritten, never appended to. Feeds after a terminal state
// are ignored.
func (r *Reconciler) Feed(accumulated string) string {
	if r.state == StateComplete || r.state == StateFailed {
		return r.rendered
	}
	r.state = StateStreaming
	r.payload = accumulated
	r.rendered = renderRows(extractRows(accumulated))
	return r.rendered
}

// Complete performs the final reconciliation pass and maps the rows to score
// entries. A payload with no extractable entries is a result-shape violation,
// reported as StreamParseError rather than a crash.
func (r *Reconciler) Complete() ([]models.ScoreEntry, error) {
	if r.state == StateFailed {
		return nil, r.failure
	}
	r.state = StateComplete

	rows := extractRows(r.payload)
	r.rendered = renderRows(rows)

	if len(rows) == 0 {
		return nil, &models.StreamParseError{Reason: "no table rows in payload"}
	}

	var entries []models.ScoreEntry
	for _, row := range rows {
		entry, ok := rowToEntry(row)
		if !ok {
			// Header rows and decorative rows are expected; skip them.
			r.logger.Debug().Strs("cells", row).Msg("skipping non-score row")
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, &models.StreamParseError{Reason: "rows do not match name/score/reason shape"}
	}
	return entries, nil
}

// Fail marks the run as terminally failed on a transport error. Chunks
// received afterwards are dropped.
func (r *Reconciler) Fail(err error) {
	if r.state == StateComplete || r.state == StateFailed {
		return
	}
	r.state = StateFailed
	r.failure = err
	r.logger.Warn().Err(err).Msg("stream failed, keeping partial rendering")
}

// extractRows tokenizes the payload and collects the cell text of every row
// whose closing tag has arrived. The tokenizer stops at the first error
// (end of a truncated payload), so an open row is discarded by falling out
// of the loop before its </tr>.
func extractRows(payload string) [][]string {
	z := html.NewTokenizer(strings.NewReader(payload))

	var rows [][]string
	var cells []string
	var cell strings.Builder
	inRow, inCell := false, false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return rows
		}

		tok := z.Token()
		switch tt {
		case html.StartTagToken:
			switch tok.Data {
			case "tr":
				inRow = true
				cells = nil
			case "td", "th":
				if inRow {
					inCell = true
					cell.Reset()
				}
			}
		case html.EndTagToken:
			switch tok.Data {
			case "td", "th":
				if inCell {
					cells = append(cells, strings.TrimSpace(cell.String()))
					inCell = false
				}
			case "tr":
				if inRow && len(cells) > 0 {
					rows = append(rows, cells)
				}
				inRow = false
				cells = nil
			}
		case html.TextToken:
			if inCell {
				cell.WriteString(tok.Data)
			}
		}
	}
}

// renderRows rebuilds markup from extracted cells. Tags are balanced by
// construction and cell text is re-escaped, so model output can never inject
// markup into the rendering.
func renderRows(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	var b strings.Builder
	for _, cells := range rows {
		b.WriteString("<tr>")
		for _, c := range cells {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(c))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	return b.String()
}

// rowToEntry maps a (name, score, reason) row to a score entry. Rows whose
// score cell is not an integer do not qualify.
func rowToEntry(cells []string) (models.ScoreEntry, bool) {
	if len(cells) < 3 {
		return models.ScoreEntry{}, false
	}

	score, err := strconv.Atoi(strings.TrimSpace(cells[1]))
	if err != nil {
		return models.ScoreEntry{}, false
	}

	return models.ScoreEntry{
		Name:   cells[0],
		Score:  score,
		Reason: cells[2],
	}, true
}
