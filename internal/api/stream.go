package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/models"
)

// sseSink pushes each reconciled rendering to the client as a server-sent
// event. Markup is JSON-encoded so multi-line table fragments stay on one
// data line.
type sseSink struct {
	resp   *restful.Response
	logger *zerolog.Logger
}

func (s *sseSink) Render(markup string) {
	s.event("render", markup)
}

func (s *sseSink) event(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode stream event")
		return
	}
	fmt.Fprintf(s.resp, "event: %s\ndata: %s\n\n", name, data)
	s.resp.Flush()
}

// POST /api/v1/sessions/{session_id}/evaluate/stream
// Emits "render" events while the model streams, then a terminal "result"
// or "error" event.
func (h *Handler) EvaluateStream(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}

	if !sess.BeginEvaluation() {
		h.writeError(resp, models.ErrEvaluationInFlight)
		return
	}
	defer sess.EndEvaluation()

	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	h.logger.Info().Str("session_id", sess.ID).Msg("Start streaming evaluation")

	sink := &sseSink{resp: resp, logger: h.logger}
	set := sess.Snapshot()

	result, err := h.evaluator.EvaluateStream(req.Request.Context(), set, sink)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Streaming evaluation failed")
		sink.event("error", err.Error())
		return
	}

	h.logger.Info().
		Str("session_id", sess.ID).
		Int("percentage", result.Percentage).
		Str("band", string(result.Band)).
		Msg("Streaming evaluation complete")

	h.saveResult(req, sess, set, result)
	sink.event("result", result)
}
