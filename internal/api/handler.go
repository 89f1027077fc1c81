package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/vivalab/interview-agent/internal/api/middleware"
	"github.com/vivalab/interview-agent/internal/auth"
	"github.com/vivalab/interview-agent/internal/evaluate"
	"github.com/vivalab/interview-agent/internal/history"
	"github.com/vivalab/interview-agent/internal/models"
	"github.com/vivalab/interview-agent/internal/questions"
	"github.com/vivalab/interview-agent/internal/session"
	"github.com/vivalab/interview-agent/internal/transcribe"
)

const maxAudioBytes = 25 << 20 // provider upload cap

type Handler struct {
	catalog     *questions.Catalog
	generator   *questions.Generator
	sessions    *session.Store
	tokens      *auth.TokenClient
	transcriber transcribe.Transcriber
	evaluator   *evaluate.Evaluator
	results     *history.Store
	logger      *zerolog.Logger
}

func NewHandler(
	catalog *questions.Catalog,
	generator *questions.Generator,
	sessions *session.Store,
	tokens *auth.TokenClient,
	transcriber transcribe.Transcriber,
	evaluator *evaluate.Evaluator,
	results *history.Store,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		catalog:     catalog,
		generator:   generator,
		sessions:    sessions,
		tokens:      tokens,
		transcriber: transcriber,
		evaluator:   evaluator,
		results:     results,
		logger:      logger,
	}
}

// Health handler GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

// GET /api/v1/questions?track=<name>
func (h *Handler) ListQuestions(req *restful.Request, resp *restful.Response) {
	track := req.QueryParameter("track")
	if track == "" {
		track = questions.DefaultTrack
	}

	qs, err := h.catalog.Track(track)
	if err != nil {
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, QuestionsResponse{Track: track, Questions: qs})
}

// POST /api/v1/questions/generate
// Builds a question set from a public repository's source files.
func (h *Handler) GenerateQuestions(req *restful.Request, resp *restful.Response) {
	var genRequest GenerateQuestionsRequest
	if err := req.ReadEntity(&genRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	if genRequest.Owner == "" || genRequest.Repo == "" {
		middleware.HandleError(resp, errors.New("owner and repo are required"), http.StatusBadRequest)
		return
	}
	if genRequest.Branch == "" {
		genRequest.Branch = "main"
	}

	h.logger.Info().
		Str("owner", genRequest.Owner).
		Str("repo", genRequest.Repo).
		Str("branch", genRequest.Branch).
		Msg("Generating questions")

	qs, err := h.generator.Generate(req.Request.Context(), genRequest.Owner, genRequest.Repo, genRequest.Branch, genRequest.Count)
	if err != nil {
		h.writeError(resp, err)
		return
	}

	track := genRequest.Owner + "/" + genRequest.Repo
	h.catalog.AddTrack(track, qs)

	resp.WriteHeaderAndEntity(http.StatusOK, QuestionsResponse{Track: track, Questions: qs})
}

// POST /api/v1/questions/reload
// Re-reads the questions file so operators can hot-edit tracks between
// sessions. Generated tracks are replaced along with everything else.
func (h *Handler) ReloadQuestions(req *restful.Request, resp *restful.Response) {
	if err := h.catalog.Reload(); err != nil {
		h.logger.Error().Err(err).Msg("Question reload failed")
		middleware.HandleError(resp, err, http.StatusInternalServerError)
		return
	}

	h.logger.Info().Msg("Question catalog reloaded")
	resp.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/sessions
func (h *Handler) CreateSession(req *restful.Request, resp *restful.Response) {
	var createRequest CreateSessionRequest
	if err := req.ReadEntity(&createRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	track := createRequest.Track
	if track == "" {
		track = questions.DefaultTrack
	}

	qs, err := h.catalog.Track(track)
	if err != nil {
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	}

	// Token fetch is best effort: a session without a token still records
	// typed answers, it just can't transcribe.
	var token string
	if h.tokens != nil {
		token, err = h.tokens.Fetch(req.Request.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("Token fetch failed, session starts without one")
		}
	}

	sess := session.New(track, qs, token)
	sess.User = createRequest.User
	h.sessions.Put(sess)

	h.logger.Info().
		Str("session_id", sess.ID).
		Str("track", track).
		Int("questions", len(qs)).
		Msg("Session created")

	resp.WriteHeaderAndEntity(http.StatusCreated, sessionResponse(sess))
}

// GET /api/v1/sessions/{session_id}
func (h *Handler) GetSession(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, sessionResponse(sess))
}

// DELETE /api/v1/sessions/{session_id}
func (h *Handler) DeleteSession(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}
	h.sessions.Delete(sess.ID)
	resp.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/sessions/{session_id}/answers/{question_id}
func (h *Handler) SetAnswer(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}

	questionID, err := strconv.Atoi(req.PathParameter("question_id"))
	if err != nil {
		middleware.HandleError(resp, errors.New("question_id must be an integer"), http.StatusBadRequest)
		return
	}

	var answer AnswerRequest
	if err := req.ReadEntity(&answer); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	if err := sess.SetAnswer(questionID, answer.Text); err != nil {
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	}

	resp.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/sessions/{session_id}/answers/{question_id}/transcribe
// Body: raw audio bytes; Content-Type carries the mime type.
func (h *Handler) Transcribe(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}

	if h.transcriber == nil {
		middleware.HandleError(resp, errors.New("transcription is not configured"), http.StatusServiceUnavailable)
		return
	}

	questionID, err := strconv.Atoi(req.PathParameter("question_id"))
	if err != nil {
		middleware.HandleError(resp, errors.New("question_id must be an integer"), http.StatusBadRequest)
		return
	}

	audio, err := io.ReadAll(io.LimitReader(req.Request.Body, maxAudioBytes+1))
	if err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if len(audio) == 0 {
		middleware.HandleError(resp, errors.New("empty audio body"), http.StatusBadRequest)
		return
	}
	if len(audio) > maxAudioBytes {
		middleware.HandleError(resp, errors.New("audio exceeds the 25 MB upload cap"), http.StatusRequestEntityTooLarge)
		return
	}

	mimeType := req.Request.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	transcript, err := h.transcriber.Transcribe(req.Request.Context(), audio, mimeType, sess.Token)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Int("question_id", questionID).Msg("Transcription failed")
		h.writeError(resp, err)
		return
	}

	if err := sess.SetAnswer(questionID, transcript); err != nil {
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, TranscribeResponse{
		QuestionID: questionID,
		Transcript: transcript,
	})
}

// POST /api/v1/sessions/{session_id}/capture-error
// The capture client reports a denied microphone grant here. The session
// status reflects the denial; recorded answers are never touched.
func (h *Handler) ReportCaptureError(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}

	var report CaptureErrorRequest
	if err := req.ReadEntity(&report); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if report.Resource == "" {
		report.Resource = "microphone"
	}

	permErr := &models.PermissionError{Resource: report.Resource}
	sess.SetStatus(permErr.Error())
	h.logger.Warn().Str("session_id", sess.ID).Str("resource", report.Resource).Msg("Capture permission denied")

	resp.WriteHeaderAndEntity(http.StatusOK, sessionResponse(sess))
}

// POST /api/v1/sessions/{session_id}/evaluate
func (h *Handler) Evaluate(req *restful.Request, resp *restful.Response) {
	sess, ok := h.session(req, resp)
	if !ok {
		return
	}

	if !sess.BeginEvaluation() {
		middleware.HandleError(resp, models.ErrEvaluationInFlight, http.StatusConflict)
		return
	}
	defer sess.EndEvaluation()

	h.logger.Info().Str("session_id", sess.ID).Msg("Start evaluation")

	set := sess.Snapshot()
	result, err := h.evaluator.Evaluate(req.Request.Context(), set)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Evaluation failed")
		h.writeError(resp, err)
		return
	}

	h.logger.Info().
		Str("session_id", sess.ID).
		Int("percentage", result.Percentage).
		Str("band", string(result.Band)).
		Msg("Evaluation complete")

	h.saveResult(req, sess, set, result)
	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /api/v1/history/{user}?limit=<n>
func (h *Handler) History(req *restful.Request, resp *restful.Response) {
	if h.results == nil {
		middleware.HandleError(resp, errors.New("history is not configured"), http.StatusServiceUnavailable)
		return
	}

	user := req.PathParameter("user")
	limit := 0
	if raw := req.QueryParameter("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.results.List(req.Request.Context(), user, limit)
	if err != nil {
		h.writeError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, HistoryResponse{User: user, Results: records})
}

func (h *Handler) session(req *restful.Request, resp *restful.Response) (*session.Context, bool) {
	id := req.PathParameter("session_id")
	sess, ok := h.sessions.Get(id)
	if !ok {
		middleware.HandleError(resp, errors.New("session not found"), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) saveResult(req *restful.Request, sess *session.Context, set models.AnswerSet, result models.EvaluationResult) {
	if h.results == nil || sess.User == "" {
		return
	}

	record := models.ResultRecord{User: sess.User, Track: sess.Track, Result: result}
	for _, qa := range set {
		record.Questions = append(record.Questions, qa.Question.Text)
		record.Answers = append(record.Answers, qa.Answer.Text)
	}

	if _, err := h.results.Save(req.Request.Context(), record); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to save result")
	}
}

// writeError maps the error taxonomy onto response codes.
func (h *Handler) writeError(resp *restful.Response, err error) {
	var transportErr *models.TransportError
	var malformedErr *models.MalformedResponseError
	var streamErr *models.StreamParseError
	var permissionErr *models.PermissionError

	switch {
	case errors.Is(err, models.ErrEvaluationInFlight):
		middleware.HandleError(resp, err, http.StatusConflict)
	case errors.As(err, &transportErr):
		middleware.HandleError(resp, err, http.StatusBadGateway)
	case errors.As(err, &malformedErr), errors.As(err, &streamErr):
		middleware.HandleError(resp, err, http.StatusUnprocessableEntity)
	case errors.As(err, &permissionErr):
		middleware.HandleError(resp, err, http.StatusForbidden)
	default:
		middleware.HandleError(resp, err, http.StatusInternalServerError)
	}
}

func sessionResponse(sess *session.Context) SessionResponse {
	return SessionResponse{
		SessionID: sess.ID,
		Track:     sess.Track,
		Status:    sess.Status(),
		Questions: sess.Questions(),
		CreatedAt: sess.CreatedAt,
	}
}
