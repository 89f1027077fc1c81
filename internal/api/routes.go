package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"

	"github.com/vivalab/interview-agent/internal/api/middleware"
	"github.com/vivalab/interview-agent/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("/questions").
			To(handler.ListQuestions).
			Doc("List questions for a track").
			Metadata(restfulspec.KeyOpenAPITags, []string{"questions"}).
			Param(ws.QueryParameter("track", "Track name (default: 'default')").DataType("string").Required(false)).
			Writes(QuestionsResponse{}).
			Returns(200, "OK", QuestionsResponse{}).
			Returns(404, "Track Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/questions/generate").
			To(handler.GenerateQuestions).
			Doc("Generate questions from a public repository").
			Metadata(restfulspec.KeyOpenAPITags, []string{"questions"}).
			Reads(GenerateQuestionsRequest{}).
			Writes(QuestionsResponse{}).
			Returns(200, "OK", QuestionsResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(502, "Upstream Failure", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/questions/reload").
			To(handler.ReloadQuestions).
			Doc("Re-read the questions file").
			Metadata(restfulspec.KeyOpenAPITags, []string{"questions"}).
			Returns(204, "Reloaded", nil).
			Returns(500, "Reload Failed", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/sessions").
			To(handler.CreateSession).
			Doc("Create an interview session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Reads(CreateSessionRequest{}).
			Writes(SessionResponse{}).
			Returns(201, "Created", SessionResponse{}).
			Returns(404, "Track Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/sessions/{session_id}").
			To(handler.GetSession).
			Doc("Fetch session state").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Writes(SessionResponse{}).
			Returns(200, "OK", SessionResponse{}).
			Returns(404, "Session Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.DELETE("/sessions/{session_id}").
			To(handler.DeleteSession).
			Doc("Discard a session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Returns(204, "Deleted", nil).
			Returns(404, "Session Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.PUT("/sessions/{session_id}/answers/{question_id}").
			To(handler.SetAnswer).
			Doc("Record or overwrite a typed answer").
			Metadata(restfulspec.KeyOpenAPITags, []string{"answers"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Param(ws.PathParameter("question_id", "Question ordinal").DataType("integer")).
			Reads(AnswerRequest{}).
			Returns(204, "Recorded", nil).
			Returns(404, "Unknown Session or Question", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/sessions/{session_id}/answers/{question_id}/transcribe").
			To(handler.Transcribe).
			Doc("Transcribe an audio answer and record the transcript").
			Metadata(restfulspec.KeyOpenAPITags, []string{"answers"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Param(ws.PathParameter("question_id", "Question ordinal").DataType("integer")).
			Consumes("audio/webm", "audio/wav", "audio/mpeg", "audio/mp4", "audio/ogg").
			Writes(TranscribeResponse{}).
			Returns(200, "OK", TranscribeResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(413, "Audio Too Large", middleware.ErrorResponse{}).
			Returns(502, "Transcription Upstream Failure", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/sessions/{session_id}/capture-error").
			To(handler.ReportCaptureError).
			Doc("Report a denied capture permission for a session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"sessions"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Reads(CaptureErrorRequest{}).
			Writes(SessionResponse{}).
			Returns(200, "OK", SessionResponse{}).
			Returns(404, "Session Not Found", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/sessions/{session_id}/evaluate").
			To(handler.Evaluate).
			Doc("Score the session's answers").
			Metadata(restfulspec.KeyOpenAPITags, []string{"evaluate"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Writes(models.EvaluationResult{}).
			Returns(200, "OK", models.EvaluationResult{}).
			Returns(404, "Session Not Found", middleware.ErrorResponse{}).
			Returns(409, "Evaluation In Flight", middleware.ErrorResponse{}).
			Returns(422, "Unscorable Response", middleware.ErrorResponse{}).
			Returns(502, "Model Upstream Failure", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/sessions/{session_id}/evaluate/stream").
			To(handler.EvaluateStream).
			Doc("Score the session's answers, streaming partial renderings as server-sent events").
			Metadata(restfulspec.KeyOpenAPITags, []string{"evaluate"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Produces("text/event-stream").
			Returns(200, "Event Stream", nil).
			Returns(404, "Session Not Found", middleware.ErrorResponse{}).
			Returns(409, "Evaluation In Flight", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/history/{user}").
			To(handler.History).
			Doc("List past evaluation results for a user").
			Metadata(restfulspec.KeyOpenAPITags, []string{"history"}).
			Param(ws.PathParameter("user", "User identifier").DataType("string")).
			Param(ws.QueryParameter("limit", "Max records to return (default: 20)").DataType("integer").Required(false)).
			Writes(HistoryResponse{}).
			Returns(200, "OK", HistoryResponse{}).
			Returns(503, "History Not Configured", middleware.ErrorResponse{}))

	container.Add(ws)
}
