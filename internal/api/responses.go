package api

import (
	"time"

	"github.com/vivalab/interview-agent/internal/models"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type CreateSessionRequest struct {
	Track string `json:"track,omitempty"`
	User  string `json:"user,omitempty"`
}

type SessionResponse struct {
	SessionID string            `json:"session_id"`
	Track     string            `json:"track"`
	Status    string            `json:"status"`
	Questions []models.Question `json:"questions"`
	CreatedAt time.Time         `json:"created_at"`
}

type AnswerRequest struct {
	Text string `json:"text"`
}

// CaptureErrorRequest is the capture client's report of a denied resource
// grant, typically the microphone.
type CaptureErrorRequest struct {
	Resource string `json:"resource,omitempty"`
}

type TranscribeResponse struct {
	QuestionID int    `json:"question_id"`
	Transcript string `json:"transcript"`
}

type GenerateQuestionsRequest struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
	Count  int    `json:"count,omitempty"`
}

type QuestionsResponse struct {
	Track     string            `json:"track"`
	Questions []models.Question `json:"questions"`
}

type HistoryResponse struct {
	User    string                `json:"user"`
	Results []models.ResultRecord `json:"results"`
}
