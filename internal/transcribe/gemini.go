package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vivalab/interview-agent/internal/models"
)

// GeminiTranscriber submits base64-encoded audio embedded in a JSON request
// to the generateContent endpoint and reads back the transcript text.
type GeminiTranscriber struct {
	baseURL string
	modelID string
	token   string
	prompt  string
	client  *http.Client
}

func NewGeminiTranscriber(baseURL, modelID, token, prompt string) *GeminiTranscriber {
	if prompt == "" {
		prompt = "Transcribe this audio clip accurately"
	}
	return &GeminiTranscriber{
		baseURL: strings.TrimRight(baseURL, "/"),
		modelID: modelID,
		token:   token,
		prompt:  prompt,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type transcribeRequest struct {
	Contents []struct {
		Role  string       `json:"role"`
		Parts []promptPart `json:"parts"`
	} `json:"contents"`
}

type promptPart struct {
	Text       string       `json:"text,omitempty"`
	InlineData *inlineAudio `json:"inline_data,omitempty"`
}

type inlineAudio struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type transcribeResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Transcribe submits the audio under the session token; the wiring-time
// token only serves as a fallback when the session carries none.
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType, token string) (string, error) {
	if token == "" {
		token = t.token
	}
	var payload transcribeRequest
	payload.Contents = append(payload.Contents, struct {
		Role  string       `json:"role"`
		Parts []promptPart `json:"parts"`
	}{
		Role: "user",
		Parts: []promptPart{
			{Text: t.prompt},
			{InlineData: &inlineAudio{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(audio),
			}},
		},
	})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("unable to serialize transcription request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", t.baseURL, t.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &models.TransportError{Op: "gemini transcription", Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", &models.TransportError{Op: "gemini transcription", Err: err}
	}

	if resp.StatusCode >= 400 {
		return "", &models.TransportError{Op: "gemini transcription",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(buf.String(), 200))}
	}

	var tr transcribeResponse
	if err := json.Unmarshal(buf.Bytes(), &tr); err != nil {
		return "", models.NewMalformedResponseError("gemini transcription", buf.String(), err)
	}
	if len(tr.Candidates) == 0 || len(tr.Candidates[0].Content.Parts) == 0 {
		return "", models.NewMalformedResponseError("gemini transcription", buf.String(),
			fmt.Errorf("no transcript in response"))
	}

	return strings.TrimSpace(tr.Candidates[0].Content.Parts[0].Text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
