package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/vivalab/interview-agent/internal/models"
)

// WhisperTranscriber uploads the audio buffer as multipart form data to the
// OpenAI transcription endpoint.
type WhisperTranscriber struct {
	client  openai.Client
	modelID string
}

func NewWhisperTranscriber(apiKey, modelID string) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if modelID == "" {
		modelID = string(openai.AudioModelWhisper1)
	}

	return &WhisperTranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		modelID: modelID,
	}, nil
}

// Transcribe uploads the clip. Auth is the account API key; the per-session
// token has no meaning for this provider.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType, _ string) (string, error) {
	filename := "answer" + extensionFor(mimeType)

	result, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.modelID),
		File:  openai.File(bytes.NewReader(audio), filename, mimeType),
	})
	if err != nil {
		return "", &models.TransportError{Op: "whisper transcription", Err: err}
	}

	return strings.TrimSpace(result.Text), nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	case strings.Contains(mimeType, "ogg"):
		return ".ogg"
	case strings.Contains(mimeType, "wav"):
		return ".wav"
	default:
		return ".mp3"
	}
}
