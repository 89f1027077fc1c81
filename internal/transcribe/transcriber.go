package transcribe

import (
	"context"
)

// Provider selects a transcription backend. Resolved once at wiring time.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderWhisper Provider = "whisper"
)

// Transcriber turns a finished audio buffer into plain text. Both providers
// are one-shot request/response; no streaming. The token is the session's
// bearer token; providers that authenticate with an API key ignore it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, token string) (string, error)
}
