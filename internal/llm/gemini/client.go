package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/models"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client is a minimal Gemini client speaking the generateContent REST API.
// Streaming uses the SSE variant of the same endpoint.
type Client struct {
	baseURL string
	modelID string
	token   string
	client  *http.Client
	logger  *zerolog.Logger
}

func NewClient(baseURL, modelID, token string, logger *zerolog.Logger) (*Client, error) {
	if modelID == "" {
		return nil, fmt.Errorf("gemini model ID is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		modelID: modelID,
		token:   token,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}, nil
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (c *Client) Invoke(ctx context.Context, request llm.Request) (*llm.Response, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.modelID)

	raw, status, err := c.post(ctx, endpoint, buildPayload(request))
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, &models.TransportError{Op: "gemini generateContent",
			Err: fmt.Errorf("status %d", status)}
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, models.NewMalformedResponseError("gemini generateContent", string(raw), err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, models.NewMalformedResponseError("gemini generateContent", string(raw),
			fmt.Errorf("no candidates in response"))
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return &llm.Response{
		Content:    text.String(),
		StopReason: gr.Candidates[0].FinishReason,
	}, nil
}

// Stream submits the same request over the SSE endpoint and invokes
// onSnapshot with the full accumulated content after every delivery.
func (c *Client) Stream(ctx context.Context, request llm.Request, onSnapshot func(accumulated string)) error {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse", c.baseURL, c.modelID)

	body, err := json.Marshal(buildPayload(request))
	if err != nil {
		return fmt.Errorf("failed to serialize gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &models.TransportError{Op: "gemini stream", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &models.TransportError{Op: "gemini stream",
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var accumulated strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var gr generateResponse
		if err := json.Unmarshal([]byte(data), &gr); err != nil {
			c.logger.Warn().Err(err).Msg("skipping unparseable stream event")
			continue
		}
		if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
			continue
		}

		for _, p := range gr.Candidates[0].Content.Parts {
			accumulated.WriteString(p.Text)
		}
		onSnapshot(accumulated.String())
	}

	if err := scanner.Err(); err != nil {
		return &models.TransportError{Op: "gemini stream", Err: err}
	}
	return nil
}

func buildPayload(request llm.Request) generateRequest {
	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: request.User}}},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens: request.MaxTokens,
			Temperature:     request.Temperature,
		},
	}
	if request.System != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: request.System}}}
	}
	return payload
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to serialize gemini request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &models.TransportError{Op: "gemini request", Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, 0, &models.TransportError{Op: "gemini request", Err: err}
	}
	return buf.Bytes(), resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
