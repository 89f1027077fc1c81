package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/models"
)

type Client struct {
	Client  openai.Client
	ModelID string
}

func NewClient(apiKey string, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("OpenAI model ID is required")
	}

	openaiClient := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	)

	return &Client{
		Client:  openaiClient,
		ModelID: model,
	}, nil
}

func (c *Client) Invoke(ctx context.Context, request llm.Request) (*llm.Response, error) {
	output, err := c.Client.Chat.Completions.New(ctx, c.params(request))
	if err != nil {
		return nil, &models.TransportError{Op: "openai chat completion", Err: err}
	}

	if len(output.Choices) == 0 {
		return nil, models.NewMalformedResponseError("openai chat completion", "",
			fmt.Errorf("no choices in response"))
	}

	choice := output.Choices[0]
	return &llm.Response{
		Content:    choice.Message.Content,
		StopReason: fmt.Sprint(choice.FinishReason),
	}, nil
}

// Stream accumulates chunk deltas and reports the full content so far on
// every chunk, matching the snapshot contract of llm.StreamClient.
func (c *Client) Stream(ctx context.Context, request llm.Request, onSnapshot func(accumulated string)) error {
	stream := c.Client.Chat.Completions.NewStreaming(ctx, c.params(request))
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(acc.Choices) > 0 && acc.Choices[0].Message.Content != "" {
			onSnapshot(acc.Choices[0].Message.Content)
		}
	}

	if err := stream.Err(); err != nil {
		return &models.TransportError{Op: "openai stream", Err: err}
	}
	return nil
}

func (c *Client) params(request llm.Request) openai.ChatCompletionNewParams {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}
	messages = append(messages, openai.UserMessage(request.User))

	return openai.ChatCompletionNewParams{
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(c.ModelID),
	}
}
