package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/vivalab/interview-agent/internal/models"
)

// TokenClient fetches the session bearer token from the token-issuing
// endpoint. The token is obtained once per session and reused for every
// provider call.
type TokenClient struct {
	endpoint string
	client   *http.Client
}

func NewTokenClient(endpoint string) (*TokenClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("token endpoint is required")
	}

	// The issuing endpoint authenticates by cookie, so the jar is required.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &TokenClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second, Jar: jar},
	}, nil
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (c *TokenClient) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &models.TransportError{Op: "token fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &models.TransportError{Op: "token fetch", Err: err}
	}

	if resp.StatusCode >= 400 {
		return "", &models.TransportError{Op: "token fetch",
			Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", models.NewMalformedResponseError("token fetch", string(body), err)
	}
	if tr.Token == "" {
		return "", models.NewMalformedResponseError("token fetch", string(body),
			fmt.Errorf("missing token field"))
	}

	return tr.Token, nil
}
