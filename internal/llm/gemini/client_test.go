package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/llm"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logger := zerolog.Nop()
	client, err := NewClient(baseURL, "gemini-2.0-flash", "test-token", &logger)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestInvoke_JoinsMultiPartCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"Hello, "},{"text":"world"}]},"finishReason":"STOP"}]}`)
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL).Invoke(context.Background(), llm.Request{User: "hi"})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if resp.Content != "Hello, world" {
		t.Errorf("Expected all parts joined, got %q", resp.Content)
	}
	if resp.StopReason != "STOP" {
		t.Errorf("Expected stop reason STOP, got %q", resp.StopReason)
	}
}

func TestStream_AccumulatesAllParts(t *testing.T) {
	events := []string{
		`{"candidates":[{"content":{"parts":[{"text":"<tr><td>Q1_x</td>"},{"text":"<td>2</td>"}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"<td>ok</td></tr>"}]}}]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
		}
	}))
	defer server.Close()

	var snapshots []string
	err := newTestClient(t, server.URL).Stream(context.Background(), llm.Request{User: "hi"}, func(accumulated string) {
		snapshots = append(snapshots, accumulated)
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	if len(snapshots) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0] != "<tr><td>Q1_x</td><td>2</td>" {
		t.Errorf("Expected both parts of the first event, got %q", snapshots[0])
	}
	want := "<tr><td>Q1_x</td><td>2</td><td>ok</td></tr>"
	if snapshots[1] != want {
		t.Errorf("Expected full accumulation, got %q", snapshots[1])
	}
}
