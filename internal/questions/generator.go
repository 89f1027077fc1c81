package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vivalab/interview-agent/internal/llm"
	"github.com/vivalab/interview-agent/internal/models"
)

// Generator synthesizes a question set from a hosted repository: it pulls a
// sample of source files through the code-hosting API and asks the model to
// emit a question array. The output is validated for parseability only, not
// for rubric quality.
type Generator struct {
	client   llm.Client
	apiBase  string
	apiToken string
	http     *http.Client
	logger   *zerolog.Logger
}

const (
	defaultAPIBase = "https://api.github.com"
	maxFiles       = 8
	maxFileBytes   = 16 * 1024
)

func NewGenerator(client llm.Client, apiToken string, logger *zerolog.Logger) *Generator {
	return &Generator{
		client:   client,
		apiBase:  defaultAPIBase,
		apiToken: apiToken,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
	}
}

type treeResponse struct {
	Tree []struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int    `json:"size"`
	} `json:"tree"`
}

// Generate fetches up to maxFiles source files from owner/repo and asks the
// model for a question array covering them.
func (g *Generator) Generate(ctx context.Context, owner, repo, branch string, count int) ([]models.Question, error) {
	if branch == "" {
		branch = "main"
	}
	if count <= 0 {
		count = 5
	}

	paths, err := g.listSourceFiles(ctx, owner, repo, branch)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source files found in %s/%s", owner, repo)
	}

	var corpus strings.Builder
	for _, path := range paths {
		content, err := g.fetchRaw(ctx, owner, repo, branch, path)
		if err != nil {
			g.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			continue
		}
		fmt.Fprintf(&corpus, "--- %s ---\n%s\n\n", path, content)
	}

	prompt := fmt.Sprintf(
		"Based on the following source files, produce %d interview questions as a JSON array. "+
			"Each element must have the shape {\"id\": <ordinal from 1>, \"text\": <question>, "+
			"\"rubric\": [{\"name\": <criterion>, \"max_score\": 2}, ...]}. "+
			"Return only the JSON array.\n\n%s", count, corpus.String())

	resp, err := g.client.Invoke(ctx, llm.Request{User: prompt, MaxTokens: 4096})
	if err != nil {
		return nil, err
	}

	catalog, err := Parse([]byte(stripFence(resp.Content)))
	if err != nil {
		return nil, models.NewMalformedResponseError("question generation", resp.Content, err)
	}

	generated, err := catalog.Track(DefaultTrack)
	if err != nil {
		return nil, models.NewMalformedResponseError("question generation", resp.Content, err)
	}

	g.logger.Info().
		Str("repo", owner+"/"+repo).
		Int("questions", len(generated)).
		Msg("question set generated")
	return generated, nil
}

func (g *Generator) listSourceFiles(ctx context.Context, owner, repo, branch string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1", g.apiBase, owner, repo, branch)

	body, err := g.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var tree treeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, models.NewMalformedResponseError("repository tree", string(body), err)
	}

	var paths []string
	for _, node := range tree.Tree {
		if node.Type != "blob" || node.Size > maxFileBytes {
			continue
		}
		if !isSourcePath(node.Path) {
			continue
		}
		paths = append(paths, node.Path)
		if len(paths) == maxFiles {
			break
		}
	}
	return paths, nil
}

func (g *Generator) fetchRaw(ctx context.Context, owner, repo, branch, path string) (string, error) {
	endpoint := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", owner, repo, branch, path)
	body, err := g.get(ctx, endpoint)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (g *Generator) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if g.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiToken)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, &models.TransportError{Op: "repository fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.TransportError{Op: "repository fetch", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &models.TransportError{Op: "repository fetch",
			Err: fmt.Errorf("status %d for %s", resp.StatusCode, endpoint)}
	}
	return body, nil
}

var sourceSuffixes = []string{".go", ".py", ".js", ".ts", ".java", ".rb", ".rs", ".c", ".cpp"}

func isSourcePath(path string) bool {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func stripFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	firstNewline := strings.Index(content, "\n")
	closing := strings.LastIndex(content, "```")
	if firstNewline == -1 || closing <= firstNewline {
		return content
	}
	return strings.TrimSpace(content[firstNewline+1 : closing])
}
