package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// forgeError wraps upstream failures with retryability.
type forgeError struct {
	status int
	msg    string
}

func (e *forgeError) Error() string {
	return fmt.Sprintf("forge: %s (status %d)", e.msg, e.status)
}

// Retryable marks 5xx and rate-limit responses as worth another attempt.
func (e *forgeError) Retryable() bool {
	return e.status >= 500 || e.status == http.StatusTooManyRequests
}

// RepoFacts is the snapshot of a repository used to build the grading prompt.
type RepoFacts struct {
	FullName    string         `json:"full_name"`
	Description string         `json:"description"`
	Languages   map[string]int `json:"languages"`
	Readme      string         `json:"readme"`
	Stars       int            `json:"stars"`
	PushedAt    time.Time      `json:"pushed_at"`
}

// ForgeClient fetches repository metadata from a GitHub-compatible API.
type ForgeClient struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *Breaker
}

// NewForgeClient returns a ForgeClient against the given API base.
func NewForgeClient(baseURL, token string, timeout time.Duration) *ForgeClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ForgeClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		breaker: NewBreaker("forge", 5, 30*time.Second),
	}
}

// ParseRepoURL extracts owner/name from a repository URL.
func ParseRepoURL(repoURL string) (owner, name string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL must contain owner and name")
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func (c *ForgeClient) get(ctx context.Context, path string, out interface{}) error {
	return withRetry(ctx, "forge", c.breaker, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return &forgeError{status: http.StatusServiceUnavailable, msg: err.Error()}
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode == http.StatusNotFound {
			return &forgeError{status: resp.StatusCode, msg: "repository not found"}
		}
		if resp.StatusCode != http.StatusOK {
			return &forgeError{status: resp.StatusCode, msg: "unexpected response"}
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

// FetchRepoFacts gathers metadata, languages and the README for a repository.
func (c *ForgeClient) FetchRepoFacts(ctx context.Context, repoURL string) (*RepoFacts, error) {
	owner, name, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("/repos/%s/%s", owner, name)

	var meta struct {
		FullName    string    `json:"full_name"`
		Description string    `json:"description"`
		Stars       int       `json:"stargazers_count"`
		PushedAt    time.Time `json:"pushed_at"`
	}
	if err := c.get(ctx, base, &meta); err != nil {
		return nil, err
	}

	facts := &RepoFacts{
		FullName:    meta.FullName,
		Description: meta.Description,
		Stars:       meta.Stars,
		PushedAt:    meta.PushedAt,
	}

	// Languages and README are enrichments: failures there degrade the
	// prompt but do not fail the analysis.
	var languages map[string]int
	if err := c.get(ctx, base+"/languages", &languages); err == nil {
		facts.Languages = languages
	}

	var readme struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if err := c.get(ctx, base+"/readme", &readme); err == nil && readme.Encoding == "base64" {
		if decoded, derr := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", "")); derr == nil {
			facts.Readme = truncate(string(decoded), 8000)
		}
	}

	return facts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
