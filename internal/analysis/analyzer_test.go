package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		wantOwner string
		wantName  string
		wantErr   bool
	}{
		{"plain", "https://github.com/acme/rocket", "acme", "rocket", false},
		{"dot git suffix", "https://github.com/acme/rocket.git", "acme", "rocket", false},
		{"trailing slash", "https://github.com/acme/rocket/", "acme", "rocket", false},
		{"deep path keeps first two", "https://github.com/acme/rocket/tree/main", "acme", "rocket", false},
		{"owner only", "https://github.com/acme", "", "", true},
		{"no path", "https://github.com", "", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			owner, name, err := ParseRepoURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantOwner, owner)
			assert.Equal(t, tc.wantName, name)
		})
	}
}

func TestParseVerdict(t *testing.T) {
	raw := "Sure! Here is the review:\n```json\n" +
		`{"summary":"solid work","scores":{"code_quality":12,"originality":-3,"completeness":7},"strengths":["tests"],"improvements":["docs"]}` +
		"\n```\nLet me know if you need more."

	verdict, err := parseVerdict(raw)
	require.NoError(t, err)
	assert.Equal(t, "solid work", verdict.Summary)
	// Scores clamp into [0, 10].
	assert.Equal(t, 10.0, verdict.Scores["code_quality"])
	assert.Equal(t, 0.0, verdict.Scores["originality"])
	assert.Equal(t, 7.0, verdict.Scores["completeness"])
	assert.Equal(t, []string{"tests"}, verdict.Strengths)
}

func TestParseVerdictRejectsGarbage(t *testing.T) {
	_, err := parseVerdict("I could not access the repository.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no JSON object")

	_, err = parseVerdict(`{"scores":{"code_quality":5}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing summary")

	_, err = parseVerdict(`{"summary": broken`)
	require.Error(t, err)
}

func TestBreakerLifecycle(t *testing.T) {
	clock := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	b := NewBreaker("test-lifecycle", 2, 30*time.Second)
	b.now = func() time.Time { return clock }

	assert.True(t, b.Allow())
	b.Failure()
	assert.True(t, b.Allow())
	b.Failure() // threshold reached: open
	assert.False(t, b.Allow())

	// Cooldown not yet elapsed.
	clock = clock.Add(29 * time.Second)
	assert.False(t, b.Allow())

	// Cooldown elapsed: one probe passes, the next is shed.
	clock = clock.Add(2 * time.Second)
	assert.True(t, b.Allow())
	assert.False(t, b.Allow())

	// Failed probe reopens for a full cooldown.
	b.Failure()
	assert.False(t, b.Allow())
	clock = clock.Add(31 * time.Second)
	assert.True(t, b.Allow())

	// Successful probe closes the breaker.
	b.Success()
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

type stubError struct{ retryable bool }

func (e *stubError) Error() string   { return "stub failure" }
func (e *stubError) Retryable() bool { return e.retryable }

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	b := NewBreaker("test-nonretryable", 5, time.Second)
	var calls int32

	err := withRetry(t.Context(), "test", b, func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return &stubError{retryable: false}
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithRetryRetriesThenSucceeds(t *testing.T) {
	b := NewBreaker("test-retry", 5, time.Second)
	var calls int32

	err := withRetry(t.Context(), "test", b, func(context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return &stubError{retryable: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.True(t, b.Allow())
}

func TestWithRetryShedsWhenBreakerOpens(t *testing.T) {
	b := NewBreaker("test-shed", 1, time.Minute)
	var calls int32

	err := withRetry(t.Context(), "test", b, func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return &stubError{retryable: true}
	})
	require.ErrorIs(t, err, ErrBreakerOpen)
	// The first failure opened the breaker; the retry never ran.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchRepoFacts(t *testing.T) {
	readme := base64.StdEncoding.EncodeToString([]byte("# Rocket\nA demo."))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/rocket":
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"full_name":        "acme/rocket",
				"description":      "a demo",
				"stargazers_count": 42,
				"pushed_at":        "2026-06-01T00:00:00Z",
			})
		case "/repos/acme/rocket/languages":
			_ = json.NewEncoder(w).Encode(map[string]int{"Go": 1000, "Shell": 10})
		case "/repos/acme/rocket/readme":
			_ = json.NewEncoder(w).Encode(map[string]string{
				"content":  readme + "\n",
				"encoding": "base64",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewForgeClient(srv.URL, "", time.Second)
	facts, err := client.FetchRepoFacts(t.Context(), "https://github.com/acme/rocket")
	require.NoError(t, err)

	assert.Equal(t, "acme/rocket", facts.FullName)
	assert.Equal(t, 42, facts.Stars)
	assert.Equal(t, 1000, facts.Languages["Go"])
	assert.Contains(t, facts.Readme, "# Rocket")
}

func TestFetchRepoFactsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewForgeClient(srv.URL, "", time.Second)
	_, err := client.FetchRepoFacts(t.Context(), "https://github.com/acme/missing")
	require.Error(t, err)

	var fe *forgeError
	require.True(t, errors.As(err, &fe))
	assert.False(t, fe.Retryable())
}

func TestCompletionComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "grader-1", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "graded"}},
			},
		})
	}))
	defer srv.Close()

	client := NewCompletionClient(srv.URL, "sk-test", "grader-1", time.Second)
	out, err := client.Complete(t.Context(), "grade this", "repo facts")
	require.NoError(t, err)
	assert.Equal(t, "graded", out)
}

func TestCompletionRejectsClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewCompletionClient(srv.URL, "", "grader-1", time.Second)
	_, err := client.Complete(t.Context(), "s", "u")
	require.Error(t, err)
	// 4xx is not retryable: exactly one upstream call.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnalyzeEndToEnd(t *testing.T) {
	forgeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/rocket":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"full_name": "acme/rocket",
				"pushed_at": "2026-06-01T00:00:00Z",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer forgeSrv.Close()

	completionSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"summary":"fine","scores":{"code_quality":8},"strengths":[],"improvements":[]}`
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	defer completionSrv.Close()

	analyzer := NewAnalyzer(
		NewForgeClient(forgeSrv.URL, "", time.Second),
		NewCompletionClient(completionSrv.URL, "", "grader-1", time.Second),
	)
	generatedAt := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	analyzer.now = func() time.Time { return generatedAt }

	verdict, err := analyzer.Analyze(t.Context(), "https://github.com/acme/rocket")
	require.NoError(t, err)
	assert.Equal(t, "fine", verdict.Summary)
	assert.Equal(t, 8.0, verdict.Scores["code_quality"])
	assert.Equal(t, "grader-1", verdict.Model)
	assert.Equal(t, generatedAt, verdict.GeneratedAt)
}
