package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/models"
	"github.com/romeirofernandes/vhack-sub000/internal/observability"
)

const gradingSystemPrompt = `You are a hackathon project reviewer. Grade the repository described by the user.
Respond with a single JSON object and nothing else, shaped as:
{"summary": string, "scores": {"code_quality": number, "originality": number, "completeness": number}, "strengths": [string], "improvements": [string]}
All scores are between 0 and 10.`

// Analyzer orchestrates repository analysis: fetch facts from the forge,
// grade them with the completion model, parse the verdict.
type Analyzer struct {
	forge      *ForgeClient
	completion *CompletionClient
	now        func() time.Time
}

// NewAnalyzer returns a new Analyzer.
func NewAnalyzer(forge *ForgeClient, completion *CompletionClient) *Analyzer {
	return &Analyzer{
		forge:      forge,
		completion: completion,
		now:        time.Now,
	}
}

// buildPrompt renders repo facts into the grading prompt.
func buildPrompt(facts *RepoFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", facts.FullName)
	if facts.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", facts.Description)
	}
	if len(facts.Languages) > 0 {
		names := make([]string, 0, len(facts.Languages))
		for lang := range facts.Languages {
			names = append(names, lang)
		}
		sort.Slice(names, func(i, j int) bool {
			return facts.Languages[names[i]] > facts.Languages[names[j]]
		})
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Last pushed: %s\n", facts.PushedAt.Format(time.RFC3339))
	if facts.Readme != "" {
		fmt.Fprintf(&b, "\nREADME:\n%s\n", facts.Readme)
	}
	return b.String()
}

// parseVerdict extracts the JSON verdict from the completion text, tolerating
// surrounding prose or markdown fences.
func parseVerdict(raw string) (*models.Analysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion")
	}

	var verdict struct {
		Summary      string             `json:"summary"`
		Scores       map[string]float64 `json:"scores"`
		Strengths    []string           `json:"strengths"`
		Improvements []string           `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &verdict); err != nil {
		return nil, fmt.Errorf("malformed verdict: %w", err)
	}
	if verdict.Summary == "" {
		return nil, fmt.Errorf("verdict missing summary")
	}
	for key, value := range verdict.Scores {
		if value < 0 {
			verdict.Scores[key] = 0
		}
		if value > 10 {
			verdict.Scores[key] = 10
		}
	}

	return &models.Analysis{
		Summary:      verdict.Summary,
		Scores:       verdict.Scores,
		Strengths:    verdict.Strengths,
		Improvements: verdict.Improvements,
	}, nil
}

// Analyze grades the repository behind repoURL.
func (a *Analyzer) Analyze(ctx context.Context, repoURL string) (*models.Analysis, error) {
	facts, err := a.forge.FetchRepoFacts(ctx, repoURL)
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("forge_error").Inc()
		return nil, err
	}

	raw, err := a.completion.Complete(ctx, gradingSystemPrompt, buildPrompt(facts))
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("completion_error").Inc()
		return nil, err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("parse_error").Inc()
		return nil, err
	}

	verdict.Model = a.completion.Model()
	verdict.GeneratedAt = a.now()
	observability.AnalysisRequests.WithLabelValues("ok").Inc()
	return verdict, nil
}
