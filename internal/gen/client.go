// Package gen wraps the hosted text-generation service used for title
// suggestion and post summarization.
//
// Generation is best effort: any failure degrades to a fixed fallback string
// and is never surfaced to the caller as an error.
package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"campusnet/internal/models"
	"campusnet/internal/observability"
)

const (
	// FallbackTitle is returned when title suggestion fails for any reason.
	FallbackTitle = "Post Title"
	// FallbackSummary is returned when summarization fails for any reason.
	FallbackSummary = "Could not summarize post."
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HTTPGenerator calls the generation service's REST endpoint.
type HTTPGenerator struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPGenerator returns a generator rooted at baseURL.
func NewHTTPGenerator(baseURL, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// Generate submits the prompt and returns the generated text.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("x-api-key", g.apiKey)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// Service exposes the two product prompts over a Generator, memoizing
// successful results.
type Service struct {
	gen   Generator
	cache *Cache
}

// NewService returns a Service. cache may be nil to disable memoization.
func NewService(gen Generator, cache *Cache) *Service {
	return &Service{gen: gen, cache: cache}
}

// SuggestTitle suggests a short title for the given post content.
func (s *Service) SuggestTitle(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(
		"Based on the following post content, suggest a short, catchy title (less than 10 words):\n\n---\n%s\n---",
		content,
	)
	text, err := s.generate(ctx, "title", prompt)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "title suggestion failed", "error", err.Error())
		return FallbackTitle
	}
	return strings.ReplaceAll(strings.TrimSpace(text), `"`, "")
}

// Summarize summarizes the post in one sentence.
func (s *Service) Summarize(ctx context.Context, post models.Post) string {
	prompt := fmt.Sprintf(
		"Summarize the following post in one sentence:\n\nTitle: %s\nContent: %s",
		post.Title, post.Content,
	)
	text, err := s.generate(ctx, "summary:"+post.ID, prompt)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "summarization failed",
			"post_id", post.ID, "error", err.Error())
		return FallbackSummary
	}
	return strings.TrimSpace(text)
}

func (s *Service) generate(ctx context.Context, kind, prompt string) (string, error) {
	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, kind, prompt); ok {
			observability.GenCacheHits.WithLabelValues("hit").Inc()
			return text, nil
		}
		observability.GenCacheHits.WithLabelValues("miss").Inc()
	}

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Put(ctx, kind, prompt, text)
	}
	return text, nil
}
