// Gemini API implementation of [Curator]
//
// Request/response types based on https://ai.google.dev/api/generate-content
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

const (
	geminiBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	geminiDefaultModel  = "gemini-2.0-flash"
	geminiDefaultBackup = "gemini-2.0-pro"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// GeminiCurator implements [Curator] against the Gemini REST API. When the
// primary model is overloaded or unavailable the request is retried once on
// the fallback model.
type GeminiCurator struct {
	baseURL    string
	apiKey     string
	model      string
	fallback   string
	httpClient *http.Client
	logger     *log.Logger
}

// NewGeminiCurator creates a curator from configuration. Returns an error
// when no API key is configured.
func NewGeminiCurator(cfg shared.GeminiConfig, httpClient *http.Client, logger *log.Logger) (*GeminiCurator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}
	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}
	fallback := cfg.FallbackModel
	if fallback == "" {
		fallback = geminiDefaultBackup
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &GeminiCurator{
		baseURL:    geminiBaseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		fallback:   fallback,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Suggest asks the model for a playlist idea matching the prompt.
func (g *GeminiCurator) Suggest(ctx context.Context, prompt string, localTracks []models.Track) (*PlaylistIdea, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", shared.ErrInvalidInput)
	}

	text, err := g.generate(ctx, g.model, buildCuratorPrompt(prompt, localTracks))
	if err != nil {
		g.logger.Warn("curator model failed, trying fallback", "model", g.model, "err", err)
		text, err = g.generate(ctx, g.fallback, buildCuratorPrompt(prompt, localTracks))
		if err != nil {
			return nil, err
		}
	}

	var idea PlaylistIdea
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &idea); err != nil {
		return nil, fmt.Errorf("failed to parse curator response: %w", err)
	}
	if idea.Name == "" {
		idea.Name = prompt
	}
	return &idea, nil
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (g *GeminiCurator) generate(ctx context.Context, model, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: gemini status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty gemini response", shared.ErrAPIRequest)
	}

	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

// buildCuratorPrompt embeds the user's own library so the model can mark
// suggestions as local instead of inventing catalog lookups for them.
func buildCuratorPrompt(prompt string, localTracks []models.Track) string {
	var b strings.Builder
	b.WriteString("You are a music curator. Create a playlist for this request: ")
	b.WriteString(prompt)
	b.WriteString("\n\nRespond with JSON only, no prose, in this shape:\n")
	b.WriteString(`{"name": "playlist name", "suggestions": [{"title": "...", "artist": "...", "reason": "...", "isLocal": false}]}`)
	b.WriteString("\n\nSuggest 10 to 20 tracks.")

	if len(localTracks) > 0 {
		b.WriteString("\n\nThe user's own library is listed below. Prefer these where they fit and mark them with \"isLocal\": true:\n")
		for _, t := range localTracks {
			fmt.Fprintf(&b, "- %s by %s\n", t.Title, t.Artist)
		}
	}

	return b.String()
}

// stripCodeFence removes a surrounding markdown code fence, which the model
// adds despite being told to return bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
