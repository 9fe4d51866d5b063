package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

func geminiReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func newTestCurator(t *testing.T, handler http.HandlerFunc) *GeminiCurator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	curator, err := NewGeminiCurator(shared.GeminiConfig{APIKey: "test-key"}, nil, nil)
	if err != nil {
		t.Fatalf("expected curator, got %v", err)
	}
	curator.baseURL = server.URL
	return curator
}

func TestGeminiCurator(t *testing.T) {
	idea := `{"name":"Rainy Day Jazz","suggestions":[{"title":"Take Five","artist":"The Dave Brubeck Quartet","reason":"a classic","isLocal":false}]}`

	t.Run("Missing API Key", func(t *testing.T) {
		_, err := NewGeminiCurator(shared.GeminiConfig{}, nil, nil)
		if err == nil {
			t.Error("expected error without api key")
		}
	})

	t.Run("Parses Bare JSON", func(t *testing.T) {
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, geminiReply(idea))
		})

		got, err := curator.Suggest(context.Background(), "rainy day jazz", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Name != "Rainy Day Jazz" {
			t.Errorf("unexpected name %s", got.Name)
		}
		if len(got.Suggestions) != 1 || got.Suggestions[0].Title != "Take Five" {
			t.Errorf("unexpected suggestions %v", got.Suggestions)
		}
	})

	t.Run("Strips Code Fence", func(t *testing.T) {
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, geminiReply("```json\n"+idea+"\n```"))
		})

		got, err := curator.Suggest(context.Background(), "rainy day jazz", nil)
		if err != nil {
			t.Fatalf("expected fenced JSON parsed, got %v", err)
		}
		if got.Name != "Rainy Day Jazz" {
			t.Errorf("unexpected name %s", got.Name)
		}
	})

	t.Run("Falls Back To Secondary Model", func(t *testing.T) {
		var attempts []string
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(r.URL.Path, "/")
			model := strings.TrimSuffix(parts[len(parts)-1], ":generateContent")
			attempts = append(attempts, model)
			if len(attempts) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, geminiReply(idea))
		})

		_, err := curator.Suggest(context.Background(), "rainy day jazz", nil)
		if err != nil {
			t.Fatalf("expected fallback to succeed, got %v", err)
		}
		if len(attempts) != 2 {
			t.Fatalf("expected two attempts, got %d", len(attempts))
		}
		if attempts[0] == attempts[1] {
			t.Error("expected second attempt on a different model")
		}
	})

	t.Run("Embeds Local Library", func(t *testing.T) {
		var prompt string
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
			var req geminiRequest
			json.NewDecoder(r.Body).Decode(&req)
			prompt = req.Contents[0].Parts[0].Text
			fmt.Fprint(w, geminiReply(idea))
		})

		local := []models.Track{{Title: "My Song", Artist: "Me"}}
		if _, err := curator.Suggest(context.Background(), "something", local); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(prompt, "My Song by Me") {
			t.Error("expected local library embedded in prompt")
		}
	})

	t.Run("Empty Prompt Rejected", func(t *testing.T) {
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {})

		if _, err := curator.Suggest(context.Background(), "  ", nil); err == nil {
			t.Error("expected error for empty prompt")
		}
	})

	t.Run("Malformed Response", func(t *testing.T) {
		curator := newTestCurator(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, geminiReply("sorry, I cannot do that"))
		})

		if _, err := curator.Suggest(context.Background(), "something", nil); err == nil {
			t.Error("expected error for non-JSON reply")
		}
	})
}

func TestStripCodeFence(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare json", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "plain fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "padded", in: "  ```json\n{\"a\":1}\n```  ", want: `{"a":1}`},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence() = %v, want %v", got, tt.want)
			}
		})
	}
}
