package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snapquiz-service/internal/domain"
	"snapquiz-service/internal/engine"
)

func TestClientGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req engine.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Document != "some text" || req.QuestionCount != 2 {
			t.Fatalf("unexpected request %+v", req)
		}
		_ = json.NewEncoder(w).Encode(engine.GenerateResult{
			Questions: domain.QuestionSet{
				{
					Text:       "What is 2 + 2?",
					Options:    map[string]string{"A": "3", "B": "4", "C": "5", "D": "6"},
					Answer:     "B",
					Difficulty: domain.DifficultyEasy,
				},
				{
					Text:       "What is 3 + 3?",
					Options:    map[string]string{"A": "6", "B": "5", "C": "7", "D": "8"},
					Answer:     "A",
					Difficulty: domain.DifficultyMedium,
				},
			},
			TimeLimitMinutes: 15,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	result, err := client.Generate(context.Background(), engine.GenerateRequest{
		Document:      "some text",
		QuestionCount: 2,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(result.Questions) != 2 || result.TimeLimitMinutes != 15 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Questions[0].Answer != "B" {
		t.Fatalf("unexpected first question %+v", result.Questions[0])
	}
}

func TestClientReportsUnavailableOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Generate(context.Background(), engine.GenerateRequest{Document: "doc"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestClientReportsUnavailableOnEmptySet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(engine.GenerateResult{})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Generate(context.Background(), engine.GenerateRequest{Document: "doc"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestRequestKeyCoversAllRequestFields(t *testing.T) {
	base := engine.GenerateRequest{Document: "doc", Title: "a.pdf", QuestionCount: 5, TimeLimitMinutes: 10}
	if requestKey(base) != requestKey(base) {
		t.Fatalf("expected stable key for identical requests")
	}

	limit := base
	limit.TimeLimitMinutes = 20
	if requestKey(base) == requestKey(limit) {
		t.Fatalf("requests with different time limits must not collapse")
	}

	title := base
	title.Title = "b.pdf"
	if requestKey(base) == requestKey(title) {
		t.Fatalf("requests with different titles must not collapse")
	}

	count := base
	count.QuestionCount = 6
	if requestKey(base) == requestKey(count) {
		t.Fatalf("requests with different counts must not collapse")
	}
}

func TestClientReportsUnavailableWhenDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	client := NewClient(server.URL, time.Second)
	_, err := client.Generate(context.Background(), engine.GenerateRequest{Document: "doc"})
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}
