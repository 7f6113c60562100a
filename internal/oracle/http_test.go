package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseStructured(t *testing.T) {
	res := Parse(`{"urgency_level": "Urgent", "confidence": 0.8}`)
	if !res.Structured {
		t.Fatalf("expected structured result")
	}
	var obj map[string]any
	if err := json.Unmarshal(res.JSON, &obj); err != nil {
		t.Fatalf("expected valid JSON payload: %v", err)
	}
}

func TestParseStripsMarkdownFence(t *testing.T) {
	res := Parse("```json\n{\"urgency_level\": \"Urgent\"}\n```")
	if !res.Structured {
		t.Fatalf("expected fenced JSON to be recognized as structured")
	}
}

func TestParseFreeText(t *testing.T) {
	res := Parse("The patient likely has a common cold.")
	if res.Structured {
		t.Fatalf("expected free text to stay unstructured")
	}
	if res.Text == "" {
		t.Fatalf("expected original text to be preserved")
	}
}

func TestParseMalformedJSON(t *testing.T) {
	res := Parse(`{"urgency_level": "Urgent",`)
	if res.Structured {
		t.Fatalf("expected malformed JSON to stay unstructured")
	}
}

func TestGenerateHitsChatCompletions(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\": true}"}}]}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, APIKey: "test-key", Model: "test-model"}
	res, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Structured {
		t.Fatalf("expected structured result, got %+v", res)
	}

	// second identical prompt is served from cache
	if _, err := c.Generate(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error on cached call: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}
}

func TestGenerateRequiresConfig(t *testing.T) {
	c := &HTTPClient{}
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error when base URL is missing")
	}
}

func TestGenerateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, Model: "test-model"}
	if _, err := c.Generate(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error on 503 response")
	}
}
