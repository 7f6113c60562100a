package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPClient talks to an OpenAI-compatible chat completions endpoint.
type HTTPClient struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration

	cacheMu sync.Mutex
	cache   map[string]cacheEntry
}

type cacheEntry struct {
	value Result
	exp   time.Time
}

const cacheTTL = 60 * time.Second

func (c *HTTPClient) Generate(ctx context.Context, prompt string) (Result, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return Result{}, fmt.Errorf("ORACLE_URL is not set")
	}
	if strings.TrimSpace(c.Model) == "" {
		return Result{}, fmt.Errorf("ORACLE_MODEL is not set")
	}

	if v, ok := c.cacheGet(prompt); ok {
		return v, nil
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	maxTokens := c.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	payload := struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []msg   `json:"messages"`
	}{
		Model:       c.Model,
		Temperature: 0.3,
		MaxTokens:   maxTokens,
		Messages:    []msg{{Role: "user", Content: prompt}},
	}

	b, _ := json.Marshal(payload)
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("oracle request timed out")
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return Result{}, fmt.Errorf("oracle request timed out")
		}
		return Result{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return Result{}, fmt.Errorf("oracle http error: %s: %v", resp.Status, errBody)
	}

	var res struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, err
	}
	if len(res.Choices) == 0 {
		return Result{}, fmt.Errorf("empty oracle response")
	}

	result := Parse(res.Choices[0].Message.Content)
	c.cacheSet(prompt, result)
	return result, nil
}

// Parse decides whether a completion is a well-formed JSON object. Models
// often wrap JSON in markdown fences, so those are stripped first.
func Parse(content string) Result {
	trimmed := stripFence(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			return Result{Structured: true, JSON: json.RawMessage(trimmed)}
		}
	}
	return Result{Text: content}
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (c *HTTPClient) cacheGet(key string) (Result, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if e, ok := c.cache[key]; ok {
		if time.Now().Before(e.exp) {
			return e.value, true
		}
		delete(c.cache, key)
	}
	return Result{}, false
}

func (c *HTTPClient) cacheSet(key string, value Result) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	if c.cache == nil {
		c.cache = map[string]cacheEntry{}
	}
	c.cache[key] = cacheEntry{value: value, exp: time.Now().Add(cacheTTL)}
}
