package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnthropicDescriber_Describe_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Expected x-api-key test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("Expected anthropic-version header")
		}

		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Decode request: %v", err)
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("Expected one message with two blocks, got %+v", req.Messages)
		} else {
			img := req.Messages[0].Content[0]
			if img.Type != "image" || img.Source == nil || img.Source.MediaType != "image/png" || img.Source.Data == "" {
				t.Errorf("Unexpected image block: %+v", img)
			}
		}

		_, _ = w.Write([]byte(`{
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "Firefighters spraying water on a burning warehouse."}],
			"usage": {"input_tokens": 30, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	d, err := NewAnthropicDescriber(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create describer: %v", err)
	}

	resp, err := d.Describe(context.Background(), imageRequest())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if resp.Caption != "Firefighters spraying water on a burning warehouse." {
		t.Errorf("Unexpected caption: %q", resp.Caption)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
}

func TestAnthropicDescriber_Describe_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	d, _ := NewAnthropicDescriber(Config{APIKey: "bad", BaseURL: server.URL})

	_, err := d.Describe(context.Background(), imageRequest())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if want := "authentication_error"; !strings.Contains(err.Error(), want) {
		t.Errorf("Expected error to mention %q, got %v", want, err)
	}
}

func TestAnthropicDescriber_Describe_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","content":[]}`))
	}))
	defer server.Close()

	d, _ := NewAnthropicDescriber(Config{APIKey: "k", BaseURL: server.URL})
	if _, err := d.Describe(context.Background(), imageRequest()); err == nil {
		t.Error("Expected error for empty content")
	}
}

func TestNewAnthropicDescriber_MissingKey(t *testing.T) {
	if _, err := NewAnthropicDescriber(Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}
