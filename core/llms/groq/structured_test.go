package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jpcaldeira/aura-core/core/llms"
)

type structuredRequest struct {
	Model          string   `json:"model"`
	Temperature    *float64 `json:"temperature"`
	ResponseFormat *struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string          `json:"name"`
			Schema json.RawMessage `json:"schema"`
			Strict bool            `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
}

type intentShape struct {
	Module     string  `json:"module"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

func completionServer(t *testing.T, content string, captured *structuredRequest) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("failed to decode request body: %s", err.Error())
			}
		}
		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
}

func TestPromptStructuredSendsSchemaEnforcedRequest(t *testing.T) {
	var captured structuredRequest
	server := completionServer(t,
		`{"module": "timer", "action": "set_timer", "confidence": 0.9}`, &captured)
	defer server.Close()

	client := NewClient("test-key", "llama-3.3-70b-versatile", WithBaseURL(server.URL))

	var intent intentShape
	err := client.PromptStructured(context.Background(), "set a timer", &intent,
		llms.WithSystemPrompt("You parse intents."))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}

	if intent.Module != "timer" || intent.Action != "set_timer" {
		t.Errorf("unexpected decoded intent %+v", intent)
	}

	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_schema" {
		t.Fatalf("expected a json_schema response format, got %+v", captured.ResponseFormat)
	}
	if captured.ResponseFormat.JSONSchema == nil || !captured.ResponseFormat.JSONSchema.Strict {
		t.Error("expected strict schema enforcement")
	}
	if got := captured.ResponseFormat.JSONSchema.Name; got != "intentShape" {
		t.Errorf("expected schema named after the output type, got %q", got)
	}
	if len(captured.ResponseFormat.JSONSchema.Schema) == 0 {
		t.Error("expected a reflected schema in the request")
	}

	// Structured output defaults to deterministic sampling.
	if captured.Temperature == nil || *captured.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", captured.Temperature)
	}
}

func TestPromptStructuredStripsCodeFence(t *testing.T) {
	server := completionServer(t,
		"```json\n{\"module\": \"timer\", \"action\": \"set_timer\", \"confidence\": 0.8}\n```", nil)
	defer server.Close()

	client := NewClient("test-key", "llama-3.3-70b-versatile", WithBaseURL(server.URL))

	var intent intentShape
	if err := client.PromptStructured(context.Background(), "set a timer", &intent); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if intent.Module != "timer" || intent.Confidence != 0.8 {
		t.Errorf("unexpected decoded intent %+v", intent)
	}
}

func TestPromptStructuredRejectsNonPointerTarget(t *testing.T) {
	client := NewClient("test-key", "llama-3.3-70b-versatile")

	var intent intentShape
	if err := client.PromptStructured(context.Background(), "set a timer", intent); err == nil {
		t.Fatal("expected an error for a non-pointer target")
	}
}

func TestPromptReturnsAssistantContent(t *testing.T) {
	var captured structuredRequest
	server := completionServer(t, "Done!", &captured)
	defer server.Close()

	client := NewClient("test-key", "llama-3.3-70b-versatile", WithBaseURL(server.URL))

	response, err := client.Prompt(context.Background(), "hello",
		llms.WithTemperature(0.2))
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	if response != "Done!" {
		t.Errorf("unexpected response %q", response)
	}
	if captured.Model != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected model %q", captured.Model)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", captured.Temperature)
	}
	if captured.ResponseFormat != nil {
		t.Error("plain prompts must not request a response format")
	}
}

func TestPromptNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", "llama-3.3-70b-versatile", WithBaseURL(server.URL))

	if _, err := client.Prompt(context.Background(), "hello"); err == nil {
		t.Fatal("expected an error for a non-OK status")
	}
}
