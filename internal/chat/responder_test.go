package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": reply}, "finish_reason": "stop"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

const paracetamolContext = "Medicine: Paracetamol, Function: pain relief"

func TestRespondReturnsModelAnswer(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, "Paracetamol is used for pain relief.", &seen)
	defer srv.Close()

	r := NewModelResponder(ResponderConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	history := []Turn{{Role: RoleUser, Content: "hello"}, {Role: RoleAssistant, Content: "hi"}}
	got := r.Respond(context.Background(), paracetamolContext, "What is this used for?", history)
	if !strings.Contains(got, "pain relief") {
		t.Fatalf("unexpected answer %q", got)
	}

	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 4 {
		t.Fatalf("expected system + 2 history + user, got %d", len(msgs))
	}
	last := msgs[3].(map[string]any)["content"].(string)
	if !strings.Contains(last, paracetamolContext) || !strings.Contains(last, "What is this used for?") {
		t.Fatalf("user prompt missing context or question: %q", last)
	}
	sys := msgs[0].(map[string]any)["content"].(string)
	if !strings.Contains(sys, CannotFind) {
		t.Fatalf("system prompt missing cannot-find sentence")
	}
}

func TestRespondEmptyContext(t *testing.T) {
	r := NewModelResponder(ResponderConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"}, nil)
	if got := r.Respond(context.Background(), "  ", "What is this used for?", nil); got != CannotFind {
		t.Fatalf("expected cannot-find sentence, got %q", got)
	}
}

func TestRespondMissingKey(t *testing.T) {
	r := NewModelResponder(ResponderConfig{}, nil)
	if got := r.Respond(context.Background(), paracetamolContext, "q", nil); got != ConfigWarning {
		t.Fatalf("expected config warning, got %q", got)
	}
}

func TestRespondUnauthorized(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, "", nil)
	defer srv.Close()
	r := NewModelResponder(ResponderConfig{APIKey: "bad", BaseURL: srv.URL}, nil)
	if got := r.Respond(context.Background(), paracetamolContext, "q", nil); got != ConfigWarning {
		t.Fatalf("expected config warning, got %q", got)
	}
}

func TestRespondServerError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "", nil)
	defer srv.Close()
	r := NewModelResponder(ResponderConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	got := r.Respond(context.Background(), paracetamolContext, "q", nil)
	if !strings.HasPrefix(got, "Error: ") {
		t.Fatalf("expected error string, got %q", got)
	}
}
