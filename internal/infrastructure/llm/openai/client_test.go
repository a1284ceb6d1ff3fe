package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ParadoxTwo/energy-bill-reader/internal/core/domain"
)

func chatReply(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func allNullFieldsJSON(overrides map[string]string) string {
	fields := make(map[string]any, len(domain.BillFieldKeys))
	for _, key := range domain.BillFieldKeys {
		fields[key] = nil
	}
	for key, value := range overrides {
		fields[key] = value
	}
	raw, _ := json.Marshal(fields)
	return string(raw)
}

func TestExtractFieldsParsesValidResponse(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&capturedBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		fmt.Fprint(w, chatReply(allNullFieldsJSON(map[string]string{
			"invoice_number": "123",
			"total_owed":     "50.00",
		})))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "key", "gpt-test"), 0)
	fields, err := extractor.ExtractFields(context.Background(), "Invoice #123 Total: $50.00")
	if err != nil {
		t.Fatalf("ExtractFields() error = %v", err)
	}
	if fields["invoice_number"] != "123" || fields["total_owed"] != "50.00" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
	if fields["nmi"] != nil {
		t.Fatalf("expected null nmi, got %v", fields["nmi"])
	}

	messages, _ := capturedBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
}

func TestExtractFieldsRejectsNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, chatReply("not json"))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "key", "gpt-test"), 0)
	_, err := extractor.ExtractFields(context.Background(), "some text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractFieldsRejectsExtraKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		extra := allNullFieldsJSON(nil)
		extra = strings.TrimSuffix(extra, "}") + `,"surprise":"x"}`
		fmt.Fprint(w, chatReply(extra))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "key", "gpt-test"), 0)
	_, err := extractor.ExtractFields(context.Background(), "some text")
	if err == nil {
		t.Fatalf("expected error for extra key")
	}
}

func TestCompleteIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "key", "gpt-test")
	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestExtractFieldsTruncatesOversizedInput(t *testing.T) {
	var receivedLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []chatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		receivedLen = len(body.Messages[1].Content)
		fmt.Fprint(w, chatReply(allNullFieldsJSON(nil)))
	}))
	defer server.Close()

	extractor := NewFieldExtractor(New(server.URL, "key", "gpt-test"), 64)
	_, err := extractor.ExtractFields(context.Background(), strings.Repeat("x", 1000))
	if err != nil {
		t.Fatalf("ExtractFields() error = %v", err)
	}
	if receivedLen != 64 {
		t.Fatalf("expected truncated input of 64 bytes, got %d", receivedLen)
	}
}
