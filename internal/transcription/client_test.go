package transcription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"realtydesk_backend/platform/logger"
)

type stubConfig struct {
	url    string
	apiKey string
}

func (c stubConfig) GetTranscriptionURL() string    { return c.url }
func (c stubConfig) GetTranscriptionAPIKey() string { return c.apiKey }
func (c stubConfig) IsTranscriptionEnabled() bool   { return c.url != "" }

func TestTranscribe(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  schedule the inspection for friday  "}`))
	}))
	defer server.Close()

	client := NewClient(stubConfig{url: server.URL, apiKey: "key-123"}, logger.New("test"))
	text, err := client.Transcribe(context.Background(), "memo.ogg", []byte("fake-audio"))
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if text != "schedule the inspection for friday" {
		t.Errorf("text = %q", text)
	}
	if gotAuth != "Bearer key-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(stubConfig{url: server.URL}, logger.New("test"))
	if _, err := client.Transcribe(context.Background(), "memo.ogg", []byte("fake-audio")); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestTranscribe_Disabled(t *testing.T) {
	client := NewClient(stubConfig{}, logger.New("test"))
	if client.Enabled() {
		t.Fatal("expected disabled client")
	}
	if _, err := client.Transcribe(context.Background(), "memo.ogg", []byte("x")); err == nil {
		t.Fatal("expected error when disabled")
	}
}
