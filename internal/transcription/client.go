// Package transcription calls an external speech-to-text service for voice
// memo transcripts.
package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"realtydesk_backend/platform/config"
	"realtydesk_backend/platform/logger"
)

const defaultTimeout = 60 * time.Second

// Client posts audio to the transcription service. A zero-configured
// client reports Enabled() == false and the caller skips transcription.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates the transcription client from config.
func NewClient(cfg config.TranscriptionConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.GetTranscriptionURL(), "/"),
		apiKey:  cfg.GetTranscriptionAPIKey(),
		http:    &http.Client{Timeout: defaultTimeout},
		log:     log,
	}
}

// Enabled reports whether a transcription endpoint is configured.
func (c *Client) Enabled() bool { return c.baseURL != "" }

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio and returns the transcript text.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("transcription service is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode, string(snippet))
	}

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return strings.TrimSpace(decoded.Text), nil
}
