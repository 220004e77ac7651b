package storage

import (
	"fmt"
	"strings"
)

// maxAudioBytes caps a single voice memo upload.
const maxAudioBytes = 25 << 20

var allowedAudioContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp4":   true,
	"audio/aac":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/ogg":   true,
	"audio/webm":  true,
	"audio/flac":  true,
}

func validateAudioContentType(contentType string) error {
	base := contentType
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = base[:idx]
	}
	base = strings.TrimSpace(strings.ToLower(base))
	if !allowedAudioContentTypes[base] {
		return fmt.Errorf("content type %q is not an accepted audio format", contentType)
	}
	return nil
}

func validateAudioSize(sizeBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("audio payload is empty")
	}
	if sizeBytes > maxAudioBytes {
		return fmt.Errorf("audio payload exceeds %d MB limit", maxAudioBytes>>20)
	}
	return nil
}
