package storage

import "testing"

func TestValidateAudioContentType(t *testing.T) {
	cases := []struct {
		contentType string
		ok          bool
	}{
		{"audio/mpeg", true},
		{"audio/wav", true},
		{"Audio/OGG", true},
		{"audio/webm;codecs=opus", true},
		{"video/mp4", false},
		{"application/pdf", false},
		{"", false},
	}
	for _, tc := range cases {
		err := validateAudioContentType(tc.contentType)
		if tc.ok && err != nil {
			t.Errorf("validateAudioContentType(%q) = %v, want nil", tc.contentType, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("validateAudioContentType(%q) = nil, want error", tc.contentType)
		}
	}
}

func TestValidateAudioSize(t *testing.T) {
	if err := validateAudioSize(0); err == nil {
		t.Error("empty payload accepted")
	}
	if err := validateAudioSize(1024); err != nil {
		t.Errorf("1KB rejected: %v", err)
	}
	if err := validateAudioSize(maxAudioBytes + 1); err == nil {
		t.Error("oversized payload accepted")
	}
}
