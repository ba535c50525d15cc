package google

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.LanguageCode)
	}
	if cfg.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.SampleRateHz)
	}
	if cfg.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.AudioEncoding)
	}
}

func TestParseAudioEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected speechpb.RecognitionConfig_AudioEncoding
	}{
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16},
		{"MULAW", speechpb.RecognitionConfig_MULAW},
		{"FLAC", speechpb.RecognitionConfig_FLAC},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS},
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS},
		{"mulaw", speechpb.RecognitionConfig_LINEAR16},
		{"", speechpb.RecognitionConfig_LINEAR16},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseAudioEncoding(tt.input)
			if got != tt.expected {
				t.Errorf("parseAudioEncoding(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRecognitionConfig(t *testing.T) {
	cfg := Config{LanguageCode: "de-DE", SampleRateHz: 8000, InterimResults: true, AudioEncoding: "MULAW"}
	rc := cfg.recognition()

	if rc.Config.LanguageCode != "de-DE" {
		t.Errorf("expected language 'de-DE', got %s", rc.Config.LanguageCode)
	}
	if rc.Config.SampleRateHertz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", rc.Config.SampleRateHertz)
	}
	if rc.Config.Encoding != speechpb.RecognitionConfig_MULAW {
		t.Errorf("expected MULAW, got %v", rc.Config.Encoding)
	}
	if !rc.InterimResults {
		t.Error("expected interim results")
	}
	if !rc.SingleUtterance {
		t.Error("expected single utterance mode for spoken queries")
	}
}
