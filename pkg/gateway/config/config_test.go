package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.LiveModel != "gemini-2.0-flash-live-001" {
		t.Errorf("LiveModel = %q", cfg.LiveModel)
	}
	if cfg.LiveVoice != "Puck" {
		t.Errorf("LiveVoice = %q", cfg.LiveVoice)
	}
	if cfg.PaymentProcessingDelay != 2*time.Second {
		t.Errorf("PaymentProcessingDelay = %v", cfg.PaymentProcessingDelay)
	}
	if !cfg.SeedDemoData {
		t.Error("SeedDemoData = false, want true by default")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("CLIPSTREAM_ADDR", ":9999")
	t.Setenv("CLIPSTREAM_LIVE_VOICE", "Kore")
	t.Setenv("CLIPSTREAM_LIVE_ALLOW_VIDEO", "false")
	t.Setenv("CLIPSTREAM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CLIPSTREAM_PAYMENT_PROCESSING_DELAY", "50ms")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LiveVoice != "Kore" {
		t.Errorf("LiveVoice = %q", cfg.LiveVoice)
	}
	if cfg.LiveAllowVideo {
		t.Error("LiveAllowVideo = true, want false")
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://a.example"]; !ok {
		t.Error("missing https://a.example in CORS origins")
	}
	if cfg.PaymentProcessingDelay != 50*time.Millisecond {
		t.Errorf("PaymentProcessingDelay = %v", cfg.PaymentProcessingDelay)
	}
}

func TestLoadFromEnvValidation(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CLIPSTREAM_LIVE_MAX_SESSIONS", "0"},
		{"CLIPSTREAM_LIVE_MAX_JSON_MESSAGE_BYTES", "-1"},
		{"CLIPSTREAM_MAX_BODY_BYTES", "-5"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("LoadFromEnv with %s=%s: expected error", tt.key, tt.value)
			}
		})
	}
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("CLIPSTREAM_READ_TIMEOUT", "not-a-duration")
	t.Setenv("CLIPSTREAM_LIVE_MAX_SESSIONS", "many")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want default", cfg.ReadTimeout)
	}
	if cfg.LiveMaxSessions != 16 {
		t.Errorf("LiveMaxSessions = %d, want default", cfg.LiveMaxSessions)
	}
}
