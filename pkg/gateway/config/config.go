package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// GeminiAPIKey authenticates outbound live backend connections.
	GeminiAPIKey string

	// Live session defaults, overridable per hello frame.
	LiveModel       string
	LiveVoice       string
	LiveSystemText  string
	LiveAllowVideo  bool
	LiveMaxSessions int

	// Live WebSocket limits (/v1/live).
	LiveMaxJSONMessageBytes int64
	LiveHandshakeTimeout    time.Duration
	LiveWSWriteTimeout      time.Duration
	LiveMaxSessionDuration  time.Duration

	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Mock checkout: a purchase stays pending this long before it
	// flips to completed.
	PaymentProcessingDelay time.Duration

	// AnalyticsPath is the JSON blob file backing view counters.
	AnalyticsPath string

	// SeedDemoData loads the built-in demo catalog at startup.
	SeedDemoData bool

	MetricsNamespace string

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                    envOr("CLIPSTREAM_ADDR", ":8080"),
		GeminiAPIKey:            strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		LiveModel:               envOr("CLIPSTREAM_LIVE_MODEL", "gemini-2.0-flash-live-001"),
		LiveVoice:               envOr("CLIPSTREAM_LIVE_VOICE", "Puck"),
		LiveSystemText:          strings.TrimSpace(os.Getenv("CLIPSTREAM_LIVE_SYSTEM_TEXT")),
		LiveAllowVideo:          envBoolOr("CLIPSTREAM_LIVE_ALLOW_VIDEO", true),
		LiveMaxSessions:         envIntOr("CLIPSTREAM_LIVE_MAX_SESSIONS", 16),
		LiveMaxJSONMessageBytes: envInt64Or("CLIPSTREAM_LIVE_MAX_JSON_MESSAGE_BYTES", 1<<20),
		LiveHandshakeTimeout:    envDurationOr("CLIPSTREAM_LIVE_HANDSHAKE_TIMEOUT", 5*time.Second),
		LiveWSWriteTimeout:      envDurationOr("CLIPSTREAM_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveMaxSessionDuration:  envDurationOr("CLIPSTREAM_LIVE_MAX_DURATION", 30*time.Minute),
		MaxBodyBytes:            envInt64Or("CLIPSTREAM_MAX_BODY_BYTES", 1<<20),
		CORSAllowedOrigins:      make(map[string]struct{}),
		PaymentProcessingDelay:  envDurationOr("CLIPSTREAM_PAYMENT_PROCESSING_DELAY", 2*time.Second),
		AnalyticsPath:           envOr("CLIPSTREAM_ANALYTICS_PATH", "clipstream_analytics.json"),
		SeedDemoData:            envBoolOr("CLIPSTREAM_SEED_DEMO_DATA", true),
		MetricsNamespace:        envOr("CLIPSTREAM_METRICS_NAMESPACE", "clipstream"),
		ReadHeaderTimeout:       envDurationOr("CLIPSTREAM_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:             envDurationOr("CLIPSTREAM_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:     envDurationOr("CLIPSTREAM_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("CLIPSTREAM_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.LiveModel) == "" {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.LiveVoice) == "" {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_VOICE must not be empty")
	}
	if cfg.LiveMaxSessions <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_MAX_SESSIONS must be > 0")
	}
	if cfg.LiveMaxJSONMessageBytes <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_MAX_JSON_MESSAGE_BYTES must be > 0")
	}
	if cfg.LiveHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveMaxSessionDuration <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_LIVE_MAX_DURATION must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_MAX_BODY_BYTES must be > 0")
	}
	if cfg.PaymentProcessingDelay <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_PAYMENT_PROCESSING_DELAY must be > 0")
	}
	if strings.TrimSpace(cfg.AnalyticsPath) == "" {
		return Config{}, fmt.Errorf("CLIPSTREAM_ANALYTICS_PATH must not be empty")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("CLIPSTREAM_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
