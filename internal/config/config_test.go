package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SERVICE_PRINCIPAL", "GRPC_PORT", "LOG_LEVEL", "ENV",
	"CAPTURE_INTERVAL", "CAPTURE_TIMEOUT",
	"DETECTION_THRESHOLD", "DETECTION_COOLDOWN", "ASSISTANT_MODE",
	"PRIVACY_EXCLUDED_APPS", "PRIVACY_SETTLING_DELAY",
	"MEMORY_CAPACITY", "MEMORY_TOP_K",
	"CONTEXT_TOKEN_BUDGET",
	"LLM_PRIMARY", "LLM_SECONDARY", "LLM_ATTEMPTS", "LLM_TIMEOUT", "OPENAI_API_KEY",
	"KAFKA_ENABLED", "KAFKA_PRINCIPAL", "KAFKA_BROKERS",
	"HISTORY_ENABLED", "HISTORY_DRIVER", "HISTORY_POSTGRES_DSN",
	"VOICE_SAMPLE_RATE_HZ",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		if old, ok := os.LookupEnv(v); ok {
			os.Unsetenv(v)
			t.Cleanup(func() { os.Setenv(v, old) })
		}
	}
}

func load() *Config {
	return (&Loader{}).Load()
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := load()

	if len(cfg.Invalid) != 0 {
		t.Fatalf("expected defaults to validate, got %v", cfg.Invalid)
	}
	if cfg.Service.Principal != "svc-ambient-assistant" {
		t.Errorf("expected default principal 'svc-ambient-assistant', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "50051" {
		t.Errorf("expected default port '50051', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Capture.Interval != 2*time.Second {
		t.Errorf("expected default capture interval 2s, got %v", cfg.Capture.Interval)
	}
	if cfg.Capture.Timeout != 400*time.Millisecond {
		t.Errorf("expected default capture timeout 400ms, got %v", cfg.Capture.Timeout)
	}
	if cfg.Detection.Threshold != 0.5 {
		t.Errorf("expected default threshold 0.5, got %v", cfg.Detection.Threshold)
	}
	if cfg.Detection.Cooldown != 2*time.Second {
		t.Errorf("expected default cooldown 2s, got %v", cfg.Detection.Cooldown)
	}
	if cfg.Privacy.SettlingDelay != 3*time.Second {
		t.Errorf("expected default settling delay 3s, got %v", cfg.Privacy.SettlingDelay)
	}
	if cfg.Memory.Capacity != 1000 {
		t.Errorf("expected default capacity 1000, got %d", cfg.Memory.Capacity)
	}
	if cfg.Memory.TopK != 5 {
		t.Errorf("expected default k 5, got %d", cfg.Memory.TopK)
	}
	if cfg.Context.TokenBudget != 2048 {
		t.Errorf("expected default budget 2048, got %d", cfg.Context.TokenBudget)
	}
	if cfg.LLM.Attempts != 2 {
		t.Errorf("expected default attempts 2, got %d", cfg.LLM.Attempts)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("expected default backend timeout 30s, got %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.GracePeriod != 500*time.Millisecond {
		t.Errorf("expected default grace period 500ms, got %v", cfg.LLM.GracePeriod)
	}
	if cfg.LLM.Workers != 4 {
		t.Errorf("expected default workers 4, got %d", cfg.LLM.Workers)
	}
	if cfg.LLM.Secondary != "demo" {
		t.Errorf("expected demo secondary without an API key, got %s", cfg.LLM.Secondary)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected kafka disabled by default")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	t.Setenv("GRPC_PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CAPTURE_INTERVAL", "5s")
	t.Setenv("DETECTION_THRESHOLD", "0.7")
	t.Setenv("ASSISTANT_MODE", "solver")
	t.Setenv("PRIVACY_EXCLUDED_APPS", "Slack, Signal ,")
	t.Setenv("MEMORY_CAPACITY", "50")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.GRPCPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.GRPCPort)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Capture.Interval != 5*time.Second {
		t.Errorf("expected interval 5s, got %v", cfg.Capture.Interval)
	}
	if cfg.Detection.Threshold != 0.7 {
		t.Errorf("expected threshold 0.7, got %v", cfg.Detection.Threshold)
	}
	if cfg.Detection.Mode != "solver" {
		t.Errorf("expected mode solver, got %s", cfg.Detection.Mode)
	}
	if len(cfg.Privacy.ExcludedApps) != 2 || cfg.Privacy.ExcludedApps[1] != "Signal" {
		t.Errorf("expected trimmed excluded apps, got %v", cfg.Privacy.ExcludedApps)
	}
	if cfg.Memory.Capacity != 50 {
		t.Errorf("expected capacity 50, got %d", cfg.Memory.Capacity)
	}
	if cfg.LLM.Secondary != "openai" {
		t.Errorf("expected openai secondary with an API key, got %s", cfg.LLM.Secondary)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAPTURE_INTERVAL", "soon")
	t.Setenv("MEMORY_CAPACITY", "invalid")
	t.Setenv("LLM_ATTEMPTS", "many")
	t.Setenv("VOICE_SAMPLE_RATE_HZ", "not-a-number")

	cfg := load()

	if cfg.Capture.Interval != 2*time.Second {
		t.Errorf("expected default interval on invalid input, got %v", cfg.Capture.Interval)
	}
	if cfg.Memory.Capacity != 1000 {
		t.Errorf("expected default capacity on invalid input, got %d", cfg.Memory.Capacity)
	}
	if cfg.LLM.Attempts != 2 {
		t.Errorf("expected default attempts on invalid input, got %d", cfg.LLM.Attempts)
	}
	if cfg.Voice.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.Voice.SampleRateHz)
	}
}

func TestLoad_InvalidSection_DisablesFeature(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTION_THRESHOLD", "1.5")
	t.Setenv("HISTORY_ENABLED", "true")
	t.Setenv("HISTORY_DRIVER", "postgres")

	cfg := load()

	if cfg.Detection.Enabled {
		t.Error("expected detection disabled by out-of-range threshold")
	}
	if cfg.History.Enabled {
		t.Error("expected history disabled without a postgres DSN")
	}
	if len(cfg.Invalid) != 2 {
		t.Fatalf("expected 2 invalid sections, got %v", cfg.Invalid)
	}
	for _, err := range cfg.Invalid {
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	}
	if !cfg.Capture.Enabled {
		t.Error("expected unrelated features to stay enabled")
	}
}

func TestLoad_InvalidCoreSection_ResetsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MEMORY_CAPACITY", "0")
	t.Setenv("MEMORY_TOP_K", "3")

	cfg := load()

	if cfg.Memory.Capacity != 1000 || cfg.Memory.TopK != 5 {
		t.Errorf("expected memory defaults, got %+v", cfg.Memory)
	}
	if len(cfg.Invalid) != 1 {
		t.Errorf("expected 1 invalid section, got %v", cfg.Invalid)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "my-service")

	cfg := load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestLoad_SettingsFilesLayering(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings")
	dotenv := filepath.Join(dir, ".env")
	writeFile(t, settings, "MEMORY_CAPACITY=10\nMEMORY_TOP_K=2\nGRPC_PORT=7000\n")
	writeFile(t, dotenv, "MEMORY_TOP_K=3\n")
	t.Setenv("GRPC_PORT", "7001")

	cfg := (&Loader{Files: []string{settings, dotenv, filepath.Join(dir, "missing")}}).Load()

	if cfg.Memory.Capacity != 10 {
		t.Errorf("expected capacity from settings file, got %d", cfg.Memory.Capacity)
	}
	if cfg.Memory.TopK != 3 {
		t.Errorf("expected .env to override settings file, got %d", cfg.Memory.TopK)
	}
	if cfg.Service.GRPCPort != "7001" {
		t.Errorf("expected environment to win, got %s", cfg.Service.GRPCPort)
	}
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	writeFile(t, dotenv, "MEMORY_CAPACITY=10\n")

	reloaded := make(chan *Config, 4)
	w := NewWatcher(&Loader{Files: []string{dotenv}}, func(c *Config) { reloaded <- c })
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dotenv, "MEMORY_CAPACITY=20\n")

	select {
	case c := <-reloaded:
		if c.Memory.Capacity != 20 {
			t.Errorf("expected reloaded capacity 20, got %d", c.Memory.Capacity)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload after the file changed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("expected clean shutdown, got %v", err)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			t.Setenv(key, tt.envValue)

			got := newSource(nil).envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestEnvOrDefaultList(t *testing.T) {
	s := source{file: map[string]string{"A": "x, y", "B": " , "}}
	if got := s.envOrDefaultList("A", nil); len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("expected [x y], got %v", got)
	}
	if got := s.envOrDefaultList("B", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Errorf("expected default for blank list, got %v", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
