// Package config loads service configuration from the environment, the user
// settings file and a local .env overlay.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ErrInvalid marks a configuration section that failed validation. The
// affected feature is disabled or reset to defaults; the process keeps running.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Capture       CaptureConfig
	OCR           OCRConfig
	Detection     DetectionConfig
	Privacy       PrivacyConfig
	Memory        MemoryConfig
	Embedding     EmbeddingConfig
	Context       ContextConfig
	LLM           LLMConfig
	History       HistoryConfig
	Kafka         KafkaConfig
	NATS          NATSConfig
	Voice         VoiceConfig
	Observability ObservabilityConfig

	// Invalid lists the sections that failed validation, each wrapping ErrInvalid.
	Invalid []error
}

// ServiceConfig holds service identity and listener settings.
type ServiceConfig struct {
	Name        string `validate:"required"`
	Principal   string `validate:"required"`
	Environment string
	GRPCPort    string `validate:"required,numeric"`
	HTTPPort    string `validate:"required,numeric"`
}

// CaptureConfig holds screen capture settings.
type CaptureConfig struct {
	Enabled        bool
	Interval       time.Duration `validate:"gt=0"`
	Timeout        time.Duration `validate:"gt=0"`
	ActiveWindow   bool
	ForegroundPoll time.Duration `validate:"gt=0"`
	TempDir        string
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	Enabled       bool
	Engine        string `validate:"oneof=tesseract vision"`
	TesseractPath string
	Language      string        `validate:"required"`
	Timeout       time.Duration `validate:"gt=0"`
	VisionURL     string        `validate:"omitempty,url"`
	VisionModel   string
}

// DetectionConfig holds question detection settings.
type DetectionConfig struct {
	Enabled         bool
	Threshold       float64       `validate:"gte=0,lte=1"`
	Cooldown        time.Duration `validate:"gt=0"`
	RegionGrid      int           `validate:"min=1"`
	WindowLines     int           `validate:"min=1"`
	ChangeThreshold float64       `validate:"gte=0,lte=1"`
	Mode            string        `validate:"oneof=normal suggester solver"`
}

// PrivacyConfig holds privacy guard settings.
type PrivacyConfig struct {
	AutoDetect       bool
	SettlingDelay    time.Duration `validate:"gte=0"`
	PollInterval     time.Duration `validate:"gt=0"`
	ExcludedApps     []string
	SharingProcesses []string
}

// MemoryConfig holds memory store settings.
type MemoryConfig struct {
	Capacity          int           `validate:"min=1"`
	TopK              int           `validate:"min=1"`
	MinSimilarity     float64       `validate:"gte=-1,lte=1"`
	EmbeddingAttempts int           `validate:"min=1"`
	WarmTurns         int           `validate:"min=0"`
	RetryBatch        int           `validate:"min=1"`
	RetryTimeout      time.Duration `validate:"gt=0"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string `validate:"oneof=ollama hashing"`
	OllamaURL  string `validate:"omitempty,url"`
	Model      string
	Dimensions int           `validate:"min=8"`
	Timeout    time.Duration `validate:"gt=0"`
}

// ContextConfig holds context builder settings.
type ContextConfig struct {
	TokenBudget int `validate:"min=64"`
	ThreadTurns int `validate:"min=0"`
}

// LLMConfig holds model backend and orchestration settings.
type LLMConfig struct {
	Primary     string        `validate:"oneof=ollama openai demo"`
	Secondary   string        `validate:"omitempty,oneof=ollama openai demo"`
	Attempts    int           `validate:"min=1"`
	Timeout     time.Duration `validate:"gt=0"`
	GracePeriod time.Duration `validate:"gte=0"`
	Workers     int           `validate:"min=1"`
	MaxTokens   int           `validate:"min=1"`
	Temperature float64       `validate:"gte=0,lte=2"`

	OllamaURL   string `validate:"omitempty,url"`
	OllamaModel string
	OpenAIURL   string `validate:"omitempty,url"`
	OpenAIKey   string
	OpenAIModel string
}

// HistoryConfig holds durable storage collaborator settings.
type HistoryConfig struct {
	Enabled       bool
	Driver        string `validate:"oneof=sqlite postgres redis"`
	SQLitePath    string `validate:"required_if=Driver sqlite"`
	PostgresDSN   string `validate:"required_if=Driver postgres"`
	RedisAddr     string `validate:"required_if=Driver redis"`
	RedisPassword string
	RedisDB       int `validate:"min=0"`
	RedisPrefix   string
}

// KafkaConfig holds Kafka forwarder settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string `validate:"required,min=1"`
	TopicAnswers string   `validate:"required"`
	TopicTurns   string   `validate:"required"`
	Principal    string
}

// NATSConfig holds NATS forwarder settings.
type NATSConfig struct {
	Enabled       bool
	URL           string `validate:"required"`
	SubjectPrefix string `validate:"required"`
}

// VoiceConfig holds speech-to-text settings for spoken queries.
type VoiceConfig struct {
	Enabled        bool
	Provider       string `validate:"oneof=google mock"`
	LanguageCode   string `validate:"required"`
	SampleRateHz   int32  `validate:"min=8000"`
	InterimResults bool
	AudioEncoding  string `validate:"oneof=LINEAR16 MULAW FLAC"`
}

// ObservabilityConfig holds logging, metrics and tracing settings.
type ObservabilityConfig struct {
	LogLevel         string `validate:"oneof=trace debug info warn error"`
	LogFormat        string `validate:"oneof=json console"`
	LogFilePath      string
	MetricsAddr      string `validate:"required"`
	TelemetryEnabled bool
	OTLPEndpoint     string
}

// Loader reads configuration from the process environment layered over
// settings files. Later files override earlier ones; the environment wins.
type Loader struct {
	Files []string
}

// DefaultFiles returns the user settings file followed by ./.env.
func DefaultFiles() []string {
	files := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".ambient_assistant"))
	}
	return append(files, ".env")
}

// Load reads configuration using the default files.
func Load() *Config {
	return (&Loader{Files: DefaultFiles()}).Load()
}

// Load reads configuration.
func (l *Loader) Load() *Config {
	s := newSource(l.Files)
	cfg := s.build()
	cfg.validate()
	return cfg
}

// source resolves keys from the environment and settings files. The zero
// value resolves nothing and yields pure defaults.
type source struct {
	env  bool
	file map[string]string
}

func newSource(files []string) source {
	values := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range m {
			values[k] = v
		}
	}
	return source{env: true, file: values}
}

func (s source) build() *Config {
	principal := s.envOrDefault("SERVICE_PRINCIPAL", "svc-ambient-assistant")
	openAIKey := s.envOrDefault("OPENAI_API_KEY", "")

	// Without credentials the hosted backend runs the scripted demo.
	defaultSecondary := "openai"
	if openAIKey == "" {
		defaultSecondary = "demo"
	}

	return &Config{
		Service: ServiceConfig{
			Name:        s.envOrDefault("SERVICE_NAME", "ambient-assistant"),
			Principal:   principal,
			Environment: s.envOrDefault("ENV", "prod"),
			GRPCPort:    s.envOrDefault("GRPC_PORT", "50051"),
			HTTPPort:    s.envOrDefault("HTTP_PORT", "8080"),
		},
		Capture: CaptureConfig{
			Enabled:        s.envOrDefaultBool("CAPTURE_ENABLED", true),
			Interval:       s.envOrDefaultDuration("CAPTURE_INTERVAL", 2*time.Second),
			Timeout:        s.envOrDefaultDuration("CAPTURE_TIMEOUT", 400*time.Millisecond),
			ActiveWindow:   s.envOrDefaultBool("CAPTURE_ACTIVE_WINDOW", false),
			ForegroundPoll: s.envOrDefaultDuration("CAPTURE_FOREGROUND_POLL", time.Second),
			TempDir:        s.envOrDefault("CAPTURE_TEMP_DIR", os.TempDir()),
		},
		OCR: OCRConfig{
			Enabled:       s.envOrDefaultBool("OCR_ENABLED", true),
			Engine:        s.envOrDefault("OCR_ENGINE", "tesseract"),
			TesseractPath: s.envOrDefault("TESSERACT_PATH", ""),
			Language:      s.envOrDefault("OCR_LANGUAGE", "eng"),
			Timeout:       s.envOrDefaultDuration("OCR_TIMEOUT", 5*time.Second),
			VisionURL:     s.envOrDefault("OCR_VISION_URL", "http://localhost:11434"),
			VisionModel:   s.envOrDefault("OCR_VISION_MODEL", "llava"),
		},
		Detection: DetectionConfig{
			Enabled:         s.envOrDefaultBool("DETECTION_ENABLED", true),
			Threshold:       s.envOrDefaultFloat("DETECTION_THRESHOLD", 0.5),
			Cooldown:        s.envOrDefaultDuration("DETECTION_COOLDOWN", 2*time.Second),
			RegionGrid:      s.envOrDefaultInt("DETECTION_REGION_GRID", 64),
			WindowLines:     s.envOrDefaultInt("DETECTION_WINDOW_LINES", 8),
			ChangeThreshold: s.envOrDefaultFloat("DETECTION_CHANGE_THRESHOLD", 0.3),
			Mode:            s.envOrDefault("ASSISTANT_MODE", "normal"),
		},
		Privacy: PrivacyConfig{
			AutoDetect:    s.envOrDefaultBool("PRIVACY_AUTO_DETECT", true),
			SettlingDelay: s.envOrDefaultDuration("PRIVACY_SETTLING_DELAY", 3*time.Second),
			PollInterval:  s.envOrDefaultDuration("PRIVACY_POLL_INTERVAL", time.Second),
			ExcludedApps:  s.envOrDefaultList("PRIVACY_EXCLUDED_APPS", []string{"1Password", "Keychain Access", "KeePassXC"}),
			SharingProcesses: s.envOrDefaultList("PRIVACY_SHARING_PROCESSES", []string{
				"zoom.us", "CptHost", "Teams", "obs", "QuickTime Player", "simplescreenrecorder", "kazam",
			}),
		},
		Memory: MemoryConfig{
			Capacity:          s.envOrDefaultInt("MEMORY_CAPACITY", 1000),
			TopK:              s.envOrDefaultInt("MEMORY_TOP_K", 5),
			MinSimilarity:     s.envOrDefaultFloat("MEMORY_MIN_SIMILARITY", 0.2),
			EmbeddingAttempts: s.envOrDefaultInt("MEMORY_EMBEDDING_ATTEMPTS", 3),
			WarmTurns:         s.envOrDefaultInt("MEMORY_WARM_TURNS", 100),
			RetryBatch:        s.envOrDefaultInt("MEMORY_RETRY_BATCH", 4),
			RetryTimeout:      s.envOrDefaultDuration("MEMORY_RETRY_TIMEOUT", 2*time.Second),
		},
		Embedding: EmbeddingConfig{
			Provider:   s.envOrDefault("EMBEDDING_PROVIDER", "hashing"),
			OllamaURL:  s.envOrDefault("EMBEDDING_OLLAMA_URL", "http://localhost:11434"),
			Model:      s.envOrDefault("EMBEDDING_MODEL", "nomic-embed-text"),
			Dimensions: s.envOrDefaultInt("EMBEDDING_DIMENSIONS", 256),
			Timeout:    s.envOrDefaultDuration("EMBEDDING_TIMEOUT", 5*time.Second),
		},
		Context: ContextConfig{
			TokenBudget: s.envOrDefaultInt("CONTEXT_TOKEN_BUDGET", 2048),
			ThreadTurns: s.envOrDefaultInt("CONTEXT_THREAD_TURNS", 4),
		},
		LLM: LLMConfig{
			Primary:     s.envOrDefault("LLM_PRIMARY", "ollama"),
			Secondary:   s.envOrDefault("LLM_SECONDARY", defaultSecondary),
			Attempts:    s.envOrDefaultInt("LLM_ATTEMPTS", 2),
			Timeout:     s.envOrDefaultDuration("LLM_TIMEOUT", 30*time.Second),
			GracePeriod: s.envOrDefaultDuration("LLM_GRACE_PERIOD", 500*time.Millisecond),
			Workers:     s.envOrDefaultInt("PIPELINE_WORKERS", 4),
			MaxTokens:   s.envOrDefaultInt("LLM_MAX_TOKENS", 1024),
			Temperature: s.envOrDefaultFloat("LLM_TEMPERATURE", 0.3),
			OllamaURL:   s.envOrDefault("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel: s.envOrDefault("OLLAMA_MODEL", "llama3.2"),
			OpenAIURL:   s.envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OpenAIKey:   openAIKey,
			OpenAIModel: s.envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
		History: HistoryConfig{
			Enabled:       s.envOrDefaultBool("HISTORY_ENABLED", false),
			Driver:        s.envOrDefault("HISTORY_DRIVER", "sqlite"),
			SQLitePath:    s.envOrDefault("HISTORY_SQLITE_PATH", "ambient-history.db"),
			PostgresDSN:   s.envOrDefault("HISTORY_POSTGRES_DSN", ""),
			RedisAddr:     s.envOrDefault("HISTORY_REDIS_ADDR", "localhost:6379"),
			RedisPassword: s.envOrDefault("HISTORY_REDIS_PASSWORD", ""),
			RedisDB:       s.envOrDefaultInt("HISTORY_REDIS_DB", 0),
			RedisPrefix:   s.envOrDefault("HISTORY_REDIS_PREFIX", "ambient"),
		},
		Kafka: KafkaConfig{
			Enabled:      s.envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      s.envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			TopicAnswers: s.envOrDefault("KAFKA_TOPIC_ANSWERS", "ambient.answers.v1"),
			TopicTurns:   s.envOrDefault("KAFKA_TOPIC_TURNS", "ambient.turns.v1"),
			Principal:    s.envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		NATS: NATSConfig{
			Enabled:       s.envOrDefaultBool("NATS_ENABLED", false),
			URL:           s.envOrDefault("NATS_URL", "nats://localhost:4222"),
			SubjectPrefix: s.envOrDefault("NATS_SUBJECT_PREFIX", "ambient"),
		},
		Voice: VoiceConfig{
			Enabled:        s.envOrDefaultBool("VOICE_ENABLED", false),
			Provider:       s.envOrDefault("VOICE_PROVIDER", "mock"),
			LanguageCode:   s.envOrDefault("VOICE_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   int32(s.envOrDefaultInt("VOICE_SAMPLE_RATE_HZ", 16000)),
			InterimResults: s.envOrDefaultBool("VOICE_INTERIM_RESULTS", false),
			AudioEncoding:  s.envOrDefault("VOICE_AUDIO_ENCODING", "LINEAR16"),
		},
		Observability: ObservabilityConfig{
			LogLevel:         s.envOrDefault("LOG_LEVEL", "info"),
			LogFormat:        s.envOrDefault("LOG_FORMAT", "json"),
			LogFilePath:      s.envOrDefault("LOG_FILE_PATH", ""),
			MetricsAddr:      s.envOrDefault("METRICS_ADDR", ":9090"),
			TelemetryEnabled: s.envOrDefaultBool("TELEMETRY_ENABLED", false),
			OTLPEndpoint:     s.envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

var structValidator = validator.New()

// validate checks each section. Optional features are disabled when invalid;
// core sections fall back to their defaults.
func (c *Config) validate() {
	defaults := source{}.build()

	check := func(name string, section any) bool {
		if err := structValidator.Struct(section); err != nil {
			c.Invalid = append(c.Invalid, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err))
			return false
		}
		return true
	}

	if !check("service", c.Service) {
		c.Service = defaults.Service
	}
	if !check("observability", c.Observability) {
		c.Observability = defaults.Observability
	}
	if !check("memory", c.Memory) {
		c.Memory = defaults.Memory
	}
	if !check("context", c.Context) {
		c.Context = defaults.Context
	}
	if !check("embedding", c.Embedding) {
		c.Embedding = defaults.Embedding
	}
	if !check("privacy", c.Privacy) {
		// Defaults keep auto-detection and the settling delay on.
		c.Privacy = defaults.Privacy
	}
	if !check("llm", c.LLM) {
		c.LLM = defaults.LLM
	}

	if c.Capture.Enabled && !check("capture", c.Capture) {
		c.Capture.Enabled = false
	}
	if c.OCR.Enabled && !check("ocr", c.OCR) {
		c.OCR.Enabled = false
	}
	if c.Detection.Enabled && !check("detection", c.Detection) {
		c.Detection.Enabled = false
	}
	if c.History.Enabled && !check("history", c.History) {
		c.History.Enabled = false
	}
	if c.Kafka.Enabled && !check("kafka", c.Kafka) {
		c.Kafka.Enabled = false
	}
	if c.NATS.Enabled && !check("nats", c.NATS) {
		c.NATS.Enabled = false
	}
	if c.Voice.Enabled && !check("voice", c.Voice) {
		c.Voice.Enabled = false
	}
}

func (s source) lookup(key string) string {
	if s.env {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return s.file[key]
}

func (s source) envOrDefault(key, def string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return def
}

func (s source) envOrDefaultInt(key string, def int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) envOrDefaultFloat(key string, def float64) float64 {
	if v := s.lookup(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (s source) envOrDefaultBool(key string, def bool) bool {
	if v := s.lookup(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func (s source) envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (s source) envOrDefaultList(key string, def []string) []string {
	v := s.lookup(key)
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
