package app

import (
	"github.com/rs/zerolog/log"

	"ambient-assistant/internal/config"
	"ambient-assistant/internal/events"
	"ambient-assistant/internal/models"
	"ambient-assistant/internal/observability"
	"ambient-assistant/internal/observability/logging"
	"ambient-assistant/internal/service/capture"
	"ambient-assistant/internal/service/detect"
	"ambient-assistant/internal/service/embedding"
	"ambient-assistant/internal/service/llm"
	"ambient-assistant/internal/service/llm/demo"
	"ambient-assistant/internal/service/llm/ollama"
	"ambient-assistant/internal/service/llm/openai"
	"ambient-assistant/internal/service/memory"
	"ambient-assistant/internal/service/ocr"
	"ambient-assistant/internal/service/orchestrator"
	"ambient-assistant/internal/service/pipeline"
	"ambient-assistant/internal/service/privacy"
	"ambient-assistant/internal/service/voice"
	"ambient-assistant/internal/service/voice/google"
	"ambient-assistant/internal/service/voice/mock"
)

// The functions below map configuration sections onto component configs.
// They run at startup and again on every reload.

func loggingConfig(c config.ObservabilityConfig) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.FilePath = c.LogFilePath
	return lc
}

func tracingConfig(c *config.Config) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Observability.TelemetryEnabled,
		Endpoint:    c.Observability.OTLPEndpoint,
		ServiceName: c.Service.Name,
		Environment: c.Service.Environment,
	}
}

func captureConfig(c config.CaptureConfig) capture.Config {
	return capture.Config{
		Timeout:      c.Timeout,
		TempDir:      c.TempDir,
		ActiveWindow: c.ActiveWindow,
	}
}

func ocrConfig(c config.OCRConfig) ocr.Config {
	return ocr.Config{
		Engine:        c.Engine,
		TesseractPath: c.TesseractPath,
		Language:      c.Language,
		Timeout:       c.Timeout,
		VisionURL:     c.VisionURL,
		VisionModel:   c.VisionModel,
	}
}

func detectConfig(c config.DetectionConfig) detect.Config {
	return detect.Config{
		Threshold:       c.Threshold,
		WindowLines:     c.WindowLines,
		ChangeThreshold: c.ChangeThreshold,
		Mode:            models.ParseMode(c.Mode),
	}
}

func privacyConfig(c config.PrivacyConfig) privacy.Config {
	return privacy.Config{
		AutoDetect:       c.AutoDetect,
		SettlingDelay:    c.SettlingDelay,
		PollInterval:     c.PollInterval,
		ExcludedApps:     c.ExcludedApps,
		SharingProcesses: c.SharingProcesses,
	}
}

func memoryConfig(c config.MemoryConfig) memory.Config {
	return memory.Config{
		Capacity:          c.Capacity,
		MinSimilarity:     c.MinSimilarity,
		EmbeddingAttempts: c.EmbeddingAttempts,
		RetryBatch:        c.RetryBatch,
		RetryTimeout:      c.RetryTimeout,
	}
}

func orchestratorConfig(c config.LLMConfig) orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	oc.Primary = c.Primary
	oc.Secondary = c.Secondary
	oc.MaxAttempts = c.Attempts
	oc.AttemptTimeout = c.Timeout
	oc.GracePeriod = c.GracePeriod
	oc.MaxTokens = c.MaxTokens
	oc.Temperature = c.Temperature
	return oc
}

func pipelineConfig(c *config.Config) pipeline.Config {
	return pipeline.Config{
		Interval:        c.Capture.Interval,
		Workers:         c.LLM.Workers,
		TopK:            c.Memory.TopK,
		ThreadTurns:     c.Context.ThreadTurns,
		TokenBudget:     c.Context.TokenBudget,
		WarmTurns:       c.Memory.WarmTurns,
		Mode:            models.ParseMode(c.Detection.Mode),
		ForegroundPoll:  c.Capture.ForegroundPoll,
		DetectionActive: c.Detection.Enabled,
	}
}

func newEmbedder(c config.EmbeddingConfig) embedding.Embedder {
	if c.Provider == "ollama" {
		return embedding.NewOllamaEmbedder(c.OllamaURL, c.Model, c.Timeout)
	}
	return embedding.NewHashingEmbedder(c.Dimensions)
}

// newRegistry registers every backend that can run with c. The hosted
// backend needs an API key; demo is always available.
func newRegistry(c config.LLMConfig) *llm.Registry {
	reg := llm.NewRegistry(
		ollama.New(c.OllamaURL, c.OllamaModel),
		demo.New(),
	)
	if c.OpenAIKey != "" {
		reg.Register(openai.New(c.OpenAIURL, c.OpenAIKey, c.OpenAIModel))
	}
	return reg
}

// newVoiceFactory returns nil when spoken queries are disabled.
func newVoiceFactory(c config.VoiceConfig) voice.Factory {
	if !c.Enabled {
		return nil
	}
	if c.Provider == "google" {
		return google.Factory(google.Config{
			LanguageCode:   c.LanguageCode,
			SampleRateHz:   c.SampleRateHz,
			InterimResults: c.InterimResults,
			AudioEncoding:  c.AudioEncoding,
		})
	}
	return mock.Factory()
}

// newSinks connects the enabled external forwarders. A sink that cannot
// connect is skipped.
func newSinks(c *config.Config) []events.Sink {
	var sinks []events.Sink
	if c.Kafka.Enabled {
		sinks = append(sinks, events.New(&events.Config{
			Enabled:      true,
			Brokers:      c.Kafka.Brokers,
			TopicAnswers: c.Kafka.TopicAnswers,
			TopicTurns:   c.Kafka.TopicTurns,
			Principal:    c.Kafka.Principal,
		}))
	}
	if c.NATS.Enabled {
		p, err := events.NewNATS(events.NATSConfig{
			URL:           c.NATS.URL,
			SubjectPrefix: c.NATS.SubjectPrefix,
			Principal:     c.Service.Principal,
		})
		if err != nil {
			log.Warn().Err(err).Msg("NATS forwarder disabled")
		} else {
			sinks = append(sinks, p)
		}
	}
	return sinks
}
