package speech

import (
	"context"
	"fmt"
	"time"
)

// Config carries the orchestrator thresholds. Everything here comes from the
// external config loader so boundary tests can be exact.
type Config struct {
	MaxAudioBytes   int64
	MinAudioBytes   int64
	DefaultLanguage string
	ProviderTimeout time.Duration
}

const (
	defaultMaxAudioBytes   = 10 * 1024 * 1024
	defaultMinAudioBytes   = 1024
	defaultProviderTimeout = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxAudioBytes <= 0 {
		c.MaxAudioBytes = defaultMaxAudioBytes
	}
	if c.MinAudioBytes <= 0 {
		c.MinAudioBytes = defaultMinAudioBytes
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "th-TH"
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = defaultProviderTimeout
	}
	return c
}

// Transcriber validates inbound audio, dispatches it to the best available
// provider and records usage statistics. It never returns a Go error: every
// failure mode is encoded in the result.
type Transcriber struct {
	registry  *Registry
	languages []LanguageEntry
	config    Config
}

func NewTranscriber(registry *Registry, languages []LanguageEntry, config Config) *Transcriber {
	if len(languages) == 0 {
		languages = DefaultLanguages()
	}
	return &Transcriber{
		registry:  registry,
		languages: languages,
		config:    config.withDefaults(),
	}
}

// Languages returns the static language table.
func (t *Transcriber) Languages() []LanguageEntry {
	out := make([]LanguageEntry, len(t.languages))
	copy(out, t.languages)
	return out
}

// DefaultLanguage returns the configured default recognition language.
func (t *Transcriber) DefaultLanguage() string {
	return t.config.DefaultLanguage
}

// Transcribe runs the full validate -> select -> invoke -> account pipeline.
func (t *Transcriber) Transcribe(ctx context.Context, payload AudioPayload) *TranscriptionResult {
	data, err := payload.Bytes()
	if err != nil {
		return Failure(err.Error())
	}
	if len(data) == 0 {
		return Failure("audio payload is empty")
	}
	// Limits are exclusive: a payload must be strictly between min and max.
	if int64(len(data)) >= t.config.MaxAudioBytes {
		return Failure(fmt.Sprintf("audio payload too large: %d bytes exceeds limit of %d", len(data), t.config.MaxAudioBytes))
	}
	if int64(len(data)) <= t.config.MinAudioBytes {
		return Failure(fmt.Sprintf("audio payload too small: %d bytes is below minimum of %d", len(data), t.config.MinAudioBytes))
	}

	language := payload.Language
	if language == "" {
		language = t.config.DefaultLanguage
	}
	entry, ok := FindLanguage(t.languages, language)
	if !ok || !entry.Enabled {
		return Failure(fmt.Sprintf("language %q is not supported", language))
	}

	provider := t.registry.SelectFor(ctx, entry.Code)
	if provider == nil {
		return Failure("no available provider for language " + entry.Code)
	}

	payload.Data = data
	payload.Base64Data = ""
	payload.Language = entry.Code

	callCtx, cancel := context.WithTimeout(ctx, t.config.ProviderTimeout)
	defer cancel()

	started := time.Now()
	result, err := provider.Transcribe(callCtx, payload)
	elapsed := time.Since(started)

	if err != nil {
		t.registry.RecordError(provider.Name())
		failure := Failure(err.Error())
		failure.Provider = provider.Name()
		failure.ProcessingTime = elapsed
		return failure
	}
	if result == nil || !result.Success {
		t.registry.RecordError(provider.Name())
		reason := "provider returned no result"
		if result != nil && result.Error != "" {
			reason = result.Error
		}
		failure := Failure(reason)
		failure.Provider = provider.Name()
		failure.ProcessingTime = elapsed
		return failure
	}

	if result.Duration <= 0 {
		result.Duration = estimateDuration(payload, len(data))
	}
	if result.Language == "" {
		result.Language = entry.Code
	}
	result.Provider = provider.Name()
	result.ProcessingTime = elapsed

	cost := result.Duration.Minutes() * provider.CostPerMinute()
	t.registry.RecordUsage(provider.Name(), result.Duration, cost)

	return result
}

// estimateDuration approximates clip duration from the byte size when the
// provider does not report one. Assumes 16-bit PCM; compressed formats fall
// back to a 32 kbps heuristic.
func estimateDuration(payload AudioPayload, size int) time.Duration {
	sampleRate := payload.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := payload.Channels
	if channels <= 0 {
		channels = 1
	}
	bytesPerSecond := sampleRate * channels * 2
	if payload.Format != "" && payload.Format != "wav" && payload.Format != "pcm" {
		bytesPerSecond = 4000
	}
	seconds := float64(size) / float64(bytesPerSecond)
	return time.Duration(seconds * float64(time.Second))
}
