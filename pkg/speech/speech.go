package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"time"
)

// AudioPayload is the input envelope for one transcription request. The audio
// arrives either as raw bytes or as a base64 string; it is never persisted.
type AudioPayload struct {
	Data       []byte `json:"-"`
	Base64Data string `json:"audio_data,omitempty"`
	Language   string `json:"language,omitempty"`
	Format     string `json:"format,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

// Bytes returns the decoded audio content, preferring raw bytes over the
// base64 field when both are set.
func (p AudioPayload) Bytes() ([]byte, error) {
	if len(p.Data) > 0 {
		return p.Data, nil
	}
	if p.Base64Data == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(p.Base64Data)
	if err != nil {
		return nil, errors.New("invalid base64 audio data")
	}
	return decoded, nil
}

// WordInfo carries optional word-level timing for an alternative transcript.
type WordInfo struct {
	Word       string        `json:"word"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Confidence float64       `json:"confidence,omitempty"`
}

type Alternative struct {
	Transcript string     `json:"transcript"`
	Confidence float64    `json:"confidence"`
	Words      []WordInfo `json:"words,omitempty"`
}

// TranscriptionResult is produced exactly once per request. A failed result
// never carries a transcript; the cause is in Error.
type TranscriptionResult struct {
	Success        bool          `json:"success"`
	Transcript     string        `json:"transcript,omitempty"`
	Confidence     float64       `json:"confidence,omitempty"`
	Language       string        `json:"language,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
	Alternatives   []Alternative `json:"alternatives,omitempty"`
	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	Provider       string        `json:"provider,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Failure builds a failed result with the given reason.
func Failure(reason string) *TranscriptionResult {
	return &TranscriptionResult{Success: false, Error: reason}
}

// UsageCounter holds per-provider running statistics. All fields except
// LastUsed are monotonically non-decreasing.
type UsageCounter struct {
	RequestCount  int64         `json:"request_count"`
	TotalDuration time.Duration `json:"total_duration"`
	ErrorCount    int64         `json:"error_count"`
	LastUsed      time.Time     `json:"last_used"`
	EstimatedCost float64       `json:"estimated_cost"`
}

// Provider is the contract every speech-to-text backend plugin satisfies.
// Transcribe may return an error on hard failure; the orchestrator converts
// it into a failed result. IsAvailable must not fail: implementations return
// false on any doubt.
type Provider interface {
	Name() string
	Enabled() bool
	Priority() int
	Languages() []string
	CostPerMinute() float64
	Transcribe(ctx context.Context, payload AudioPayload) (*TranscriptionResult, error)
	IsAvailable(ctx context.Context) bool
}
