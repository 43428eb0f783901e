package whisper

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
	openai "github.com/sashabaranov/go-openai"
)

// Provider transcribes audio through the OpenAI Whisper API.
type Provider struct {
	client   *openai.Client
	apiKey   string
	enabled  bool
	priority int
}

type Config struct {
	APIKey   string
	Enabled  bool
	Priority int
}

func New(cfg Config) *Provider {
	return &Provider{
		client:   openai.NewClient(cfg.APIKey),
		apiKey:   cfg.APIKey,
		enabled:  cfg.Enabled,
		priority: cfg.Priority,
	}
}

func (p *Provider) Name() string        { return "whisper" }
func (p *Provider) Enabled() bool       { return p.enabled }
func (p *Provider) Priority() int       { return p.priority }
func (p *Provider) Languages() []string { return []string{"th-TH", "en-US", "ru-RU"} }

// CostPerMinute mirrors the published whisper-1 rate.
func (p *Provider) CostPerMinute() float64 { return 0.006 }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	if p.apiKey == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.client.ListModels(probeCtx); err != nil {
		return false
	}
	return true
}

func (p *Provider) Transcribe(ctx context.Context, payload speech.AudioPayload) (*speech.TranscriptionResult, error) {
	data, err := payload.Bytes()
	if err != nil {
		return nil, err
	}

	format := payload.Format
	if format == "" {
		format = "wav"
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(data),
		FilePath: "audio." + format,
		Language: speech.BaseLanguage(payload.Language),
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := p.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("whisper transcription: %w", err)
	}
	if resp.Text == "" {
		return nil, fmt.Errorf("whisper returned empty transcript")
	}

	return &speech.TranscriptionResult{
		Success:    true,
		Transcript: resp.Text,
		Confidence: confidenceFromResponse(resp),
		Language:   payload.Language,
		Duration:   time.Duration(resp.Duration * float64(time.Second)),
	}, nil
}

// confidenceFromResponse derives an overall confidence from the per-segment
// average log probabilities whisper reports. Falls back to a flat value when
// the verbose payload carries no segments.
func confidenceFromResponse(resp openai.AudioResponse) float64 {
	if len(resp.Segments) == 0 {
		return 0.9
	}
	var sum float64
	for _, s := range resp.Segments {
		sum += s.AvgLogprob
	}
	conf := math.Exp(sum / float64(len(resp.Segments)))
	if conf <= 0 {
		return 0.5
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
