// Package local provides a deterministic, always-available transcription
// provider. It is installed as the registry fallback for offline development
// and provider outage drills; the transcript is derived from the payload so
// repeated calls are reproducible.
package local

import (
	"context"
	"fmt"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
)

type Provider struct{}

func New() *Provider { return &Provider{} }

func (p *Provider) Name() string           { return "local" }
func (p *Provider) Enabled() bool          { return true }
func (p *Provider) Priority() int          { return 0 }
func (p *Provider) Languages() []string    { return []string{"th-TH", "en-US", "ru-RU"} }
func (p *Provider) CostPerMinute() float64 { return 0 }

func (p *Provider) IsAvailable(ctx context.Context) bool { return true }

func (p *Provider) Transcribe(ctx context.Context, payload speech.AudioPayload) (*speech.TranscriptionResult, error) {
	data, err := payload.Bytes()
	if err != nil {
		return nil, err
	}

	transcript := phraseFor(payload.Language)
	return &speech.TranscriptionResult{
		Success:    true,
		Transcript: fmt.Sprintf("%s (%d bytes)", transcript, len(data)),
		Confidence: 0.5,
		Language:   payload.Language,
		Duration:   time.Second,
	}, nil
}

func phraseFor(language string) string {
	switch speech.BaseLanguage(language) {
	case "th":
		return "ออฟไลน์: ถอดเสียงจำลอง"
	case "ru":
		return "офлайн: тестовая расшифровка"
	default:
		return "offline: simulated transcript"
	}
}
