package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// Provider transcribes audio through Gemini's audio understanding. It is the
// secondary backend: cheaper on long clips, weaker on Thai street names.
type Provider struct {
	client    *genai.Client
	modelName string
	apiKey    string
	enabled   bool
	priority  int
}

type Config struct {
	APIKey    string
	ModelName string
	Enabled   bool
	Priority  int
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.ModelName == "" {
		cfg.ModelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	return &Provider{
		client:    client,
		modelName: cfg.ModelName,
		apiKey:    cfg.APIKey,
		enabled:   cfg.Enabled,
		priority:  cfg.Priority,
	}, nil
}

func (p *Provider) Name() string        { return "gemini" }
func (p *Provider) Enabled() bool       { return p.enabled }
func (p *Provider) Priority() int       { return p.priority }
func (p *Provider) Languages() []string { return []string{"th-TH", "en-US", "ru-RU"} }

func (p *Provider) CostPerMinute() float64 { return 0.002 }

func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.apiKey != "" && p.client != nil
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

	model := p.client.GenerativeModel(p.modelName)
	prompt := fmt.Sprintf(
		"Transcribe this %s audio verbatim. Reply with the transcript only, no commentary.",
		languageName(payload.Language),
	)

	res, err := model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: "audio/" + format, Data: data},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini transcription: %w", err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok || strings.TrimSpace(string(text)) == "" {
		return nil, errors.New("gemini returned empty transcript")
	}

	return &speech.TranscriptionResult{
		Success:    true,
		Transcript: strings.TrimSpace(string(text)),
		Confidence: 0.85,
		Language:   payload.Language,
	}, nil
}

func languageName(code string) string {
	switch speech.BaseLanguage(code) {
	case "th":
		return "Thai"
	case "ru":
		return "Russian"
	default:
		return "English"
	}
}
