package voice

import (
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
)

type TranscribeRequest struct {
	AudioData  string `json:"audio_data" validate:"required"`
	Language   string `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	Format     string `json:"format,omitempty" validate:"omitempty,oneof=wav pcm mp3 ogg webm m4a"`
	SampleRate int    `json:"sample_rate,omitempty" validate:"omitempty,min=8000,max=48000"`
	Channels   int    `json:"channels,omitempty" validate:"omitempty,min=1,max=2"`
}

func (r TranscribeRequest) Payload() speech.AudioPayload {
	return speech.AudioPayload{
		Base64Data: r.AudioData,
		Language:   r.Language,
		Format:     r.Format,
		SampleRate: r.SampleRate,
		Channels:   r.Channels,
	}
}

type TextCommandRequest struct {
	Text      string `json:"text" validate:"required,min=1,max=500"`
	Language  string `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=64"`
	UserID    string `json:"user_id,omitempty" validate:"omitempty,max=64"`
	Context   string `json:"context,omitempty" validate:"omitempty,oneof=general search listing booking navigation"`
}

type VoiceCommandRequest struct {
	TranscribeRequest
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=64"`
	UserID    string `json:"user_id,omitempty" validate:"omitempty,max=64"`
	Context   string `json:"context,omitempty" validate:"omitempty,oneof=general search listing booking navigation"`
}

type CommandResponse struct {
	Command entity.VoiceCommand `json:"command"`
}

type LanguagesResponse struct {
	Languages []speech.LanguageEntry `json:"languages"`
	Default   string                 `json:"default"`
}

type ProviderStatsResponse struct {
	Providers map[string]speech.UsageCounter `json:"providers"`
}

type ProviderHealthResponse struct {
	Providers map[string]bool `json:"providers"`
}

type SessionStatsResponse struct {
	Stats session.Stats `json:"stats"`
}

type CleanupRequest struct {
	MaxIdleMinutes int `json:"max_idle_minutes,omitempty" validate:"omitempty,min=1,max=10080"`
}

type CleanupResponse struct {
	Removed int `json:"removed"`
}

type HistoryResponse struct {
	Commands []CommandRecord `json:"commands"`
	Total    int             `json:"total"`
}

// CommandRecord mirrors the persisted command-history row.
type CommandRecord struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Transcript string    `json:"transcript"`
	Intent     string    `json:"intent"`
	Action     string    `json:"action"`
	Speech     string    `json:"speech"`
	Confidence float64   `json:"confidence"`
	Language   string    `json:"language"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}
