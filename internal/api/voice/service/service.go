package voiceService

import (
	"context"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice"
	voiceRepository "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/repository"
	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
	redisPkg "github.com/chatman-media/farang-marketplace-voice/pkg/redis"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
	"github.com/chatman-media/farang-marketplace-voice/pkg/utils"

	"github.com/sirupsen/logrus"
)

type IVoiceService interface {
	Transcribe(ctx context.Context, req voice.TranscribeRequest) *speech.TranscriptionResult

	ProcessTextCommand(ctx context.Context, req voice.TextCommandRequest) (*entity.VoiceCommand, error)
	ProcessVoiceCommand(ctx context.Context, req voice.VoiceCommandRequest) (*entity.VoiceCommand, error)

	GetSupportedLanguages() voice.LanguagesResponse
	GetProviderStats() map[string]speech.UsageCounter
	GetProviderHealth(ctx context.Context) map[string]bool

	GetSession(ctx context.Context, sessionID string) (entity.VoiceSession, error)
	GetSessionStats() session.Stats
	CleanupSessions(maxIdle time.Duration) int

	GetCommandHistory(ctx context.Context, sessionID string, limit, offset int) ([]voice.CommandRecord, int, error)
	GetUserCommandHistory(ctx context.Context, userID string, limit, offset int) ([]voice.CommandRecord, int, error)
	GetCommandRecord(ctx context.Context, commandID string) (voice.CommandRecord, error)
}

type voiceService struct {
	log         *logrus.Logger
	transcriber *speech.Transcriber
	registry    *speech.Registry
	recognizer  *nlp.Recognizer
	sessions    *session.Store
	flows       map[string]session.FlowDefinition
	voiceRepo   voiceRepository.Repository
	cache       redisPkg.IRedis
	utils       utils.IUtils
	config      *VoiceConfig
}

type VoiceConfig struct {
	DefaultLanguage    string        `json:"default_language"`
	TranscriptCacheTTL time.Duration `json:"transcript_cache_ttl"`
	HistoryEnabled     bool          `json:"history_enabled"`
}

func (c *VoiceConfig) withDefaults() *VoiceConfig {
	if c == nil {
		c = &VoiceConfig{}
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "th-TH"
	}
	if c.TranscriptCacheTTL <= 0 {
		c.TranscriptCacheTTL = time.Hour
	}
	return c
}

// NewVoiceService wires the processing core. voiceRepo and cache may be nil;
// command history and transcript caching degrade to no-ops without them.
func NewVoiceService(
	log *logrus.Logger,
	transcriber *speech.Transcriber,
	registry *speech.Registry,
	recognizer *nlp.Recognizer,
	sessions *session.Store,
	voiceRepo voiceRepository.Repository,
	cache redisPkg.IRedis,
	utilsPkg utils.IUtils,
	config *VoiceConfig,
) IVoiceService {
	return &voiceService{
		log:         log,
		transcriber: transcriber,
		registry:    registry,
		recognizer:  recognizer,
		sessions:    sessions,
		flows:       session.Flows(),
		voiceRepo:   voiceRepo,
		cache:       cache,
		utils:       utilsPkg,
		config:      config.withDefaults(),
	}
}
