package voiceHandler

import (
	voiceService "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/service"
	"github.com/chatman-media/farang-marketplace-voice/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	voice := srv.Group("/voice")

	voice.Use(h.middleware.NewRateLimiter)

	// Transcription and command processing
	voice.Post("/transcribe", h.Transcribe)
	voice.Post("/commands/text", h.ProcessTextCommand)
	voice.Post("/commands/audio", h.ProcessVoiceCommand)

	// Capability discovery
	voice.Get("/languages", h.GetSupportedLanguages)

	// Provider introspection
	providers := voice.Group("/providers")
	providers.Get("/stats", h.GetProviderStats)
	providers.Get("/health", h.GetProviderHealth)

	// Session inspection and maintenance
	sessions := voice.Group("/sessions")
	sessions.Get("/stats", h.GetSessionStats)
	sessions.Post("/cleanup", h.CleanupSessions)
	sessions.Get("/:session_id", h.GetSession)
	sessions.Get("/:session_id/history", h.GetCommandHistory)

	// Persisted command history
	voice.Get("/commands/:command_id", h.GetCommandRecord)
	voice.Get("/users/:user_id/history", h.GetUserCommandHistory)
}
