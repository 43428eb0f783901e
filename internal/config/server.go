package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/database/postgres"
	voiceHandler "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/handler"
	voiceRepository "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/repository"
	voiceService "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/service"
	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/middleware"
	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
	"github.com/chatman-media/farang-marketplace-voice/pkg/redis"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
	geminiProvider "github.com/chatman-media/farang-marketplace-voice/pkg/speech/gemini"
	localProvider "github.com/chatman-media/farang-marketplace-voice/pkg/speech/local"
	whisperProvider "github.com/chatman-media/farang-marketplace-voice/pkg/speech/whisper"
	"github.com/chatman-media/farang-marketplace-voice/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	handlers    []handler
	redisServer redis.IRedis
	registry    *speech.Registry
	transcriber *speech.Transcriber
	recognizer  *nlp.Recognizer
	sessions    *session.Store
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

// WithSpeechStack registers every configured transcription provider and
// builds the orchestrator around them. Providers without credentials are
// registered disabled so they still show up in stats and health output.
func WithSpeechStack() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the speech stack")
		}

		defaultLanguage := os.Getenv("SPEECH_DEFAULT_LANGUAGE")
		if defaultLanguage == "" {
			defaultLanguage = "th-TH"
		}

		registry := speech.NewRegistry(defaultLanguage)

		openAIKey := os.Getenv("OPENAI_API_KEY")
		registry.Register(whisperProvider.New(whisperProvider.Config{
			APIKey:   openAIKey,
			Enabled:  openAIKey != "",
			Priority: 10,
		}))

		if geminiKey := os.Getenv("GEMINI_API_KEY"); geminiKey != "" {
			gp, err := geminiProvider.New(context.Background(), geminiProvider.Config{
				APIKey:    geminiKey,
				ModelName: os.Getenv("GEMINI_MODEL"),
				Enabled:   true,
				Priority:  5,
			})
			if err != nil {
				s.log.Errorf("Failed to create Gemini provider: %v", err)
			} else {
				registry.Register(gp)
			}
		}

		fallback := localProvider.New()
		registry.Register(fallback)
		if os.Getenv("SPEECH_OFFLINE") == "true" {
			registry.SetFallback(fallback)
		}

		maxBytes, _ := strconv.ParseInt(os.Getenv("SPEECH_MAX_AUDIO_BYTES"), 10, 64)
		minBytes, _ := strconv.ParseInt(os.Getenv("SPEECH_MIN_AUDIO_BYTES"), 10, 64)

		s.registry = registry
		s.transcriber = speech.NewTranscriber(registry, speech.DefaultLanguages(), speech.Config{
			MaxAudioBytes:   maxBytes,
			MinAudioBytes:   minBytes,
			DefaultLanguage: defaultLanguage,
		})
		return nil
	}
}

func WithRecognizer() ServerOption {
	return func(s *Server) error {
		s.recognizer = nlp.NewRecognizer()
		return nil
	}
}

func WithSessionStore() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before the session store")
		}

		defaultLanguage := os.Getenv("SPEECH_DEFAULT_LANGUAGE")
		if defaultLanguage == "" {
			defaultLanguage = "th-TH"
		}

		idleTimeout := session.DefaultIdleTimeout
		if minutes, err := strconv.Atoi(os.Getenv("SESSION_IDLE_MINUTES")); err == nil && minutes > 0 {
			idleTimeout = time.Duration(minutes) * time.Minute
		}

		s.sessions = session.NewStore(defaultLanguage, idleTimeout, s.log)
		return nil
	}
}

func (s *Server) RegisterHandler() {
	var voiceRepo voiceRepository.Repository
	if s.db != nil {
		voiceRepo = voiceRepository.New(s.db, s.log)
	}

	voiceServices := voiceService.NewVoiceService(
		s.log,
		s.transcriber,
		s.registry,
		s.recognizer,
		s.sessions,
		voiceRepo,
		s.redisServer,
		s.utils,
		&voiceService.VoiceConfig{
			HistoryEnabled: s.db != nil,
		},
	)
	voiceHandlers := voiceHandler.New(s.log, s.validator, s.middleware, voiceServices)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, voiceHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	go s.sessionJanitor()

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// sessionJanitor sweeps idle sessions on a fixed cadence for the lifetime of
// the process.
func (s *Server) sessionJanitor() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if removed := s.sessions.ExpireIdle(0); removed > 0 {
			s.log.WithFields(logrus.Fields{
				"removed": removed,
			}).Debug("Session janitor sweep")
		}
	}
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
