package voiceService

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice"
	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	contextPkg "github.com/chatman-media/farang-marketplace-voice/pkg/context"
	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transcribe converts audio to text without touching any session. Results
// for previously seen audio are served from the transcript cache.
func (s *voiceService) Transcribe(ctx context.Context, req voice.TranscribeRequest) *speech.TranscriptionResult {
	requestID := contextPkg.GetRequestID(ctx)

	payload := req.Payload()
	data, err := payload.Bytes()
	if err != nil {
		return speech.Failure(err.Error())
	}

	var cacheKey string
	if s.cache != nil && len(data) > 0 {
		cacheKey = s.utils.HashAudio(data)
		if cached, err := s.cache.GetTranscript(ctx, cacheKey); err == nil {
			var result speech.TranscriptionResult
			if err := json.UnmarshalFromString(cached, &result); err == nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"provider":   result.Provider,
				}).Debug("Transcript served from cache")
				return &result
			}
		}
	}

	result := s.transcriber.Transcribe(ctx, payload)
	if !result.Success {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      result.Error,
			"provider":   result.Provider,
		}).Warn("Transcription failed")
		return result
	}

	if s.cache != nil && cacheKey != "" {
		if encoded, err := json.MarshalToString(result); err == nil {
			if err := s.cache.SetTranscript(ctx, cacheKey, encoded, s.config.TranscriptCacheTTL); err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"error":      err.Error(),
				}).Warn("Failed to cache transcript")
			}
		}
	}

	return result
}

// ProcessTextCommand runs the full text pipeline: recognize, execute against
// the session, append to the command log and persist history best-effort.
func (s *voiceService) ProcessTextCommand(ctx context.Context, req voice.TextCommandRequest) (*entity.VoiceCommand, error) {
	return s.processCommand(ctx, req.Text, req.Language, req.SessionID, req.UserID, req.Context, 1.0)
}

// ProcessVoiceCommand transcribes first, then feeds the transcript through
// the text pipeline. The command confidence is the intent confidence scaled
// by the transcription confidence.
func (s *voiceService) ProcessVoiceCommand(ctx context.Context, req voice.VoiceCommandRequest) (*entity.VoiceCommand, error) {
	requestID := contextPkg.GetRequestID(ctx)

	result := s.Transcribe(ctx, req.TranscribeRequest)
	if !result.Success {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      result.Error,
		}).Warn("Voice command rejected at transcription stage")
		return s.rejectedCommand("", req.Language, req.SessionID, req.UserID,
			"transcription_failed", result.Error, "transcription_failed"), nil
	}

	language := req.Language
	if language == "" {
		language = result.Language
	}

	speechConfidence := result.Confidence
	if speechConfidence <= 0 {
		speechConfidence = 1.0
	}

	return s.processCommand(ctx, result.Transcript, language, req.SessionID, req.UserID, req.Context, speechConfidence)
}

func (s *voiceService) processCommand(ctx context.Context, text, language, sessionID, userID, contextHint string, speechConfidence float64) (*entity.VoiceCommand, error) {
	requestID := contextPkg.GetRequestID(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return s.rejectedCommand(text, language, sessionID, userID,
			"error", "empty command text", "empty_text"), nil
	}

	if language != "" {
		entry, ok := speech.FindLanguage(s.transcriber.Languages(), language)
		if !ok || !entry.Enabled {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"language":   language,
			}).Warn("Command with unsupported language")
			return s.rejectedCommand(text, language, sessionID, userID,
				"error", fmt.Sprintf("language %q is not supported", language), "unsupported_language"), nil
		}
		language = entry.Code
	}

	if sessionID == "" {
		sessionID = s.utils.NewSessionID()
	}

	sess := s.sessions.GetOrCreate(sessionID, userID, language)
	if language == "" {
		language = sess.Language
	}

	intent, entities := s.recognizer.Recognize(text, language)

	commandID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to generate command ID")
		return nil, err
	}

	cmd := entity.VoiceCommand{
		ID:         commandID,
		Text:       text,
		Intent:     intent,
		Entities:   entities,
		Confidence: intent.Confidence * speechConfidence,
		Language:   language,
		UserID:     sess.UserID,
		SessionID:  sess.ID,
		CreatedAt:  time.Now(),
	}

	// Execute and append under the per-session lock so concurrent utterances
	// on one session cannot interleave flow transitions.
	ok := s.sessions.Update(sess.ID, func(live *entity.VoiceSession) {
		if contextHint != "" {
			live.Context = contextHint
		}
		response := s.execute(live, &cmd)
		cmd.Response = response
		live.Commands = append(live.Commands, cmd)
	})
	if !ok {
		return nil, voice.ErrSessionNotFound
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"session_id": sess.ID,
		"intent":     intent.Name,
		"confidence": cmd.Confidence,
	}).Debug("Processed voice command")

	s.persistHistory(ctx, cmd)

	return &cmd, nil
}

// rejectedCommand encodes a recoverable input failure as a normal command
// whose response carries success=false and an action tag. No session is
// created or touched for rejected input.
func (s *voiceService) rejectedCommand(text, language, sessionID, userID, action, errMsg, phraseKey string) *entity.VoiceCommand {
	return &entity.VoiceCommand{
		Text:      text,
		Intent:    nlp.Intent{Name: nlp.IntentUnknown, Confidence: 0},
		Language:  language,
		UserID:    userID,
		SessionID: sessionID,
		CreatedAt: time.Now(),
		Response: &entity.CommandResponse{
			Action:  action,
			Speech:  phrase(phraseKey, language),
			Success: false,
			Error:   errMsg,
		},
	}
}

// persistHistory writes the command to the history table. Failures are
// logged and swallowed: history is an audit trail, not part of the command
// contract.
func (s *voiceService) persistHistory(ctx context.Context, cmd entity.VoiceCommand) {
	if !s.config.HistoryEnabled || s.voiceRepo == nil {
		return
	}
	requestID := contextPkg.GetRequestID(ctx)

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to create repository client for history")
		return
	}

	if err := repo.Commands.CreateCommand(ctx, cmd); err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"command_id": cmd.ID,
			"error":      err.Error(),
		}).Warn("Failed to persist command history")
	}
}

func (s *voiceService) GetSupportedLanguages() voice.LanguagesResponse {
	return voice.LanguagesResponse{
		Languages: s.transcriber.Languages(),
		Default:   s.transcriber.DefaultLanguage(),
	}
}

func (s *voiceService) GetProviderStats() map[string]speech.UsageCounter {
	return s.registry.Usage()
}

func (s *voiceService) GetProviderHealth(ctx context.Context) map[string]bool {
	return s.registry.Health(ctx)
}

func (s *voiceService) GetSession(ctx context.Context, sessionID string) (entity.VoiceSession, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return entity.VoiceSession{}, voice.ErrSessionNotFound
	}
	return sess, nil
}

func (s *voiceService) GetSessionStats() session.Stats {
	return s.sessions.Stats()
}

func (s *voiceService) CleanupSessions(maxIdle time.Duration) int {
	return s.sessions.ExpireIdle(maxIdle)
}

// GetCommandHistory reads the persisted command log for a session. Without a
// database the history surface reports empty rather than failing.
func (s *voiceService) GetCommandHistory(ctx context.Context, sessionID string, limit, offset int) ([]voice.CommandRecord, int, error) {
	if s.voiceRepo == nil {
		return []voice.CommandRecord{}, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to create repository client for history")
		return nil, 0, err
	}

	return repo.Commands.GetCommandsBySessionID(ctx, sessionID, limit, offset)
}

// GetUserCommandHistory reads the persisted command log across all of a
// user's sessions.
func (s *voiceService) GetUserCommandHistory(ctx context.Context, userID string, limit, offset int) ([]voice.CommandRecord, int, error) {
	if s.voiceRepo == nil {
		return []voice.CommandRecord{}, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to create repository client for user history")
		return nil, 0, err
	}

	return repo.Commands.GetCommandsByUserID(ctx, userID, limit, offset)
}

// GetCommandRecord looks up a single persisted command by its id.
func (s *voiceService) GetCommandRecord(ctx context.Context, commandID string) (voice.CommandRecord, error) {
	if s.voiceRepo == nil {
		return voice.CommandRecord{}, voice.ErrCommandNotFound
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": contextPkg.GetRequestID(ctx),
			"error":      err.Error(),
		}).Error("Failed to create repository client for command lookup")
		return voice.CommandRecord{}, err
	}

	return repo.Commands.GetCommandByID(ctx, commandID)
}
