package voiceHandler

import (
	"errors"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice"
	contextPkg "github.com/chatman-media/farang-marketplace-voice/pkg/context"
	"github.com/chatman-media/farang-marketplace-voice/pkg/handlerUtil"
	"github.com/chatman-media/farang-marketplace-voice/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *VoiceHandler) Transcribe(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing transcription request")

	var req voice.TranscribeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("invalid request body"), ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	result := h.voiceService.Transcribe(c, req)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		status := fiber.StatusOK
		if !result.Success {
			status = fiber.StatusUnprocessableEntity
		}
		return errHandler.HandleSuccess(ctx, status, result)
	}
}

func (h *VoiceHandler) ProcessTextCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing text command request")

	var req voice.TextCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("invalid request body"), ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	cmd, err := h.voiceService.ProcessTextCommand(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_text_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.CommandResponse{Command: *cmd})
	}
}

func (h *VoiceHandler) ProcessVoiceCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing voice command request")

	var req voice.VoiceCommandRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("invalid request body"), ctx.Path())
	}

	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	cmd, err := h.voiceService.ProcessVoiceCommand(c, req)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "process_voice_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.CommandResponse{Command: *cmd})
	}
}

func (h *VoiceHandler) GetSupportedLanguages(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.voiceService.GetSupportedLanguages())
}

func (h *VoiceHandler) GetProviderStats(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.ProviderStatsResponse{
		Providers: h.voiceService.GetProviderStats(),
	})
}

func (h *VoiceHandler) GetProviderHealth(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Probing provider health")

	health := h.voiceService.GetProviderHealth(c)

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.ProviderHealthResponse{Providers: health})
	}
}

func (h *VoiceHandler) GetSession(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("session_id is required"), ctx.Path())
	}

	sess, err := h.voiceService.GetSession(c, sessionID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_session")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, sess)
}

func (h *VoiceHandler) GetCommandHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	sessionID := ctx.Params("session_id")
	if sessionID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("session_id is required"), ctx.Path())
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	commands, total, err := h.voiceService.GetCommandHistory(c, sessionID, limit, offset)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_command_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.HistoryResponse{
			Commands: commands,
			Total:    total,
		})
	}
}

func (h *VoiceHandler) GetUserCommandHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	userID := ctx.Params("user_id")
	if userID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("user_id is required"), ctx.Path())
	}

	limit := ctx.QueryInt("limit", 20)
	offset := ctx.QueryInt("offset", 0)

	commands, total, err := h.voiceService.GetUserCommandHistory(c, userID, limit, offset)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_user_command_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.HistoryResponse{
			Commands: commands,
			Total:    total,
		})
	}
}

func (h *VoiceHandler) GetCommandRecord(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 5*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	commandID := ctx.Params("command_id")
	if commandID == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("command_id is required"), ctx.Path())
	}

	record, err := h.voiceService.GetCommandRecord(c, commandID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_command_record")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, record)
}

func (h *VoiceHandler) GetSessionStats(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.SessionStatsResponse{
		Stats: h.voiceService.GetSessionStats(),
	})
}

func (h *VoiceHandler) CleanupSessions(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	var req voice.CleanupRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID,
				errors.New("invalid request body"), ctx.Path())
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	removed := h.voiceService.CleanupSessions(time.Duration(req.MaxIdleMinutes) * time.Minute)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"removed":    removed,
	}).Info("Session cleanup completed")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, voice.CleanupResponse{Removed: removed})
}
