package voice

import "github.com/chatman-media/farang-marketplace-voice/pkg/response"

var (
	ErrInvalidAudioPayload  = response.NewError(400, "invalid audio payload")
	ErrTranscriptionFailed  = response.NewError(422, "failed to transcribe audio")
	ErrEmptyCommandText     = response.NewError(400, "command text is empty")
	ErrUnsupportedLanguage  = response.NewError(400, "language is not supported")
	ErrSessionNotFound      = response.NewError(404, "session not found")
	ErrCommandNotFound      = response.NewError(404, "command not found")
	ErrCommandNotRecognized = response.NewError(400, "command not recognized")
	ErrCommandFailed        = response.NewError(500, "failed to process voice command")
	ErrRateLimitExceeded    = response.NewError(429, "rate limit exceeded")
)
