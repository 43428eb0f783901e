package entity

import (
	"time"

	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
)

// Conversation context tags.
const (
	ContextGeneral    = "general"
	ContextSearch     = "search"
	ContextListing    = "listing"
	ContextNavigation = "navigation"
	ContextBooking    = "booking"
)

// AnonymousUserID is the sentinel for sessions opened without a login.
const AnonymousUserID = "anonymous"

// CommandResponse is what the executor hands back to the caller and attaches
// to the originating command. Failures keep a valid Action so clients can
// still render a fallback state.
type CommandResponse struct {
	Action   string                 `json:"action"`
	Data     map[string]interface{} `json:"data,omitempty"`
	Speech   string                 `json:"speech,omitempty"`
	Redirect string                 `json:"redirect,omitempty"`
	Success  bool                   `json:"success"`
	Error    string                 `json:"error,omitempty"`
}

// VoiceCommand is one user utterance. Appended to its session's command log;
// immutable after creation except for attaching the response.
type VoiceCommand struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Intent     nlp.Intent       `json:"intent"`
	Entities   []nlp.Entity     `json:"entities,omitempty"`
	Confidence float64          `json:"confidence"`
	Language   string           `json:"language"`
	UserID     string           `json:"user_id"`
	SessionID  string           `json:"session_id"`
	CreatedAt  time.Time        `json:"created_at"`
	Response   *CommandResponse `json:"response,omitempty"`
}

// FlowState tracks the multi-step flow a session is in the middle of, if any.
type FlowState struct {
	CurrentFlow   string            `json:"current_flow,omitempty"`
	Step          string            `json:"step,omitempty"`
	Data          map[string]string `json:"data,omitempty"`
	AwaitingInput bool              `json:"awaiting_input"`
	LastIntent    string            `json:"last_intent,omitempty"`
}

// Active reports whether a multi-step flow is in progress.
func (f FlowState) Active() bool {
	return f.CurrentFlow != ""
}

// VoiceSession is the server-side record of one ongoing conversation. It is
// exclusively owned by the session store; other components read and write it
// only through store accessors.
type VoiceSession struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Language     string         `json:"language"`
	Context      string         `json:"context"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
	Commands     []VoiceCommand `json:"commands"`
	Flow         FlowState      `json:"flow"`
}
