package voiceService_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice"
	voiceService "github.com/chatman-media/farang-marketplace-voice/internal/api/voice/service"
	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
	redisPkg "github.com/chatman-media/farang-marketplace-voice/pkg/redis"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
	"github.com/chatman-media/farang-marketplace-voice/pkg/utils"

	"github.com/sirupsen/logrus"
)

type scriptedProvider struct {
	transcript string
	confidence float64
	err        error

	mu    sync.Mutex
	calls int
}

func (p *scriptedProvider) Name() string           { return "scripted" }
func (p *scriptedProvider) Enabled() bool          { return true }
func (p *scriptedProvider) Priority() int          { return 10 }
func (p *scriptedProvider) Languages() []string    { return []string{"th-TH", "en-US", "ru-RU"} }
func (p *scriptedProvider) CostPerMinute() float64 { return 0.006 }

func (p *scriptedProvider) IsAvailable(ctx context.Context) bool { return true }

func (p *scriptedProvider) Transcribe(ctx context.Context, payload speech.AudioPayload) (*speech.TranscriptionResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &speech.TranscriptionResult{
		Success:    true,
		Transcript: p.transcript,
		Confidence: p.confidence,
		Language:   payload.Language,
	}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// memoryCache is an in-process stand-in for the redis transcript cache.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) SetTranscript(ctx context.Context, key, payload string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
	return nil
}

func (c *memoryCache) GetTranscript(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return "", redisPkg.ErrCacheMiss
}

func (c *memoryCache) DeleteTranscript(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func newTestService(provider speech.Provider, cache redisPkg.IRedis) (voiceService.IVoiceService, *speech.Registry) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	registry := speech.NewRegistry("en-US")
	if provider != nil {
		registry.Register(provider)
	}
	transcriber := speech.NewTranscriber(registry, speech.DefaultLanguages(), speech.Config{
		MinAudioBytes:   1,
		DefaultLanguage: "en-US",
	})

	svc := voiceService.NewVoiceService(
		log,
		transcriber,
		registry,
		nlp.NewRecognizer(),
		session.NewStore("en-US", time.Hour, log),
		nil,
		cache,
		utils.New(),
		&voiceService.VoiceConfig{DefaultLanguage: "en-US"},
	)
	return svc, registry
}

func encodedAudio(seed string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat(seed, 64)))
}

func textCommand(t *testing.T, svc voiceService.IVoiceService, sessionID, text, language string) *entity.VoiceCommand {
	t.Helper()
	cmd, err := svc.ProcessTextCommand(context.Background(), voice.TextCommandRequest{
		Text:      text,
		Language:  language,
		SessionID: sessionID,
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("ProcessTextCommand(%q) error: %v", text, err)
	}
	if cmd.Response == nil {
		t.Fatalf("ProcessTextCommand(%q) returned no response", text)
	}
	return cmd
}

func TestProcessTextCommand_Search(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	cmd := textCommand(t, svc, "sess-search", "Find apartments in Bangkok", "en-US")

	if cmd.Intent.Name != nlp.IntentSearch {
		t.Fatalf("intent = %q, want search", cmd.Intent.Name)
	}
	resp := cmd.Response
	if resp.Action != "search" || !resp.Success {
		t.Errorf("response = %+v, want successful search", resp)
	}
	if !strings.HasPrefix(resp.Redirect, "/search?q=") {
		t.Errorf("Redirect = %q, want /search?q=...", resp.Redirect)
	}
	filters, ok := resp.Data["filters"].(map[string]interface{})
	if !ok {
		t.Fatal("response carries no filters")
	}
	if filters["location"] != "Bangkok" {
		t.Errorf("filters[location] = %v, want Bangkok", filters["location"])
	}
	if filters["category"] != "apartment" {
		t.Errorf("filters[category] = %v, want apartment", filters["category"])
	}

	sess, err := svc.GetSession(context.Background(), "sess-search")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if sess.Context != entity.ContextSearch {
		t.Errorf("session context = %q, want search", sess.Context)
	}
	if len(sess.Commands) != 1 || sess.Commands[0].ID != cmd.ID {
		t.Error("command not appended to session log")
	}
}

func TestProcessTextCommand_SearchPriceFilter(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	cmd := textCommand(t, svc, "sess-price", "Find rooms in Pattaya under 5,000 baht", "en-US")

	resp := cmd.Response
	filters, ok := resp.Data["filters"].(map[string]interface{})
	if !ok {
		t.Fatal("response carries no filters")
	}
	priceRange, ok := filters["priceRange"].(map[string]interface{})
	if !ok {
		t.Fatalf("filters[priceRange] = %v, want a range", filters["priceRange"])
	}
	if priceRange["min"] != float64(0) || priceRange["max"] != float64(5000) {
		t.Errorf("priceRange = %v, want {0 5000}", priceRange)
	}
	if !strings.Contains(resp.Redirect, "location=Pattaya") {
		t.Errorf("Redirect = %q, want location parameter", resp.Redirect)
	}
}

func TestProcessTextCommand_NavigateThai(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	cmd := textCommand(t, svc, "sess-nav", "ไปหน้าหลัก", "th-TH")

	if cmd.Intent.Name != nlp.IntentNavigate {
		t.Fatalf("intent = %q, want navigate", cmd.Intent.Name)
	}
	if cmd.Response.Redirect != "/" {
		t.Errorf("Redirect = %q, want /", cmd.Response.Redirect)
	}
	if !strings.Contains(cmd.Response.Speech, "หน้าหลัก") {
		t.Errorf("Speech = %q, want Thai page name", cmd.Response.Speech)
	}
}

func TestProcessTextCommand_ListingFlowLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	const sessionID = "sess-flow"

	start := textCommand(t, svc, sessionID, "Create a new listing", "en-US")
	if start.Response.Action != nlp.IntentCreateListing {
		t.Fatalf("action = %q, want create_listing", start.Response.Action)
	}
	if start.Response.Redirect != "/listings/create" {
		t.Errorf("Redirect = %q", start.Response.Redirect)
	}
	if step := start.Response.Data["step"]; step != "start" {
		t.Fatalf("flow opened at step %v, want start", step)
	}

	// Confirming the start step moves the flow to its second declared step.
	confirmed := textCommand(t, svc, sessionID, "yes", "en-US")
	if confirmed.Response.Action != "flow_prompt" {
		t.Fatalf("action = %q, want flow_prompt", confirmed.Response.Action)
	}
	if step := confirmed.Response.Data["step"]; step != "category" {
		t.Fatalf("step = %v, want category", step)
	}

	// Free-text steps consume the utterance as the answer.
	for _, tt := range []struct {
		answer   string
		wantStep string
	}{
		{answer: "scooter", wantStep: "location"},
		{answer: "Pattaya", wantStep: "price"},
		{answer: "15,000 baht", wantStep: "review"},
	} {
		cmd := textCommand(t, svc, sessionID, tt.answer, "en-US")
		if cmd.Response.Action != "flow_prompt" {
			t.Fatalf("answer %q: action = %q, want flow_prompt", tt.answer, cmd.Response.Action)
		}
		if step := cmd.Response.Data["step"]; step != tt.wantStep {
			t.Fatalf("answer %q: step = %v, want %q", tt.answer, step, tt.wantStep)
		}
	}

	done := textCommand(t, svc, sessionID, "yes", "en-US")
	if done.Response.Action != "flow_completed" {
		t.Fatalf("action = %q, want flow_completed", done.Response.Action)
	}
	fields, ok := done.Response.Data["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("completion carries no collected fields")
	}
	if fields["category"] != "scooter" || fields["location"] != "Pattaya" {
		t.Errorf("fields = %v", fields)
	}
	if done.Response.Speech != "Your listing has been published." {
		t.Errorf("Speech = %q", done.Response.Speech)
	}

	sess, _ := svc.GetSession(context.Background(), sessionID)
	if sess.Flow.Active() {
		t.Error("flow still active after completion")
	}
	if sess.Context != entity.ContextGeneral {
		t.Errorf("context = %q, want general after completion", sess.Context)
	}
}

func TestProcessTextCommand_FlowCancel(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	const sessionID = "sess-cancel"

	textCommand(t, svc, sessionID, "Create a new listing", "en-US")
	cancelled := textCommand(t, svc, sessionID, "cancel", "en-US")

	if cancelled.Response.Action != "cancel" || !cancelled.Response.Success {
		t.Fatalf("response = %+v, want successful cancel", cancelled.Response)
	}

	sess, _ := svc.GetSession(context.Background(), sessionID)
	if sess.Flow.Active() {
		t.Error("flow still active after cancel")
	}
	if len(sess.Flow.Data) != 0 {
		t.Error("collected flow data survived the cancel")
	}
}

func TestProcessTextCommand_BookingFlow(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	const sessionID = "sess-book"

	start := textCommand(t, svc, sessionID, "Забронируй скутер на Пхукете", "ru-RU")
	if start.Intent.Name != nlp.IntentBookService {
		t.Fatalf("intent = %q, want book_service", start.Intent.Name)
	}
	if start.Response.Redirect != "/bookings/new" {
		t.Errorf("Redirect = %q", start.Response.Redirect)
	}

	// The booking flow is one-shot: confirming the start step completes it.
	done := textCommand(t, svc, sessionID, "да", "ru-RU")
	if done.Response.Action != "flow_completed" {
		t.Fatalf("action = %q, want flow_completed", done.Response.Action)
	}
	if done.Response.Speech != "Ваш запрос на бронирование отправлен." {
		t.Errorf("Speech = %q", done.Response.Speech)
	}
}

func TestProcessTextCommand_Unknown(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	cmd := textCommand(t, svc, "sess-unknown", "blorp zork fizzle", "en-US")

	if cmd.Intent.Name != nlp.IntentUnknown {
		t.Fatalf("intent = %q, want unknown", cmd.Intent.Name)
	}
	if cmd.Response.Success {
		t.Error("unknown command reported success")
	}
	if cmd.Response.Data["text"] != "blorp zork fizzle" {
		t.Errorf("echo = %v, want original text", cmd.Response.Data["text"])
	}
	if cmd.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", cmd.Confidence)
	}
}

func TestProcessTextCommand_Repeat(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	const sessionID = "sess-repeat"

	first := textCommand(t, svc, sessionID, "Find condos in Phuket", "en-US")
	repeated := textCommand(t, svc, sessionID, "repeat", "en-US")

	if repeated.Response.Speech != first.Response.Speech {
		t.Errorf("repeated speech %q != original %q", repeated.Response.Speech, first.Response.Speech)
	}

	fresh, _ := newTestService(nil, nil)
	nothing := textCommand(t, fresh, "sess-empty", "repeat", "en-US")
	if nothing.Response.Success {
		t.Error("repeat with empty log reported success")
	}
}

func TestProcessTextCommand_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	// Bad input never surfaces as a Go error: the command comes back with a
	// failed response and an action tag the caller can still render.
	cmd, err := svc.ProcessTextCommand(context.Background(), voice.TextCommandRequest{Text: "   "})
	if err != nil {
		t.Fatalf("blank text: err = %v, want failure encoded in the response", err)
	}
	if cmd.Response == nil || cmd.Response.Success || cmd.Response.Action != "error" {
		t.Fatalf("blank text: response = %+v, want action=error success=false", cmd.Response)
	}
	if !strings.Contains(cmd.Response.Error, "empty") {
		t.Errorf("blank text: Error = %q, want mention of empty", cmd.Response.Error)
	}

	cmd, err = svc.ProcessTextCommand(context.Background(), voice.TextCommandRequest{Text: "hello", Language: "fr-FR"})
	if err != nil {
		t.Fatalf("unsupported language: err = %v, want failure encoded in the response", err)
	}
	if cmd.Response == nil || cmd.Response.Success || cmd.Response.Action != "error" {
		t.Fatalf("unsupported language: response = %+v, want action=error success=false", cmd.Response)
	}
	if !strings.Contains(cmd.Response.Error, "not supported") {
		t.Errorf("unsupported language: Error = %q, want mention of not supported", cmd.Response.Error)
	}
	if svc.GetSessionStats().TotalSessions != 0 {
		t.Error("rejected input must not create sessions")
	}
}

func TestProcessVoiceCommand(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{transcript: "find condos in Phuket", confidence: 0.93}
	svc, registry := newTestService(provider, nil)

	cmd, err := svc.ProcessVoiceCommand(context.Background(), voice.VoiceCommandRequest{
		TranscribeRequest: voice.TranscribeRequest{
			AudioData: encodedAudio("a"),
			Language:  "en-US",
			Format:    "wav",
		},
		SessionID: "sess-voice",
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("ProcessVoiceCommand: %v", err)
	}

	if cmd.Text != "find condos in Phuket" {
		t.Errorf("Text = %q", cmd.Text)
	}
	if cmd.Intent.Name != nlp.IntentSearch {
		t.Errorf("intent = %q, want search", cmd.Intent.Name)
	}
	want := 0.90 * 0.93
	if diff := cmd.Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want %v", cmd.Confidence, want)
	}

	if usage := registry.Usage()["scripted"]; usage.RequestCount != 1 {
		t.Errorf("provider RequestCount = %d, want 1", usage.RequestCount)
	}
}

func TestProcessVoiceCommand_TranscriptionFailure(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{err: errors.New("upstream down")}
	svc, _ := newTestService(provider, nil)

	cmd, err := svc.ProcessVoiceCommand(context.Background(), voice.VoiceCommandRequest{
		TranscribeRequest: voice.TranscribeRequest{
			AudioData: encodedAudio("b"),
			Language:  "en-US",
		},
		SessionID: "sess-fail",
	})
	if err != nil {
		t.Fatalf("ProcessVoiceCommand: err = %v, want failure encoded in the response", err)
	}
	if cmd.Response == nil || cmd.Response.Success || cmd.Response.Action != "transcription_failed" {
		t.Fatalf("response = %+v, want action=transcription_failed success=false", cmd.Response)
	}
	if !strings.Contains(cmd.Response.Error, "upstream down") {
		t.Errorf("Error = %q, want the provider error", cmd.Response.Error)
	}

	if _, getErr := svc.GetSession(context.Background(), "sess-fail"); !errors.Is(getErr, voice.ErrSessionNotFound) {
		t.Error("failed transcription must not create a session")
	}
}

func TestTranscribe_CacheHit(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{transcript: "hello", confidence: 0.9}
	cache := newMemoryCache()
	svc, _ := newTestService(provider, cache)

	req := voice.TranscribeRequest{AudioData: encodedAudio("c"), Language: "en-US", Format: "wav"}

	first := svc.Transcribe(context.Background(), req)
	if !first.Success {
		t.Fatalf("first Transcribe failed: %s", first.Error)
	}
	second := svc.Transcribe(context.Background(), req)
	if !second.Success || second.Transcript != first.Transcript {
		t.Fatalf("cached result differs: %+v", second)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1 (second call cached)", provider.callCount())
	}
}

func TestGetSupportedLanguages(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	langs := svc.GetSupportedLanguages()

	if langs.Default != "en-US" {
		t.Errorf("Default = %q, want en-US", langs.Default)
	}
	if len(langs.Languages) != 3 {
		t.Errorf("len(Languages) = %d, want 3", len(langs.Languages))
	}
}

func TestCommandHistory_WithoutDatabase(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)

	commands, total, err := svc.GetCommandHistory(context.Background(), "sess-1", 20, 0)
	if err != nil || total != 0 || len(commands) != 0 {
		t.Errorf("GetCommandHistory = (%v, %d, %v), want empty", commands, total, err)
	}

	commands, total, err = svc.GetUserCommandHistory(context.Background(), "user-1", 20, 0)
	if err != nil || total != 0 || len(commands) != 0 {
		t.Errorf("GetUserCommandHistory = (%v, %d, %v), want empty", commands, total, err)
	}

	if _, err := svc.GetCommandRecord(context.Background(), "cmd-1"); !errors.Is(err, voice.ErrCommandNotFound) {
		t.Errorf("GetCommandRecord err = %v, want ErrCommandNotFound", err)
	}
}

func TestCleanupSessions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(nil, nil)
	textCommand(t, svc, "sess-idle", "help", "en-US")

	time.Sleep(30 * time.Millisecond)

	if removed := svc.CleanupSessions(10 * time.Millisecond); removed != 1 {
		t.Fatalf("CleanupSessions removed %d, want 1", removed)
	}
	if _, err := svc.GetSession(context.Background(), "sess-idle"); !errors.Is(err, voice.ErrSessionNotFound) {
		t.Error("session survived cleanup")
	}
	if stats := svc.GetSessionStats(); stats.TotalSessions != 0 {
		t.Errorf("TotalSessions = %d, want 0", stats.TotalSessions)
	}
}
