package session_test

import (
	"testing"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
)

func TestListingCreationFlow_Advance(t *testing.T) {
	t.Parallel()

	flow := session.ListingCreationFlow()

	if got := flow.FirstStep(); got != "start" {
		t.Fatalf("FirstStep() = %q, want %q", got, "start")
	}

	tests := []struct {
		current       string
		wantNext      string
		wantCompleted bool
	}{
		{current: "start", wantNext: "category"},
		{current: "category", wantNext: "location"},
		{current: "location", wantNext: "price"},
		{current: "price", wantNext: "review"},
		{current: "review", wantNext: "", wantCompleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.current, func(t *testing.T) {
			next, completed, ok := flow.Advance(tt.current)
			if !ok {
				t.Fatalf("Advance(%q) not ok", tt.current)
			}
			if next != tt.wantNext {
				t.Errorf("next = %q, want %q", next, tt.wantNext)
			}
			if completed != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", completed, tt.wantCompleted)
			}
		})
	}
}

func TestFlow_AdvanceUnknownStep(t *testing.T) {
	t.Parallel()

	flow := session.ListingCreationFlow()
	if _, _, ok := flow.Advance("no-such-step"); ok {
		t.Error("Advance on undeclared step reported ok")
	}
}

func TestBookingFlow_OneShot(t *testing.T) {
	t.Parallel()

	flow := session.BookingFlow()
	next, completed, ok := flow.Advance(flow.FirstStep())
	if !ok || !completed || next != "" {
		t.Errorf("Advance(start) = (%q, %v, %v), want completion", next, completed, ok)
	}
}

func TestFlow_PromptLocalization(t *testing.T) {
	t.Parallel()

	flow := session.ListingCreationFlow()

	tests := []struct {
		name     string
		step     string
		language string
		want     string
	}{
		{name: "english", step: "location", language: "en-US", want: "Where is it located?"},
		{name: "thai", step: "location", language: "th-TH", want: "อยู่ที่ไหน"},
		{name: "russian", step: "location", language: "ru-RU", want: "Где это находится?"},
		{name: "unknown locale falls back to english", step: "location", language: "de-DE", want: "Where is it located?"},
		{name: "base code without region", step: "location", language: "th", want: "อยู่ที่ไหน"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flow.Prompt(tt.step, tt.language); got != tt.want {
				t.Errorf("Prompt(%q, %q) = %q, want %q", tt.step, tt.language, got, tt.want)
			}
		})
	}

	if flow.Prompt("no-such-step", "en-US") != "" {
		t.Error("Prompt for undeclared step should be empty")
	}
	if flow.CompletionPrompt("ru-RU") != "Ваше объявление опубликовано." {
		t.Error("CompletionPrompt not localized to Russian")
	}
}

func TestFlows_Table(t *testing.T) {
	t.Parallel()

	flows := session.Flows()
	for _, name := range []string{session.FlowCreateListing, session.FlowBooking} {
		flow, ok := flows[name]
		if !ok {
			t.Fatalf("flow %q missing from table", name)
		}
		if flow.Name != name {
			t.Errorf("flow keyed %q carries name %q", name, flow.Name)
		}
		if flow.FirstStep() == "" {
			t.Errorf("flow %q has no entry step", name)
		}
		if flow.CompletionPrompt("en-US") == "" {
			t.Errorf("flow %q has no completion prompt", name)
		}
	}
}
