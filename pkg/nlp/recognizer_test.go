package nlp_test

import (
	"testing"

	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
)

func TestRecognizer_Intents(t *testing.T) {
	t.Parallel()

	r := nlp.NewRecognizer()

	tests := []struct {
		name      string
		text      string
		language  string
		intent    string
		wantQuery string
	}{
		{
			name:      "english search",
			text:      "Find apartments for rent in Bangkok",
			language:  "en-US",
			intent:    nlp.IntentSearch,
			wantQuery: "apartments for rent in bangkok",
		},
		{
			name:      "english search with show me",
			text:      "Show me scooters near Pattaya",
			language:  "en-US",
			intent:    nlp.IntentSearch,
			wantQuery: "scooters near pattaya",
		},
		{
			name:      "thai navigate home",
			text:      "ไปหน้าหลัก",
			language:  "th-TH",
			intent:    nlp.IntentNavigate,
			wantQuery: "หลัก",
		},
		{
			name:      "english navigate",
			text:      "Take me to my bookings",
			language:  "en-US",
			intent:    nlp.IntentNavigate,
			wantQuery: "my bookings",
		},
		{
			name:     "english create listing",
			text:     "Create a new listing",
			language: "en-US",
			intent:   nlp.IntentCreateListing,
		},
		{
			name:     "thai create listing",
			text:     "ลงประกาศ",
			language: "th-TH",
			intent:   nlp.IntentCreateListing,
		},
		{
			name:      "russian book service",
			text:      "Забронируй скутер на Пхукете",
			language:  "ru-RU",
			intent:    nlp.IntentBookService,
			wantQuery: "скутер на пхукете",
		},
		{
			name:      "english get info",
			text:      "Tell me about long term rentals",
			language:  "en-US",
			intent:    nlp.IntentGetInfo,
			wantQuery: "long term rentals",
		},
		{
			name:     "english help",
			text:     "Help",
			language: "en-US",
			intent:   nlp.IntentHelp,
		},
		{
			name:     "russian help",
			text:     "Помоги",
			language: "ru-RU",
			intent:   nlp.IntentHelp,
		},
		{
			name:     "english confirm",
			text:     "Yes",
			language: "en-US",
			intent:   nlp.IntentConfirm,
		},
		{
			name:     "thai confirm",
			text:     "ตกลง",
			language: "th-TH",
			intent:   nlp.IntentConfirm,
		},
		{
			name:     "english cancel",
			text:     "Cancel",
			language: "en-US",
			intent:   nlp.IntentCancel,
		},
		{
			name:     "bare no is a cancel",
			text:     "no",
			language: "en-US",
			intent:   nlp.IntentCancel,
		},
		{
			name:     "english repeat",
			text:     "Say that again",
			language: "en-US",
			intent:   nlp.IntentRepeat,
		},
		{
			name:      "code switching thai hint english verb",
			text:      "find คอนโด in Bangkok",
			language:  "th-TH",
			intent:    nlp.IntentSearch,
			wantQuery: "คอนโด in bangkok",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			intent, _ := r.Recognize(tc.text, tc.language)
			if intent.Name != tc.intent {
				t.Fatalf("Recognize(%q) intent = %q, want %q", tc.text, intent.Name, tc.intent)
			}
			if intent.Confidence < 0.8 || intent.Confidence > 0.95 {
				t.Errorf("confidence = %v, want within [0.80, 0.95]", intent.Confidence)
			}
			if tc.wantQuery != "" && intent.Parameters["query"] != tc.wantQuery {
				t.Errorf("query = %q, want %q", intent.Parameters["query"], tc.wantQuery)
			}
		})
	}
}

func TestRecognizer_Unknown(t *testing.T) {
	t.Parallel()

	r := nlp.NewRecognizer()

	intent, _ := r.Recognize("blorp fizzle wunk", "en-US")
	if intent.Name != nlp.IntentUnknown {
		t.Fatalf("intent = %q, want %q", intent.Name, nlp.IntentUnknown)
	}
	if intent.Confidence >= 0.5 {
		t.Errorf("unknown confidence = %v, want low", intent.Confidence)
	}
	if intent.Parameters["text"] != "blorp fizzle wunk" {
		t.Errorf("parameters[text] = %q, want original text", intent.Parameters["text"])
	}
}

func TestRecognizer_EmptyInput(t *testing.T) {
	t.Parallel()

	r := nlp.NewRecognizer()

	intent, entities := r.Recognize("   ", "en-US")
	if intent.Name != nlp.IntentUnknown {
		t.Fatalf("intent = %q, want unknown", intent.Name)
	}
	if len(entities) != 0 {
		t.Errorf("entities = %v, want none", entities)
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"  Find   Apartments ", "find apartments"},
		{"ไปหน้าหลัก", "ไปหน้าหลัก"},
		{"НАЙДИ квартиру", "найди квартиру"},
	}
	for _, tc := range tests {
		if got := nlp.Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
