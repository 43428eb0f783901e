package speech

import "strings"

// LanguageEntry describes one supported recognition language. The table is
// static configuration, read-only at runtime.
type LanguageEntry struct {
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	NativeName string   `json:"native_name"`
	Enabled    bool     `json:"enabled"`
	Confidence float64  `json:"confidence"`
	Providers  []string `json:"providers"`
}

// DefaultLanguages returns the marketplace language table. Provider names are
// ordered by preference for each language.
func DefaultLanguages() []LanguageEntry {
	return []LanguageEntry{
		{
			Code:       "th-TH",
			Name:       "Thai",
			NativeName: "ไทย",
			Enabled:    true,
			Confidence: 0.85,
			Providers:  []string{"whisper", "gemini"},
		},
		{
			Code:       "en-US",
			Name:       "English",
			NativeName: "English",
			Enabled:    true,
			Confidence: 0.92,
			Providers:  []string{"whisper", "gemini"},
		},
		{
			Code:       "ru-RU",
			Name:       "Russian",
			NativeName: "Русский",
			Enabled:    true,
			Confidence: 0.88,
			Providers:  []string{"whisper", "gemini"},
		},
	}
}

// BaseLanguage collapses a regional variant to its base tag: "th-TH" -> "th".
func BaseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}

// FindLanguage looks up a language entry by exact code or by base language.
func FindLanguage(entries []LanguageEntry, code string) (LanguageEntry, bool) {
	if code == "" {
		return LanguageEntry{}, false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Code, code) {
			return e, true
		}
	}
	base := BaseLanguage(code)
	for _, e := range entries {
		if BaseLanguage(e.Code) == base {
			return e, true
		}
	}
	return LanguageEntry{}, false
}
