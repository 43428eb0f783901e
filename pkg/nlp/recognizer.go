package nlp

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// matcher is one row of the intent table: a compiled pattern scoped to a base
// language ("" matches any language). CaptureIndex picks the submatch that
// becomes the intent's query parameter; 0 means no capture.
type matcher struct {
	intent       string
	language     string
	pattern      *regexp.Regexp
	captureIndex int
	confidence   float64
}

// Recognizer turns free text into a named intent plus extracted entities.
// The matcher table is built once at startup; matching order is the order
// the intents were registered, so precedence is data, not accident.
type Recognizer struct {
	matchers []matcher
}

func NewRecognizer() *Recognizer {
	r := &Recognizer{}

	// Registration order is the closed-vocabulary order; the first matching
	// row wins. Keep the verb alternations longest-first so greedy prefixes
	// ("ไป" vs "ไปหน้า") cannot shadow the specific form.
	r.add(IntentSearch, "en", `(?:search for|search|find|look for|looking for|show me)\s+(.+)`, 1, 0.90)
	r.add(IntentSearch, "th", `(?:ค้นหา|อยากได้|ต้องการ|หา)(.+)`, 1, 0.90)
	r.add(IntentSearch, "ru", `(?:найди|найти|поищи|ищу|покажи)\s+(.+)`, 1, 0.90)

	r.add(IntentNavigate, "en", `(?:go to|take me to|navigate to|open)\s+(.+)`, 1, 0.90)
	r.add(IntentNavigate, "th", `(?:ไปที่|ไปยัง|ไปหน้า|เปิดหน้า|เปิด|ไป)(.+)`, 1, 0.90)
	r.add(IntentNavigate, "ru", `(?:перейди на|перейди к|перейди|открой)\s+(.+)`, 1, 0.90)

	r.add(IntentCreateListing, "en", `(?:create|post|add|publish)\s+(?:a\s+)?(?:new\s+)?listing`, 0, 0.92)
	r.add(IntentCreateListing, "th", `(?:ลงประกาศ|สร้างประกาศ|เพิ่มประกาศ)`, 0, 0.92)
	r.add(IntentCreateListing, "ru", `(?:создай|создать|разместить|размести|добавить|добавь)\s+(?:новое\s+)?объявление`, 0, 0.92)

	r.add(IntentBookService, "en", `(?:book|reserve|rent|hire)\s+(.+)`, 1, 0.88)
	r.add(IntentBookService, "th", `(?:จอง|เช่า)(.+)`, 1, 0.88)
	r.add(IntentBookService, "ru", `(?:забронируй|забронировать|арендуй|арендовать|сними|снять)\s+(.+)`, 1, 0.88)

	r.add(IntentGetInfo, "en", `(?:what is|what's|tell me about|how much is|information about|info about)\s+(.+)`, 1, 0.85)
	r.add(IntentGetInfo, "th", `(?:ข้อมูล|รายละเอียด)(.+)`, 1, 0.85)
	r.add(IntentGetInfo, "ru", `(?:что такое|расскажи про|расскажи о|сколько стоит)\s+(.+)`, 1, 0.85)

	r.add(IntentHelp, "", `^(?:help me|help|commands|what can you do)[\s!.?]*$`, 0, 0.95)
	r.add(IntentHelp, "th", `(?:ช่วยเหลือ|ช่วยด้วย|ช่วยอะไรได้บ้าง|ใช้งานยังไง)`, 0, 0.95)
	r.add(IntentHelp, "ru", `^(?:помощь|помогите|помоги|что ты умеешь)[\s!.?]*$`, 0, 0.95)

	r.add(IntentCancel, "", `^(?:cancel|stop|nevermind|never mind|no|nope)[\s!.?]*$`, 0, 0.95)
	r.add(IntentCancel, "th", `^(?:ยกเลิก|ไม่เอา|ไม่|หยุด)`, 0, 0.95)
	r.add(IntentCancel, "ru", `^(?:отмена|отмени|стоп|нет)[\s!.?]*$`, 0, 0.95)

	r.add(IntentConfirm, "", `^(?:yes|yeah|yep|okay|ok|sure|confirm|correct|right)[\s!.?]*$`, 0, 0.95)
	r.add(IntentConfirm, "th", `^(?:ใช่|ตกลง|โอเค|ยืนยัน|ได้เลย|ได้|ครับ|ค่ะ)`, 0, 0.95)
	r.add(IntentConfirm, "ru", `^(?:да|ага|конечно|ок|хорошо|подтверждаю|верно)[\s!.?]*$`, 0, 0.95)

	r.add(IntentRepeat, "en", `(?:repeat|say (?:that|it) again|what did you say)`, 0, 0.88)
	r.add(IntentRepeat, "th", `(?:พูดอีกครั้ง|ทวนอีกที|อะไรนะ)`, 0, 0.88)
	r.add(IntentRepeat, "ru", `(?:повторите|повтори|ещё раз|еще раз)`, 0, 0.88)

	return r
}

func (r *Recognizer) add(intent, language, pattern string, captureIndex int, confidence float64) {
	r.matchers = append(r.matchers, matcher{
		intent:       intent,
		language:     language,
		pattern:      regexp.MustCompile(pattern),
		captureIndex: captureIndex,
		confidence:   confidence,
	})
}

// Recognize normalizes the text and walks the matcher table. The language
// hint narrows the order (hinted and language-agnostic rows go first) but
// never excludes rows, since users code-switch mid-sentence.
func (r *Recognizer) Recognize(text, language string) (Intent, []Entity) {
	normalized := Normalize(text)
	entities := ExtractEntities(normalized)

	if normalized == "" {
		return unknownIntent(text), entities
	}

	base := baseLanguage(language)
	for _, preferred := range []bool{true, false} {
		for _, m := range r.matchers {
			hinted := m.language == "" || base == "" || m.language == base
			if hinted != preferred {
				continue
			}
			loc := m.pattern.FindStringSubmatch(normalized)
			if loc == nil {
				continue
			}
			intent := Intent{
				Name:       m.intent,
				Confidence: m.confidence,
				Parameters: map[string]string{},
			}
			if m.captureIndex > 0 && m.captureIndex < len(loc) {
				if query := strings.TrimSpace(loc[m.captureIndex]); query != "" {
					intent.Parameters["query"] = query
				}
			}
			return intent, entities
		}
	}

	return unknownIntent(text), entities
}

func unknownIntent(original string) Intent {
	return Intent{
		Name:       IntentUnknown,
		Confidence: 0.1,
		Parameters: map[string]string{"text": strings.TrimSpace(original)},
	}
}

// Normalize trims, lowercases and NFC-composes the input. Accents are kept:
// stripping combining marks would destroy Thai vowel and tone signs.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ToLower(text)
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}
