package session

import "strings"

// Flow names.
const (
	FlowCreateListing = "create_listing"
	FlowBooking       = "booking"
)

// FlowStep is one named state of a flow with its localized prompts, keyed by
// base language.
type FlowStep struct {
	Name    string
	Prompts map[string]string
}

// FlowDefinition declares a multi-step flow as a strict linear sequence of
// steps plus an explicit completion. Transitions are pure functions of the
// current step so every (state, input) pair is testable.
type FlowDefinition struct {
	Name       string
	Steps      []FlowStep
	Completion map[string]string
}

// FirstStep returns the entry step of the flow.
func (d FlowDefinition) FirstStep() string {
	if len(d.Steps) == 0 {
		return ""
	}
	return d.Steps[0].Name
}

// Advance returns the step following current. completed is true when current
// is the final declared step; ok is false when current is not a declared step
// at all (defensive, should not happen).
func (d FlowDefinition) Advance(current string) (next string, completed, ok bool) {
	for i, step := range d.Steps {
		if step.Name != current {
			continue
		}
		if i == len(d.Steps)-1 {
			return "", true, true
		}
		return d.Steps[i+1].Name, false, true
	}
	return "", false, false
}

// Prompt returns the localized prompt for a step, falling back to English.
func (d FlowDefinition) Prompt(step, language string) string {
	for _, s := range d.Steps {
		if s.Name == step {
			return localized(s.Prompts, language)
		}
	}
	return ""
}

// CompletionPrompt returns the localized completion phrase.
func (d FlowDefinition) CompletionPrompt(language string) string {
	return localized(d.Completion, language)
}

func localized(prompts map[string]string, language string) string {
	if p, ok := prompts[baseLanguage(language)]; ok {
		return p
	}
	return prompts["en"]
}

// ListingCreationFlow is the guided listing-creation sequence.
func ListingCreationFlow() FlowDefinition {
	return FlowDefinition{
		Name: FlowCreateListing,
		Steps: []FlowStep{
			{
				Name: "start",
				Prompts: map[string]string{
					"en": "Let's create your listing. Say yes to continue or cancel to stop.",
					"th": "มาสร้างประกาศกัน พูดว่าใช่เพื่อดำเนินการต่อ หรือยกเลิกเพื่อหยุด",
					"ru": "Создаём объявление. Скажите да, чтобы продолжить, или отмена.",
				},
			},
			{
				Name: "category",
				Prompts: map[string]string{
					"en": "What are you listing? For example an apartment, a scooter or a service.",
					"th": "คุณต้องการลงประกาศอะไร เช่น อพาร์ตเมนต์ สกูตเตอร์ หรือบริการ",
					"ru": "Что вы размещаете? Например квартиру, скутер или услугу.",
				},
			},
			{
				Name: "location",
				Prompts: map[string]string{
					"en": "Where is it located?",
					"th": "อยู่ที่ไหน",
					"ru": "Где это находится?",
				},
			},
			{
				Name: "price",
				Prompts: map[string]string{
					"en": "What price do you want, in baht?",
					"th": "ต้องการราคาเท่าไหร่ เป็นบาท",
					"ru": "Какую цену вы хотите, в батах?",
				},
			},
			{
				Name: "review",
				Prompts: map[string]string{
					"en": "Review your listing and say yes to publish.",
					"th": "ตรวจสอบประกาศของคุณ แล้วพูดว่าใช่เพื่อเผยแพร่",
					"ru": "Проверьте объявление и скажите да для публикации.",
				},
			},
		},
		Completion: map[string]string{
			"en": "Your listing has been published.",
			"th": "ประกาศของคุณถูกเผยแพร่แล้ว",
			"ru": "Ваше объявление опубликовано.",
		},
	}
}

// BookingFlow is a one-shot confirmation: confirming the start step completes
// the booking.
func BookingFlow() FlowDefinition {
	return FlowDefinition{
		Name: FlowBooking,
		Steps: []FlowStep{
			{
				Name: "start",
				Prompts: map[string]string{
					"en": "Say yes to confirm the booking or cancel to stop.",
					"th": "พูดว่าใช่เพื่อยืนยันการจอง หรือยกเลิก",
					"ru": "Скажите да, чтобы подтвердить бронирование, или отмена.",
				},
			},
		},
		Completion: map[string]string{
			"en": "Your booking request has been sent.",
			"th": "ส่งคำขอจองของคุณแล้ว",
			"ru": "Ваш запрос на бронирование отправлен.",
		},
	}
}

// Flows returns the flow table keyed by name.
func Flows() map[string]FlowDefinition {
	return map[string]FlowDefinition{
		FlowCreateListing: ListingCreationFlow(),
		FlowBooking:       BookingFlow(),
	}
}

func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		return code[:idx]
	}
	return code
}
