package voiceService

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/chatman-media/farang-marketplace-voice/internal/api/voice/session"
	"github.com/chatman-media/farang-marketplace-voice/internal/entity"
	"github.com/chatman-media/farang-marketplace-voice/pkg/nlp"
	"github.com/chatman-media/farang-marketplace-voice/pkg/speech"
)

// execute dispatches one recognized command against the live session record.
// Callers hold the per-session lock; execute mutates flow state and context
// freely and returns the response to attach to the command.
func (s *voiceService) execute(live *entity.VoiceSession, cmd *entity.VoiceCommand) *entity.CommandResponse {
	intent := cmd.Intent

	// An active flow consumes most utterances before normal dispatch. Help
	// and repeat stay available mid-flow.
	if live.Flow.Active() {
		switch intent.Name {
		case nlp.IntentCancel:
			return s.cancelFlow(live, cmd.Language)
		case nlp.IntentConfirm:
			return s.advanceFlow(live, cmd, "")
		case nlp.IntentHelp, nlp.IntentRepeat:
			// fall through to normal dispatch
		default:
			if live.Flow.AwaitingInput && stepTakesFreeText(live.Flow.Step) {
				return s.advanceFlow(live, cmd, cmd.Text)
			}
			// Steps gated on confirmation re-prompt on anything else.
			if def, ok := s.flows[live.Flow.CurrentFlow]; ok {
				return &entity.CommandResponse{
					Action:  "flow_prompt",
					Data:    map[string]interface{}{"flow": def.Name, "step": live.Flow.Step},
					Speech:  def.Prompt(live.Flow.Step, cmd.Language),
					Success: true,
				}
			}
		}
	}

	switch intent.Name {
	case nlp.IntentSearch:
		return s.handleSearch(live, cmd)
	case nlp.IntentNavigate:
		return s.handleNavigate(live, cmd)
	case nlp.IntentCreateListing:
		return s.startFlow(live, cmd, session.FlowCreateListing, entity.ContextListing, "/listings/create")
	case nlp.IntentBookService:
		return s.startFlow(live, cmd, session.FlowBooking, entity.ContextBooking, "/bookings/new")
	case nlp.IntentGetInfo:
		return s.handleGetInfo(cmd)
	case nlp.IntentHelp:
		return s.handleHelp(cmd)
	case nlp.IntentConfirm:
		return &entity.CommandResponse{
			Action:  "confirm",
			Speech:  phrase("confirm_ack", cmd.Language),
			Success: true,
		}
	case nlp.IntentCancel:
		live.Context = entity.ContextGeneral
		return &entity.CommandResponse{
			Action:  "cancel",
			Speech:  phrase("cancel_ack", cmd.Language),
			Success: true,
		}
	case nlp.IntentRepeat:
		return s.handleRepeat(live, cmd)
	default:
		return &entity.CommandResponse{
			Action:  "unknown",
			Data:    map[string]interface{}{"text": intent.Parameters["text"]},
			Speech:  phrase("unknown", cmd.Language),
			Success: false,
			Error:   "command not recognized",
		}
	}
}

func (s *voiceService) handleSearch(live *entity.VoiceSession, cmd *entity.VoiceCommand) *entity.CommandResponse {
	live.Context = entity.ContextSearch

	// A command with no captured fragment still searches: the raw utterance
	// becomes the query.
	query := cmd.Intent.Parameters["query"]
	if query == "" {
		query = strings.TrimSpace(cmd.Text)
	}
	filters := filtersFromEntities(cmd.Entities)

	data := map[string]interface{}{"filters": filters}
	redirect := "/search"
	speechText := phrase("search_all", cmd.Language)
	if query != "" {
		data["query"] = query
		redirect = "/search?q=" + url.QueryEscape(query)
		if loc, ok := filters["location"].(string); ok {
			redirect += "&location=" + url.QueryEscape(loc)
		}
		speechText = phrase("search_query", cmd.Language, query)
	}

	return &entity.CommandResponse{
		Action:   "search",
		Data:     data,
		Speech:   speechText,
		Redirect: redirect,
		Success:  true,
	}
}

func (s *voiceService) handleNavigate(live *entity.VoiceSession, cmd *entity.VoiceCommand) *entity.CommandResponse {
	live.Context = entity.ContextNavigation

	target := resolveNavTarget(cmd.Intent.Parameters["query"])
	return &entity.CommandResponse{
		Action:   "navigate",
		Data:     map[string]interface{}{"target": target.path},
		Speech:   phrase("navigate", cmd.Language, target.displayName(cmd.Language)),
		Redirect: target.path,
		Success:  true,
	}
}

func (s *voiceService) startFlow(live *entity.VoiceSession, cmd *entity.VoiceCommand, flowName, context, redirect string) *entity.CommandResponse {
	def, ok := s.flows[flowName]
	if !ok {
		return &entity.CommandResponse{
			Action:  "unknown",
			Speech:  phrase("unknown", cmd.Language),
			Success: false,
			Error:   "command not recognized",
		}
	}

	live.Context = context
	live.Flow = entity.FlowState{
		CurrentFlow:   def.Name,
		Step:          def.FirstStep(),
		Data:          prefillFromEntities(cmd.Entities),
		AwaitingInput: true,
		LastIntent:    cmd.Intent.Name,
	}

	data := map[string]interface{}{"flow": def.Name, "step": live.Flow.Step}
	if query := cmd.Intent.Parameters["query"]; query != "" {
		data["query"] = query
	}

	return &entity.CommandResponse{
		Action:   cmd.Intent.Name,
		Data:     data,
		Speech:   def.Prompt(live.Flow.Step, cmd.Language),
		Redirect: redirect,
		Success:  true,
	}
}

// advanceFlow records the answer for the current step (when one was given)
// and moves the flow forward. Completing the final step clears the flow and
// hands back the collected fields.
func (s *voiceService) advanceFlow(live *entity.VoiceSession, cmd *entity.VoiceCommand, answer string) *entity.CommandResponse {
	def, ok := s.flows[live.Flow.CurrentFlow]
	if !ok {
		live.Flow = entity.FlowState{}
		return &entity.CommandResponse{
			Action:  "cancel",
			Speech:  phrase("cancel_ack", cmd.Language),
			Success: false,
			Error:   "flow definition missing",
		}
	}

	if answer != "" {
		if live.Flow.Data == nil {
			live.Flow.Data = make(map[string]string)
		}
		live.Flow.Data[live.Flow.Step] = answer
	}

	next, completed, ok := def.Advance(live.Flow.Step)
	if !ok {
		live.Flow = entity.FlowState{}
		live.Context = entity.ContextGeneral
		return &entity.CommandResponse{
			Action:  "cancel",
			Speech:  phrase("cancel_ack", cmd.Language),
			Success: false,
			Error:   "flow step no longer exists",
		}
	}

	if completed {
		fields := make(map[string]interface{}, len(live.Flow.Data))
		for k, v := range live.Flow.Data {
			fields[k] = v
		}
		flowName := def.Name
		live.Flow = entity.FlowState{}
		live.Context = entity.ContextGeneral

		return &entity.CommandResponse{
			Action:   "flow_completed",
			Data:     map[string]interface{}{"flow": flowName, "fields": fields},
			Speech:   def.CompletionPrompt(cmd.Language),
			Redirect: completionRedirect(flowName),
			Success:  true,
		}
	}

	live.Flow.Step = next
	live.Flow.AwaitingInput = true
	live.Flow.LastIntent = cmd.Intent.Name

	return &entity.CommandResponse{
		Action:  "flow_prompt",
		Data:    map[string]interface{}{"flow": def.Name, "step": next},
		Speech:  def.Prompt(next, cmd.Language),
		Success: true,
	}
}

// cancelFlow abandons the active flow unconditionally and drops everything
// collected so far.
func (s *voiceService) cancelFlow(live *entity.VoiceSession, language string) *entity.CommandResponse {
	flowName := live.Flow.CurrentFlow
	live.Flow = entity.FlowState{}
	live.Context = entity.ContextGeneral

	return &entity.CommandResponse{
		Action:  "cancel",
		Data:    map[string]interface{}{"flow": flowName},
		Speech:  phrase("flow_cancelled", language),
		Success: true,
	}
}

func (s *voiceService) handleGetInfo(cmd *entity.VoiceCommand) *entity.CommandResponse {
	data := map[string]interface{}{}
	if topic := cmd.Intent.Parameters["query"]; topic != "" {
		data["topic"] = topic
	}
	return &entity.CommandResponse{
		Action:  "get_info",
		Data:    data,
		Speech:  phrase("get_info", cmd.Language),
		Success: true,
	}
}

func (s *voiceService) handleHelp(cmd *entity.VoiceCommand) *entity.CommandResponse {
	return &entity.CommandResponse{
		Action:  "help",
		Data:    map[string]interface{}{"examples": helpExamples(cmd.Language)},
		Speech:  phrase("help", cmd.Language),
		Success: true,
	}
}

// handleRepeat replays the response of the most recent command that produced
// one. The live command has not been appended yet, so the log tail is the
// previous utterance.
func (s *voiceService) handleRepeat(live *entity.VoiceSession, cmd *entity.VoiceCommand) *entity.CommandResponse {
	for i := len(live.Commands) - 1; i >= 0; i-- {
		if prev := live.Commands[i].Response; prev != nil {
			replay := *prev
			return &replay
		}
	}
	return &entity.CommandResponse{
		Action:  "repeat",
		Speech:  phrase("repeat_none", cmd.Language),
		Success: false,
		Error:   "nothing to repeat",
	}
}

// stepTakesFreeText reports whether a step consumes the raw utterance as its
// answer. Start and review steps are confirmation gates instead.
func stepTakesFreeText(step string) bool {
	return step != "start" && step != "review"
}

func completionRedirect(flowName string) string {
	switch flowName {
	case session.FlowCreateListing:
		return "/listings"
	case session.FlowBooking:
		return "/bookings"
	}
	return "/"
}

// filtersFromEntities builds the search filter set. Utterances can repeat an
// entity type ("from 5000 to 15000 baht"); the first match of each type wins.
func filtersFromEntities(entities []nlp.Entity) map[string]interface{} {
	filters := map[string]interface{}{}
	for _, e := range entities {
		switch e.Type {
		case nlp.EntityLocation:
			if _, ok := filters["location"]; !ok {
				filters["location"] = e.Value
			}
		case nlp.EntityPrice:
			if _, ok := filters["priceRange"]; !ok {
				if max, err := strconv.ParseFloat(e.Value, 64); err == nil {
					filters["priceRange"] = map[string]interface{}{"min": float64(0), "max": max}
				}
			}
		case nlp.EntityPropertyType:
			if _, ok := filters["category"]; !ok {
				filters["category"] = e.Value
			}
		}
	}
	return filters
}

func prefillFromEntities(entities []nlp.Entity) map[string]string {
	data := make(map[string]string)
	for _, e := range entities {
		switch e.Type {
		case nlp.EntityPropertyType:
			data["category"] = e.Value
		case nlp.EntityLocation:
			data["location"] = e.Value
		case nlp.EntityPrice:
			data["price"] = e.Value
		}
	}
	return data
}

type navTarget struct {
	path    string
	names   map[string]string
	aliases []string
}

func (t navTarget) displayName(language string) string {
	if name, ok := t.names[speech.BaseLanguage(language)]; ok {
		return name
	}
	return t.names["en"]
}

var navTargets = []navTarget{
	{
		path:    "/search",
		names:   map[string]string{"en": "search", "th": "ค้นหา", "ru": "поиск"},
		aliases: []string{"search", "ค้นหา", "поиск", "поиска"},
	},
	{
		path:    "/listings",
		names:   map[string]string{"en": "listings", "th": "ประกาศ", "ru": "объявления"},
		aliases: []string{"listing", "ประกาศ", "объявлени", "รายการ"},
	},
	{
		path:    "/bookings",
		names:   map[string]string{"en": "bookings", "th": "การจอง", "ru": "бронирования"},
		aliases: []string{"booking", "การจอง", "จอง", "бронировани"},
	},
	{
		path:    "/profile",
		names:   map[string]string{"en": "profile", "th": "โปรไฟล์", "ru": "профиль"},
		aliases: []string{"profile", "account", "โปรไฟล์", "บัญชี", "профил", "аккаунт"},
	},
	{
		path:    "/help",
		names:   map[string]string{"en": "help", "th": "ช่วยเหลือ", "ru": "помощь"},
		aliases: []string{"help", "ช่วยเหลือ", "помощ"},
	},
	{
		path:    "/",
		names:   map[string]string{"en": "home", "th": "หน้าหลัก", "ru": "главная"},
		aliases: []string{"home", "main", "หลัก", "หน้าแรก", "главн", "домой", "начал"},
	},
}

// resolveNavTarget matches the spoken destination against the alias table.
// Unresolved destinations land on home.
func resolveNavTarget(query string) navTarget {
	q := nlp.Normalize(query)
	if q != "" {
		for _, target := range navTargets {
			for _, alias := range target.aliases {
				if strings.Contains(q, alias) {
					return target
				}
			}
		}
	}
	return navTargets[len(navTargets)-1]
}

var phrases = map[string]map[string]string{
	"search_query": {
		"en": "Searching for %s.",
		"th": "กำลังค้นหา %s",
		"ru": "Ищу %s.",
	},
	"search_all": {
		"en": "Showing all listings.",
		"th": "กำลังแสดงประกาศทั้งหมด",
		"ru": "Показываю все объявления.",
	},
	"navigate": {
		"en": "Opening %s.",
		"th": "กำลังเปิด%s",
		"ru": "Открываю %s.",
	},
	"get_info": {
		"en": "Here is what I found.",
		"th": "นี่คือข้อมูลที่พบ",
		"ru": "Вот что я нашёл.",
	},
	"help": {
		"en": "You can search listings, navigate pages, create a listing or book a service.",
		"th": "คุณสามารถค้นหาประกาศ เปิดหน้าต่างๆ สร้างประกาศ หรือจองบริการได้",
		"ru": "Вы можете искать объявления, открывать страницы, создавать объявления или бронировать услуги.",
	},
	"confirm_ack": {
		"en": "Okay.",
		"th": "ตกลง",
		"ru": "Хорошо.",
	},
	"cancel_ack": {
		"en": "Cancelled.",
		"th": "ยกเลิกแล้ว",
		"ru": "Отменено.",
	},
	"flow_cancelled": {
		"en": "Okay, I've cancelled that. Nothing was saved.",
		"th": "ยกเลิกแล้ว ไม่มีการบันทึกข้อมูล",
		"ru": "Отменено. Ничего не сохранено.",
	},
	"repeat_none": {
		"en": "There is nothing to repeat yet.",
		"th": "ยังไม่มีอะไรให้ทวน",
		"ru": "Пока нечего повторять.",
	},
	"unknown": {
		"en": "Sorry, I didn't understand that. Say help to hear what I can do.",
		"th": "ขอโทษ ไม่เข้าใจคำสั่ง พูดว่าช่วยเหลือเพื่อดูสิ่งที่ทำได้",
		"ru": "Извините, я не понял. Скажите помощь, чтобы узнать, что я умею.",
	},
	"empty_text": {
		"en": "I didn't catch that. Please try again.",
		"th": "ไม่ได้ยินคำสั่ง กรุณาลองใหม่อีกครั้ง",
		"ru": "Я не расслышал. Пожалуйста, повторите.",
	},
	"unsupported_language": {
		"en": "Sorry, that language is not supported yet.",
		"th": "ขออภัย ยังไม่รองรับภาษานี้",
		"ru": "Извините, этот язык пока не поддерживается.",
	},
	"transcription_failed": {
		"en": "Sorry, I couldn't make out the audio. Please try again.",
		"th": "ขออภัย ไม่สามารถแปลงเสียงได้ กรุณาลองใหม่",
		"ru": "Извините, не удалось распознать запись. Попробуйте ещё раз.",
	},
}

func phrase(key, language string, args ...interface{}) string {
	table, ok := phrases[key]
	if !ok {
		return ""
	}
	p, ok := table[speech.BaseLanguage(language)]
	if !ok {
		p = table["en"]
	}
	if len(args) > 0 {
		return fmt.Sprintf(p, args...)
	}
	return p
}

func helpExamples(language string) []string {
	switch speech.BaseLanguage(language) {
	case "th":
		return []string{"ค้นหาคอนโดในกรุงเทพ", "ไปหน้าหลัก", "สร้างประกาศใหม่", "จองสกูตเตอร์"}
	case "ru":
		return []string{"найди квартиру в Бангкоке", "открой главную", "создай объявление", "забронируй скутер"}
	default:
		return []string{"find apartments in Bangkok", "go to home", "create a new listing", "book a scooter"}
	}
}
