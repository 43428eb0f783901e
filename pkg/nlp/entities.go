package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywordEntry maps a surface form in any supported language to the canonical
// value stored on the entity.
type keywordEntry struct {
	keyword   string
	canonical string
}

// Longer surface forms come first inside each table so "chiang mai" is not
// shadowed by a shorter alias.
var locationKeywords = []keywordEntry{
	{"chiang mai", "Chiang Mai"},
	{"เชียงใหม่", "Chiang Mai"},
	{"чиангмай", "Chiang Mai"},
	{"koh samui", "Koh Samui"},
	{"เกาะสมุย", "Koh Samui"},
	{"самуи", "Koh Samui"},
	{"hua hin", "Hua Hin"},
	{"หัวหิน", "Hua Hin"},
	{"хуахин", "Hua Hin"},
	{"กรุงเทพฯ", "Bangkok"},
	{"กรุงเทพ", "Bangkok"},
	{"bangkok", "Bangkok"},
	{"бангкок", "Bangkok"},
	{"ภูเก็ต", "Phuket"},
	{"phuket", "Phuket"},
	{"пхукет", "Phuket"},
	{"พัทยา", "Pattaya"},
	{"pattaya", "Pattaya"},
	{"паттайя", "Pattaya"},
	{"กระบี่", "Krabi"},
	{"krabi", "Krabi"},
	{"краби", "Krabi"},
}

var propertyKeywords = []keywordEntry{
	{"apartments", "apartment"},
	{"apartment", "apartment"},
	{"อพาร์ทเม้นท์", "apartment"},
	{"อพาร์ตเมนต์", "apartment"},
	{"апартаменты", "apartment"},
	{"квартиру", "apartment"},
	{"квартира", "apartment"},
	{"condos", "condo"},
	{"condo", "condo"},
	{"คอนโด", "condo"},
	{"кондо", "condo"},
	{"houses", "house"},
	{"house", "house"},
	{"บ้าน", "house"},
	{"дом", "house"},
	{"villas", "villa"},
	{"villa", "villa"},
	{"วิลล่า", "villa"},
	{"виллу", "villa"},
	{"вилла", "villa"},
	{"studios", "studio"},
	{"studio", "studio"},
	{"สตูดิโอ", "studio"},
	{"студию", "studio"},
	{"студия", "studio"},
	{"rooms", "room"},
	{"room", "room"},
	{"ห้องพัก", "room"},
	{"комнату", "room"},
	{"комната", "room"},
	{"scooters", "scooter"},
	{"scooter", "scooter"},
	{"สกู๊ตเตอร์", "scooter"},
	{"สกูตเตอร์", "scooter"},
	{"скутер", "scooter"},
	{"motorbikes", "motorbike"},
	{"motorbike", "motorbike"},
	{"motorcycle", "motorbike"},
	{"มอเตอร์ไซค์", "motorbike"},
	{"мотоцикл", "motorbike"},
	{"байк", "motorbike"},
}

var (
	pricePattern       = regexp.MustCompile(`(\d[\d,.]*)\s*(?:บาท|baht|thb|฿|батов|бата|бат)`)
	priceSymbolPattern = regexp.MustCompile(`฿\s*(\d[\d,.]*)`)
	numberPattern      = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
)

// ExtractEntities scans normalized text for every typed span it knows about.
// Overlapping matches of the same type are all returned; deduplication is the
// caller's policy, not ours.
func ExtractEntities(normalized string) []Entity {
	var entities []Entity

	entities = append(entities, scanKeywords(normalized, locationKeywords, EntityLocation, 0.9)...)
	entities = append(entities, scanKeywords(normalized, propertyKeywords, EntityPropertyType, 0.85)...)

	for _, idx := range pricePattern.FindAllStringSubmatchIndex(normalized, -1) {
		entities = append(entities, Entity{
			Type:       EntityPrice,
			Value:      cleanAmount(normalized[idx[2]:idx[3]]),
			Confidence: 0.9,
			Start:      idx[0],
			End:        idx[1],
		})
	}
	for _, idx := range priceSymbolPattern.FindAllStringSubmatchIndex(normalized, -1) {
		entities = append(entities, Entity{
			Type:       EntityPrice,
			Value:      cleanAmount(normalized[idx[2]:idx[3]]),
			Confidence: 0.9,
			Start:      idx[0],
			End:        idx[1],
		})
	}

	for _, idx := range numberPattern.FindAllStringIndex(normalized, -1) {
		entities = append(entities, Entity{
			Type:       EntityNumber,
			Value:      cleanAmount(normalized[idx[0]:idx[1]]),
			Confidence: 0.8,
			Start:      idx[0],
			End:        idx[1],
		})
	}

	return entities
}

func scanKeywords(text string, table []keywordEntry, entityType EntityType, confidence float64) []Entity {
	var entities []Entity
	for _, entry := range table {
		offset := 0
		for {
			rel := strings.Index(text[offset:], entry.keyword)
			if rel < 0 {
				break
			}
			start := offset + rel
			end := start + len(entry.keyword)
			if wordBounded(text, start, end) {
				entities = append(entities, Entity{
					Type:       entityType,
					Value:      entry.canonical,
					Confidence: confidence,
					Start:      start,
					End:        end,
				})
			}
			offset = end
		}
	}
	return entities
}

// wordBounded rejects Latin keyword hits embedded in a longer Latin word
// ("room" inside "bathroom"). Thai has no word separators, so non-Latin
// matches are accepted as-is.
func wordBounded(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		first, _ := utf8.DecodeRuneInString(text[start:])
		if isLatinLetter(prev) && isLatinLetter(first) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		last, _ := utf8.DecodeLastRuneInString(text[:end])
		if isLatinLetter(last) && isLatinLetter(next) {
			return false
		}
	}
	return true
}

func isLatinLetter(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsLetter(r)
}

func cleanAmount(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimRight(s, ".")
}
