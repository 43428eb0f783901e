package nlp

// Intent names form a closed vocabulary; anything the matcher table cannot
// place lands on IntentUnknown.
const (
	IntentSearch        = "search"
	IntentNavigate      = "navigate"
	IntentCreateListing = "create_listing"
	IntentBookService   = "book_service"
	IntentGetInfo       = "get_info"
	IntentHelp          = "help"
	IntentCancel        = "cancel"
	IntentConfirm       = "confirm"
	IntentRepeat        = "repeat"
	IntentUnknown       = "unknown"
)

type Intent struct {
	Name       string            `json:"name"`
	Confidence float64           `json:"confidence"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

type EntityType string

const (
	EntityLocation     EntityType = "location"
	EntityPrice        EntityType = "price"
	EntityNumber       EntityType = "number"
	EntityPropertyType EntityType = "property_type"
)

// Entity is a typed span extracted from the normalized command text.
// Start and End are byte offsets into the normalized text.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
}
