package profile

// Profile is what the web companion has learned about its user across
// sessions.
type Profile struct {
	Name               string   `json:"name"`
	Likes              []string `json:"likes"`
	Dislikes           []string `json:"dislikes"`
	Values             []string `json:"values"`
	Concerns           []string `json:"concerns"`
	PersonalityTraits  []string `json:"personality_traits"`
	CommunicationStyle string   `json:"communication_style"`
	EmotionalPatterns  []string `json:"emotional_patterns"`
	ComfortPreferences []string `json:"comfort_preferences"`
	ImportantFacts     []string `json:"important_facts"`
	SessionCount       int      `json:"session_count"`
}

// Storage keys. Lists are stored as JSON arrays.
const (
	KeyName               = "name"
	KeyLikes              = "likes"
	KeyDislikes           = "dislikes"
	KeyValues             = "values"
	KeyConcerns           = "concerns"
	KeyPersonalityTraits  = "personality_traits"
	KeyCommunicationStyle = "communication_style"
	KeyEmotionalPatterns  = "emotional_patterns"
	KeyComfortPreferences = "comfort_preferences"
	KeyImportantFacts     = "important_facts"
	KeySessionCount       = "session_count"
)

// List caps applied on every write.
const (
	maxLikes    = 20
	maxDislikes = 20
	maxConcerns = 15
	maxValues   = 15
	maxPatterns = 30
	maxMerged   = 20
)

// Update is a partial profile submitted by the client. Scalar fields
// replace when non-empty; list items are appended when new.
type Update struct {
	Name               string   `json:"name"`
	CommunicationStyle string   `json:"communication_style"`
	Likes              []string `json:"likes"`
	Dislikes           []string `json:"dislikes"`
	Values             []string `json:"values"`
	Concerns           []string `json:"concerns"`
	PersonalityTraits  []string `json:"personality_traits"`
	ComfortPreferences []string `json:"comfort_preferences"`
	ImportantFacts     []string `json:"important_facts"`
}
