package drills

import (
	"time"

	"github.com/google/uuid"
)

// Sport enumerates the five supported sports.
type Sport string

const (
	SportBaseball   Sport = "baseball"
	SportBasketball Sport = "basketball"
	SportHockey     Sport = "hockey"
	SportLacrosse   Sport = "lacrosse"
	SportGolf       Sport = "golf"
)

// Sports lists all supported sports in display order.
func Sports() []Sport {
	return []Sport{SportBaseball, SportBasketball, SportHockey, SportLacrosse, SportGolf}
}

// SkillLevel enumerates drill difficulty.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// AgeGroup enumerates target age bands.
type AgeGroup string

const (
	AgeU8  AgeGroup = "u8"
	AgeU10 AgeGroup = "u10"
	AgeU12 AgeGroup = "u12"
	AgeU14 AgeGroup = "u14"
	AgeU16 AgeGroup = "u16"
	AgeU18 AgeGroup = "u18"
)

// Variations holds the easier/harder adjustments for a drill.
type Variations struct {
	Easier string `json:"easier,omitempty"`
	Harder string `json:"harder,omitempty"`
}

// Drill is one structured coaching drill. Title, sport, goal, and the
// planning metadata are always visible; the instructional content is what
// the access gate protects.
type Drill struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Sport          Sport      `json:"sport"`
	AgeGroups      []AgeGroup `json:"age_groups"`
	SkillLevel     SkillLevel `json:"skill_level"`
	Goal           string     `json:"goal"`
	Instructions   []string   `json:"instructions,omitempty"`
	CoachingCues   []string   `json:"coaching_cues,omitempty"`
	CommonMistakes []string   `json:"common_mistakes,omitempty"`
	Equipment      []string   `json:"equipment,omitempty"`
	DiagramURL     string     `json:"diagram_url,omitempty"`
	DurationMins   int        `json:"duration_mins"`
	MinPlayers     int        `json:"min_players"`
	MaxPlayers     int        `json:"max_players"`
	Space          string     `json:"space,omitempty"`
	Variations     Variations `json:"variations"`
	SafetyNotes    string     `json:"safety_notes,omitempty"`
	FocusTags      []string   `json:"focus_tags,omitempty"`
	Published      bool       `json:"published"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Teaser returns a copy with the instructional content stripped, leaving
// only the fields a locked listing may show.
func (d Drill) Teaser() Drill {
	d.Instructions = nil
	d.CoachingCues = nil
	d.CommonMistakes = nil
	d.DiagramURL = ""
	d.Variations = Variations{}
	d.SafetyNotes = ""
	return d
}
