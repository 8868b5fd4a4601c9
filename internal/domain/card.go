package domain

import "time"

// Placeholder is the token in a card's prompt and answer templates that a
// slot substitution replaces.
const Placeholder = "{x}"

// Card represents a single vocabulary entry from the deck file.
type Card struct {
	No       int
	Prompt   string
	Answer   string
	Slots    []Slot // nil when the row has no substitutions
	VideoRef string
	Level    int
	Note     string
}

// Slot is one prompt/answer substitution pair for a templated card.
type Slot struct {
	Prompt string
	Answer string
}

// HasSlots reports whether the card is a template with substitutions.
func (c Card) HasSlots() bool {
	return len(c.Slots) > 0
}

// ReviewState is the scheduling state of a graded card.
// Interval is in days; 0 means never passed or just failed.
// Due is a day number (see srs.DayNumber).
type ReviewState struct {
	Interval int `json:"interval"`
	Due      int `json:"due"`
}

// DailyGoal tracks successful reviews against a per-day target.
type DailyGoal struct {
	Day       int `json:"day"`
	GoodCount int `json:"goodCount"`
	Goal      int `json:"goal"`
}

// ReviewLog records a single grade event for a card.
type ReviewLog struct {
	CardNo    int
	Day       int
	Rating    string // "again" or "good"
	Interval  int    // interval after the grade
	Timestamp time.Time
}
