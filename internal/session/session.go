// Package session drives a cursor over the working set of cards chosen for
// the current study mode.
package session

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/conorfennell/tango/internal/deck"
	"github.com/conorfennell/tango/internal/domain"
)

// blank stands in for the substituted answer until it is revealed.
const blank = "___"

// ModeKind identifies how the working set was chosen.
type ModeKind int

const (
	Idle ModeKind = iota
	Block
	Sequential
	DueReview
)

// Mode is the current study mode. Block is set for block mode only.
type Mode struct {
	Kind  ModeKind
	Block int
}

func (m Mode) String() string {
	switch m.Kind {
	case Block:
		return fmt.Sprintf("block %d", m.Block)
	case Sequential:
		return "sequential"
	case DueReview:
		return "due review"
	default:
		return "idle"
	}
}

// Session is the transient study state. The zero value is Idle.
type Session struct {
	workingSet []domain.Card
	cursor     int
	revealed   bool
	mode       Mode
}

// New returns an idle session.
func New() *Session {
	return &Session{}
}

// StartBlock studies block b in card-number order. It returns false and
// leaves the session unchanged if the block has no cards.
func (s *Session) StartBlock(d *deck.Deck, b int) bool {
	return s.start(d.CardsInBlock(b), Mode{Kind: Block, Block: b})
}

// StartSequential studies the whole deck in card-number order.
func (s *Session) StartSequential(d *deck.Deck) bool {
	return s.start(d.Sorted(), Mode{Kind: Sequential})
}

// StartDueReview studies the cards isDue accepts, in card-number order.
// It returns false and leaves the session unchanged if nothing is due.
func (s *Session) StartDueReview(d *deck.Deck, isDue func(no int) bool) bool {
	due := d.Filter(func(c domain.Card) bool {
		return isDue(c.No)
	})
	return s.start(due, Mode{Kind: DueReview})
}

func (s *Session) start(cards []domain.Card, mode Mode) bool {
	if len(cards) == 0 {
		return false
	}
	s.workingSet = cards
	s.cursor = 0
	s.revealed = false
	s.mode = mode
	return true
}

// Advance moves to the next card, wrapping at the end, and hides the answer.
func (s *Session) Advance() {
	if len(s.workingSet) == 0 {
		return
	}
	s.cursor = (s.cursor + 1) % len(s.workingSet)
	s.revealed = false
}

// Current returns the card under the cursor.
func (s *Session) Current() (domain.Card, bool) {
	if len(s.workingSet) == 0 {
		return domain.Card{}, false
	}
	return s.workingSet[s.cursor], true
}

// First returns the first card of the working set.
func (s *Session) First() (domain.Card, bool) {
	if len(s.workingSet) == 0 {
		return domain.Card{}, false
	}
	return s.workingSet[0], true
}

// ToggleReveal flips whether the answer is shown and returns the new value.
func (s *Session) ToggleReveal() bool {
	if len(s.workingSet) == 0 {
		return false
	}
	s.revealed = !s.revealed
	return s.revealed
}

func (s *Session) Revealed() bool { return s.revealed }
func (s *Session) Cursor() int    { return s.cursor }
func (s *Session) Len() int       { return len(s.workingSet) }
func (s *Session) Active() bool   { return len(s.workingSet) > 0 }
func (s *Session) Mode() Mode     { return s.mode }

// Variant is a card rendered with one slot substitution applied.
type Variant struct {
	Prompt string
	Answer string
	Blank  string // answer with the slot blanked out; empty for plain cards
	Slot   *domain.Slot
}

// PickVariant chooses one of the card's slots uniformly at random and
// substitutes it into the prompt and answer. Plain cards come back verbatim.
func PickVariant(card domain.Card, rng *rand.Rand) Variant {
	if !card.HasSlots() {
		return Variant{Prompt: card.Prompt, Answer: card.Answer}
	}
	slot := card.Slots[rng.Intn(len(card.Slots))]
	return Variant{
		Prompt: strings.Replace(card.Prompt, domain.Placeholder, slot.Prompt, 1),
		Answer: strings.Replace(card.Answer, domain.Placeholder, slot.Answer, 1),
		Blank:  strings.Replace(card.Answer, domain.Placeholder, blank, 1),
		Slot:   &slot,
	}
}
