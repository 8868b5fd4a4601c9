// Package trainer wires the deck, review ledger, daily goal and session
// together and handles the user's events one at a time.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/conorfennell/tango/internal/deck"
	"github.com/conorfennell/tango/internal/domain"
	"github.com/conorfennell/tango/internal/goal"
	"github.com/conorfennell/tango/internal/ledger"
	"github.com/conorfennell/tango/internal/session"
	"github.com/conorfennell/tango/internal/srs"
)

// Messages shown in place of an error when a mode has nothing to study.
const (
	NoticeNothingDue = "復習（Due）はありません"
	NoticeEmptyBlock = "このブロックにはカードがありません"
	HiddenAnswerHint = "タップして答え"
)

// Fetcher produces the deck's cards. It is called once by Load.
type Fetcher func(ctx context.Context) ([]domain.Card, error)

// History records grade events. It is optional.
type History interface {
	InsertReview(r domain.ReviewLog) error
}

// Options configures a Trainer. Ledger and Goals are required.
type Options struct {
	Ledger  *ledger.Ledger
	Goals   *goal.Tracker
	History History
	Now     func() time.Time
	Rand    *rand.Rand
	Logger  *slog.Logger
}

// Trainer owns all study state. Its methods are safe to call from several
// goroutines; each event runs to completion before the next starts.
type Trainer struct {
	mu sync.Mutex

	deck    *deck.Deck
	loaded  bool
	ledger  *ledger.Ledger
	goals   *goal.Tracker
	history History
	session *session.Session

	now     func() time.Time
	rng     *rand.Rand
	log     *slog.Logger
	lastDay int

	variant    session.Variant
	hasVariant bool
	notice     string
}

// New creates a Trainer with an empty deck.
func New(opts Options) *Trainer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Trainer{
		deck:    deck.Empty(),
		ledger:  opts.Ledger,
		goals:   opts.Goals,
		history: opts.History,
		session: session.New(),
		now:     opts.Now,
		rng:     opts.Rand,
		log:     opts.Logger,
	}
}

// Load fetches the deck and, on success, installs it and starts block 1.
// Until Load completes the deck is empty and every event is a no-op. A
// failed load is logged and returned; the trainer keeps the empty deck.
func (t *Trainer) Load(ctx context.Context, fetch Fetcher) error {
	cards, err := fetch(ctx)
	if err != nil {
		t.log.Error("Failed to load deck", "error", err)
		return fmt.Errorf("failed to load deck: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.deck = deck.New(cards)
	t.loaded = true
	t.session.StartBlock(t.deck, 1)
	t.hasVariant = false
	t.log.Info("Deck loaded", "cards", t.deck.Len(), "blocks", t.deck.MaxBlock())
	return nil
}

// Loaded reports whether the deck has been installed.
func (t *Trainer) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loaded
}

// Render draws a fresh variant of the current card and returns the view.
func (t *Trainer) Render() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.render()
}

// Reveal toggles the answer without redrawing the card's variant.
func (t *Trainer) Reveal() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.ToggleReveal()
	if !t.hasVariant {
		return t.render()
	}
	return t.view()
}

// Advance moves to the next card.
func (t *Trainer) Advance() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.Advance()
	return t.render()
}

// GradeAgain marks the current card as failed and moves on.
func (t *Trainer) GradeAgain() View {
	return t.grade(srs.Again)
}

// GradeGood marks the current card as recalled, counts it towards the
// daily goal and moves on.
func (t *Trainer) GradeGood() View {
	return t.grade(srs.Good)
}

func (t *Trainer) grade(rating srs.Rating) View {
	t.mu.Lock()
	defer t.mu.Unlock()

	card, ok := t.session.Current()
	if !ok {
		return t.render()
	}
	today := t.today()

	var state domain.ReviewState
	var err error
	if rating == srs.Good {
		state, err = t.ledger.RecordGood(card.No, today)
	} else {
		state, err = t.ledger.RecordAgain(card.No, today)
	}
	if err != nil {
		t.log.Warn("Failed to save review state", "card", card.No, "error", err)
	}

	if rating == srs.Good {
		if _, err := t.goals.RecordGood(today); err != nil {
			t.log.Warn("Failed to save daily goal", "error", err)
		}
	}

	if t.history != nil {
		entry := domain.ReviewLog{
			CardNo:    card.No,
			Day:       today,
			Rating:    rating.String(),
			Interval:  state.Interval,
			Timestamp: t.now(),
		}
		if err := t.history.InsertReview(entry); err != nil {
			t.log.Warn("Failed to record review history", "card", card.No, "error", err)
		}
	}

	t.log.Debug("Card graded", "card", card.No, "rating", rating.String(), "interval", state.Interval, "due", state.Due)
	t.session.Advance()
	return t.render()
}

// StartBlock studies one block. An empty block leaves the session as it was
// and sets a notice.
func (t *Trainer) StartBlock(b int) View {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loaded {
		return t.render()
	}
	if !t.session.StartBlock(t.deck, b) {
		t.notice = NoticeEmptyBlock
	}
	return t.render()
}

// StartSequential studies the whole deck in card-number order.
func (t *Trainer) StartSequential() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.session.StartSequential(t.deck)
	return t.render()
}

// StartDueReview studies the graded cards due today. When nothing is due
// the session is left as it was and a notice is set.
func (t *Trainer) StartDueReview() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.loaded {
		return t.render()
	}
	today := t.today()
	if !t.session.StartDueReview(t.deck, func(no int) bool { return t.ledger.Due(no, today) }) {
		t.notice = NoticeNothingDue
	}
	return t.render()
}

// SetGoal changes the daily target.
func (t *Trainer) SetGoal(n int) (View, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.goals.SetGoal(n, t.today()); err != nil {
		return t.view(), err
	}
	return t.view(), nil
}

// Summary is a snapshot of overall study status.
type Summary struct {
	Day     int
	Cards   int
	Graded  int
	Learned int
	Due     int
	Daily   goal.Progress
}

// Summary counts due and learned cards and rolls the daily goal over if
// the day has changed.
func (t *Trainer) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.today()
	sum := Summary{Day: today, Cards: t.deck.Len(), Graded: t.ledger.Len()}
	for _, c := range t.deck.Cards() {
		if t.ledger.Learned(c.No) {
			sum.Learned++
		}
		if t.ledger.Due(c.No, today) {
			sum.Due++
		}
	}
	progress, err := t.goals.Progress(today)
	if err != nil {
		t.log.Warn("Failed to save daily goal", "error", err)
	}
	sum.Daily = progress
	return sum
}

// DueCount is the number of deck cards due today.
func (t *Trainer) DueCount() int {
	return t.Summary().Due
}

// today returns the current day number, never earlier than one already seen.
func (t *Trainer) today() int {
	d := srs.DayNumber(t.now())
	if d < t.lastDay {
		return t.lastDay
	}
	t.lastDay = d
	return d
}
