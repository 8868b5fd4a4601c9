package trainer

import (
	"github.com/conorfennell/tango/internal/deck"
	"github.com/conorfennell/tango/internal/goal"
	"github.com/conorfennell/tango/internal/session"
)

// View is everything the presentation layer needs to draw one screen.
type View struct {
	Loaded bool
	Empty  bool // no card to show

	CardNo        int
	Prompt        string
	AnswerDisplay string
	Note          string
	VideoRef      string
	Level         int
	Revealed      bool

	Position int // 1-based position in the working set
	Total    int
	Mode     string

	Block  BlockProgress
	Daily  goal.Progress
	Blocks []deck.BlockSummary

	Notice string
}

// BlockProgress is the learned count of the block being studied.
type BlockProgress struct {
	Index   int
	Learned int
	Total   int
	Percent int
}

// render draws a new variant for the current card, then builds the view.
func (t *Trainer) render() View {
	if card, ok := t.session.Current(); ok {
		t.variant = session.PickVariant(card, t.rng)
		t.hasVariant = true
	} else {
		t.hasVariant = false
	}
	return t.view()
}

// view builds the screen from the last drawn variant. It consumes the notice.
func (t *Trainer) view() View {
	today := t.today()
	v := View{
		Loaded: t.loaded,
		Mode:   t.session.Mode().String(),
		Total:  t.session.Len(),
		Notice: t.notice,
	}
	t.notice = ""

	learned := t.ledger.Learned
	v.Blocks = t.deck.Blocks(learned)

	blockIndex := 1
	if first, ok := t.session.First(); ok {
		blockIndex = deck.BlockOf(first.No)
	}
	done, total := t.deck.Progress(blockIndex, learned)
	v.Block = BlockProgress{
		Index:   blockIndex,
		Learned: done,
		Total:   total,
		Percent: deck.Percent(done, total),
	}

	progress, err := t.goals.Progress(today)
	if err != nil {
		t.log.Warn("Failed to save daily goal", "error", err)
	}
	v.Daily = progress

	card, ok := t.session.Current()
	if !ok || !t.hasVariant {
		v.Empty = true
		return v
	}

	v.CardNo = card.No
	v.Note = card.Note
	v.VideoRef = card.VideoRef
	v.Level = card.Level
	v.Position = t.session.Cursor() + 1
	v.Revealed = t.session.Revealed()
	v.Prompt = t.variant.Prompt

	switch {
	case v.Revealed:
		v.AnswerDisplay = t.variant.Answer
	case t.variant.Blank != "":
		v.AnswerDisplay = t.variant.Blank
	default:
		v.AnswerDisplay = HiddenAnswerHint
	}
	return v
}
