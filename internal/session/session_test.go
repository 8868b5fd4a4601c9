package session

import (
	"math/rand"
	"testing"

	"github.com/conorfennell/tango/internal/deck"
	"github.com/conorfennell/tango/internal/domain"
)

func testDeck(nos ...int) *deck.Deck {
	cards := make([]domain.Card, 0, len(nos))
	for _, no := range nos {
		cards = append(cards, domain.Card{No: no})
	}
	return deck.New(cards)
}

func currentNo(t *testing.T, s *Session) int {
	t.Helper()
	c, ok := s.Current()
	if !ok {
		t.Fatal("Expected a current card, but the session is empty")
	}
	return c.No
}

func TestStartBlock(t *testing.T) {
	d := testDeck(32, 2, 1, 31)
	s := New()

	if !s.StartBlock(d, 2) {
		t.Fatal("Expected StartBlock(2) to succeed")
	}
	if s.Len() != 2 || currentNo(t, s) != 31 {
		t.Errorf("Expected block 2 to start at card 31 with 2 cards, got %d cards at %d", s.Len(), currentNo(t, s))
	}
	if s.Mode() != (Mode{Kind: Block, Block: 2}) {
		t.Errorf("Unexpected mode: %v", s.Mode())
	}

	s.Advance()
	s.ToggleReveal()
	if s.StartBlock(d, 5) {
		t.Error("Expected StartBlock on an empty block to fail")
	}
	if s.Cursor() != 1 || !s.Revealed() || s.Mode().Block != 2 {
		t.Error("Expected the failed start to leave the session unchanged")
	}
}

func TestStartSequential(t *testing.T) {
	s := New()
	if s.StartSequential(deck.Empty()) {
		t.Error("Expected StartSequential on an empty deck to fail")
	}
	if s.Active() {
		t.Error("Expected the session to stay idle")
	}

	d := testDeck(40, 3, 1)
	if !s.StartSequential(d) {
		t.Fatal("Expected StartSequential to succeed")
	}
	var got []int
	for i := 0; i < s.Len(); i++ {
		got = append(got, currentNo(t, s))
		s.Advance()
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 40 {
		t.Errorf("Expected order [1 3 40], but got %v", got)
	}
}

func TestStartDueReview(t *testing.T) {
	d := testDeck(1, 2, 3)
	s := New()

	t.Run("unseen cards are never due", func(t *testing.T) {
		states := map[int]domain.ReviewState{}
		isDue := func(no int) bool {
			st, ok := states[no]
			return ok && st.Due <= 100
		}
		if s.StartDueReview(d, isDue) {
			t.Error("Expected no due cards for an empty ledger")
		}
		if s.Active() {
			t.Error("Expected the session to stay idle")
		}
	})

	t.Run("selects due cards in order", func(t *testing.T) {
		states := map[int]domain.ReviewState{
			3: {Interval: 0, Due: 100},
			1: {Interval: 2, Due: 99},
			2: {Interval: 4, Due: 104},
		}
		isDue := func(no int) bool {
			st, ok := states[no]
			return ok && st.Due <= 100
		}
		if !s.StartDueReview(d, isDue) {
			t.Fatal("Expected due review to start")
		}
		if s.Len() != 2 || currentNo(t, s) != 1 {
			t.Errorf("Expected cards [1 3], got %d cards starting at %d", s.Len(), currentNo(t, s))
		}
		if s.Mode().Kind != DueReview {
			t.Errorf("Unexpected mode: %v", s.Mode())
		}
	})
}

func TestStartResetsCursorAndReveal(t *testing.T) {
	d := testDeck(1, 2, 3)
	s := New()
	s.StartSequential(d)
	s.Advance()
	s.Advance()
	s.ToggleReveal()

	s.StartBlock(d, 1)
	if s.Cursor() != 0 || s.Revealed() {
		t.Errorf("Expected cursor 0 and hidden answer, got cursor %d revealed %v", s.Cursor(), s.Revealed())
	}
}

func TestAdvanceWraps(t *testing.T) {
	s := New()
	s.Advance()
	if s.Cursor() != 0 {
		t.Error("Expected Advance on an empty session to be a no-op")
	}

	s.StartSequential(testDeck(1, 2, 3, 4))
	for i := 0; i < 3; i++ {
		s.Advance()
	}
	if s.Cursor() != 3 {
		t.Fatalf("Expected cursor 3, but got %d", s.Cursor())
	}
	s.ToggleReveal()
	s.Advance()
	if s.Cursor() != 0 {
		t.Errorf("Expected the cursor to wrap to 0, but got %d", s.Cursor())
	}
	if s.Revealed() {
		t.Error("Expected Advance to hide the answer")
	}
}

func TestPickVariant(t *testing.T) {
	t.Run("plain card is verbatim", func(t *testing.T) {
		c := domain.Card{No: 5, Prompt: "犬", Answer: "dog"}
		v := PickVariant(c, rand.New(rand.NewSource(1)))
		if v.Prompt != "犬" || v.Answer != "dog" || v.Blank != "" || v.Slot != nil {
			t.Errorf("Unexpected variant: %+v", v)
		}
	})

	card := domain.Card{
		No:     6,
		Prompt: "{x}を見る",
		Answer: "watch {x}",
		Slots: []domain.Slot{
			{Prompt: "映画", Answer: "a movie"},
			{Prompt: "本", Answer: "a book"},
		},
	}

	t.Run("substitutes the chosen slot", func(t *testing.T) {
		expected := map[string]string{
			"映画を見る": "watch a movie",
			"本を見る":  "watch a book",
		}
		v := PickVariant(card, rand.New(rand.NewSource(7)))
		if want, ok := expected[v.Prompt]; !ok || v.Answer != want {
			t.Errorf("Unexpected variant: %+v", v)
		}
		if v.Blank != "watch ___" {
			t.Errorf("Expected blank answer 'watch ___', but got '%s'", v.Blank)
		}
	})

	t.Run("deterministic for a seeded source", func(t *testing.T) {
		a := PickVariant(card, rand.New(rand.NewSource(42)))
		b := PickVariant(card, rand.New(rand.NewSource(42)))
		if a.Prompt != b.Prompt {
			t.Errorf("Expected the same variant for the same seed, got %q and %q", a.Prompt, b.Prompt)
		}
	})

	t.Run("every slot is reachable", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			seen[PickVariant(card, rng).Prompt] = true
		}
		if !seen["映画を見る"] || !seen["本を見る"] {
			t.Errorf("Expected both slots to be drawn, saw %v", seen)
		}
	})
}
