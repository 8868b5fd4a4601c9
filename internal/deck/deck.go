// Package deck holds the immutable card list and partitions it into blocks
// of consecutive card numbers.
package deck

import (
	"math"
	"sort"

	"github.com/conorfennell/tango/internal/domain"
)

// BlockSize is the number of consecutive card numbers in one block.
const BlockSize = 30

// Deck is the loaded card list. It is never modified after New.
type Deck struct {
	cards []domain.Card
	byNo  map[int]int
}

// BlockSummary describes one block for the block picker.
type BlockSummary struct {
	Index   int
	First   int // first card number the block covers
	Last    int // last card number the block covers
	Learned int
	Total   int
	Percent int
}

// New builds a deck from parsed cards. The slice is copied.
func New(cards []domain.Card) *Deck {
	d := &Deck{
		cards: append([]domain.Card(nil), cards...),
		byNo:  make(map[int]int, len(cards)),
	}
	for i, c := range d.cards {
		if _, dup := d.byNo[c.No]; !dup {
			d.byNo[c.No] = i
		}
	}
	return d
}

// Empty returns a deck with no cards.
func Empty() *Deck {
	return New(nil)
}

// BlockOf returns the block a card number belongs to: 1..30 is block 1,
// 31..60 block 2 and so on. Numbers below 1 fall outside every block.
func BlockOf(no int) int {
	return floorDiv(no-1, BlockSize) + 1
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Len returns the number of cards.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards returns the cards in load order.
func (d *Deck) Cards() []domain.Card {
	return append([]domain.Card(nil), d.cards...)
}

// Lookup finds a card by number. With duplicate numbers the first row wins.
func (d *Deck) Lookup(no int) (domain.Card, bool) {
	i, ok := d.byNo[no]
	if !ok {
		return domain.Card{}, false
	}
	return d.cards[i], true
}

// Sorted returns every card ordered by number.
func (d *Deck) Sorted() []domain.Card {
	return sortByNo(d.Cards())
}

// Filter returns the cards for which keep is true, ordered by number.
func (d *Deck) Filter(keep func(domain.Card) bool) []domain.Card {
	var out []domain.Card
	for _, c := range d.cards {
		if keep(c) {
			out = append(out, c)
		}
	}
	return sortByNo(out)
}

// CardsInBlock returns the cards of block b ordered by number.
func (d *Deck) CardsInBlock(b int) []domain.Card {
	return d.Filter(func(c domain.Card) bool {
		return BlockOf(c.No) == b
	})
}

// MaxBlock returns the highest block index, or 1 when the deck is empty.
func (d *Deck) MaxBlock() int {
	if len(d.cards) == 0 {
		return 1
	}
	maxNo := d.cards[0].No
	for _, c := range d.cards[1:] {
		if c.No > maxNo {
			maxNo = c.No
		}
	}
	n := int(math.Ceil(float64(maxNo) / BlockSize))
	if n < 1 {
		return 1
	}
	return n
}

// Progress counts the learned cards in block b.
func (d *Deck) Progress(b int, learned func(no int) bool) (done, total int) {
	for _, c := range d.CardsInBlock(b) {
		total++
		if learned(c.No) {
			done++
		}
	}
	return done, total
}

// Blocks summarises every block from 1 to MaxBlock.
func (d *Deck) Blocks(learned func(no int) bool) []BlockSummary {
	n := d.MaxBlock()
	out := make([]BlockSummary, 0, n)
	for b := 1; b <= n; b++ {
		done, total := d.Progress(b, learned)
		out = append(out, BlockSummary{
			Index:   b,
			First:   (b-1)*BlockSize + 1,
			Last:    b * BlockSize,
			Learned: done,
			Total:   total,
			Percent: Percent(done, total),
		})
	}
	return out
}

// Percent returns done/total as a rounded percentage, 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func sortByNo(cards []domain.Card) []domain.Card {
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].No < cards[j].No
	})
	return cards
}
