package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/conorfennell/tango/internal/domain"
)

// Column order of a deck row: no, prompt, answer, slots, video, level, note.
const (
	colNo = iota
	colPrompt
	colAnswer
	colSlots
	colVideo
	colLevel
	colNote
)

const (
	slotSeparator  = "|"
	slotPairJoiner = "="
	defaultLevel   = 1
)

// ParseFile reads a deck file from the given path and extracts all cards.
// Spreadsheets (.xlsx) are read from their first sheet.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ParseXLSX(file, "")
	}
	return Parse(file)
}

// Parse reads comma-separated deck rows from r. The first row is a header
// and is discarded. Malformed fields fall back to defaults, so the only
// error returned is one from reading r.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cards []domain.Card
	header := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		cards = append(cards, cardFromFields(SplitRow(line)))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read deck: %w", err)
	}
	return cards, nil
}

// SplitRow splits one deck row on commas. A double quote toggles quoting
// and is dropped; commas inside quotes stay in the field.
func SplitRow(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(c)
		}
	}
	fields = append(fields, cur.String())

	for i, f := range fields {
		f = strings.TrimPrefix(f, `"`)
		fields[i] = strings.TrimSuffix(f, `"`)
	}
	return fields
}

// ParseSlots splits a slot list like "映画=a movie|本=a book" into pairs.
// An empty list yields nil.
func ParseSlots(raw string) []domain.Slot {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, slotSeparator)
	slots := make([]domain.Slot, 0, len(parts))
	for _, part := range parts {
		halves := strings.Split(part, slotPairJoiner)
		slot := domain.Slot{Prompt: halves[0]}
		if len(halves) > 1 {
			slot.Answer = halves[1]
		}
		slots = append(slots, slot)
	}
	return slots
}

func cardFromFields(cols []string) domain.Card {
	field := func(i int) string {
		if i < len(cols) {
			return cols[i]
		}
		return ""
	}

	level := defaultLevel
	if raw := field(colLevel); raw != "" {
		level = parseInt(raw, defaultLevel)
	}

	return domain.Card{
		No:       parseInt(field(colNo), 0),
		Prompt:   field(colPrompt),
		Answer:   field(colAnswer),
		Slots:    ParseSlots(field(colSlots)),
		VideoRef: field(colVideo),
		Level:    level,
		Note:     field(colNote),
	}
}

// parseInt reads a whole number, accepting integral decimals like "3.0".
func parseInt(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	return fallback
}
