package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatEntryID returns an entry ID like "2025-01-001".
func FormatEntryID(year, month, seq int) string {
	return fmt.Sprintf("%04d-%02d-%03d", year, month, seq)
}

// FormatLineID returns a line ID like "2025-01-001a".
// Lines past 'z' continue spreadsheet style: 26='aa', 27='ab', ...
func FormatLineID(entryID string, line int) string {
	var suffix []byte
	for n := line; ; n = n/26 - 1 {
		suffix = append([]byte{byte('a' + n%26)}, suffix...)
		if n < 26 {
			break
		}
	}
	return entryID + string(suffix)
}

// ParseEntryID parses "2025-01-001" into year, month, seq.
func ParseEntryID(id string) (year, month, seq int, err error) {
	// Strip any line suffix (trailing lowercase letters).
	base := EntryGroup(id)

	parts := strings.SplitN(base, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in entry ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in entry ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// EntryGroup strips the line suffix from a line ID.
// "2025-01-001a" -> "2025-01-001"
func EntryGroup(lineID string) string {
	i := len(lineID)
	for i > 0 && lineID[i-1] >= 'a' && lineID[i-1] <= 'z' {
		i--
	}
	return lineID[:i]
}

// Sequence hands out per-month entry IDs. Not safe for concurrent use.
type Sequence struct {
	last map[[2]int]int
}

// NewSequence returns an empty Sequence.
func NewSequence() *Sequence {
	return &Sequence{last: make(map[[2]int]int)}
}

// Observe records an existing entry ID so Next never reuses it.
// IDs that do not parse are ignored.
func (s *Sequence) Observe(entryID string) {
	year, month, seq, err := ParseEntryID(entryID)
	if err != nil {
		return
	}
	key := [2]int{year, month}
	if seq > s.last[key] {
		s.last[key] = seq
	}
}

// Peek returns the ID Next would return for date without reserving it.
func (s *Sequence) Peek(date time.Time) string {
	key := [2]int{date.Year(), int(date.Month())}
	return FormatEntryID(key[0], key[1], s.last[key]+1)
}

// Next reserves and returns the next ID for the month of date.
func (s *Sequence) Next(date time.Time) string {
	next := s.Peek(date)
	s.Observe(next)
	return next
}
