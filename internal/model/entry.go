package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Line posts a signed amount to one account.
// Positive amounts are debits, negative amounts are credits.
type Line struct {
	AccountID string
	Amount    decimal.Decimal
}

// IsDebit reports whether the line sits on the debit side.
func (l Line) IsDebit() bool {
	return l.Amount.IsPositive()
}

// JournalEntry is one balanced, atomic set of lines.
type JournalEntry struct {
	ID          string // "YYYY-MM-NNN"
	Date        time.Time
	Description string
	Reference   string // optional external document id
	Lines       []Line
}

// Sum returns the signed total of all lines. Zero for a balanced entry.
func (e JournalEntry) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Touches reports whether any line posts to accountID.
func (e JournalEntry) Touches(accountID string) bool {
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}

// Clone returns a copy whose Lines slice is not shared with e.
func (e JournalEntry) Clone() JournalEntry {
	out := e
	out.Lines = append([]Line(nil), e.Lines...)
	return out
}
