package journal

import (
	"fmt"
	"iter"
	"time"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Day truncates t to its calendar date in UTC. Entry dates and filter bounds
// are compared as days.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filter narrows a ledger listing. Zero values match everything; From and To
// are inclusive.
type Filter struct {
	From      time.Time
	To        time.Time
	AccountID string
}

func (f Filter) afterTo(date time.Time) bool {
	return !f.To.IsZero() && date.After(Day(f.To))
}

func (f Filter) beforeFrom(date time.Time) bool {
	return !f.From.IsZero() && date.Before(Day(f.From))
}

// Match reports whether e passes every bound of f.
func (f Filter) Match(e model.JournalEntry) bool {
	date := Day(e.Date)
	if f.beforeFrom(date) || f.afterTo(date) {
		return false
	}
	return f.AccountID == "" || e.Touches(f.AccountID)
}

type ledgerKey struct {
	date time.Time
	seq  uint64
}

func compareKeys(a, b interface{}) int {
	ka, kb := a.(ledgerKey), b.(ledgerKey)
	if c := ka.date.Compare(kb.date); c != 0 {
		return c
	}
	switch {
	case ka.seq < kb.seq:
		return -1
	case ka.seq > kb.seq:
		return 1
	}
	return 0
}

// Ledger is the append-only log of journal entries, ordered by date with
// ties broken by insertion order. It is not safe for concurrent use.
type Ledger struct {
	index *treemap.Map // ledgerKey -> model.JournalEntry
	byID  map[string]ledgerKey
	seq   uint64
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		index: treemap.NewWith(compareKeys),
		byID:  make(map[string]ledgerKey),
	}
}

// Append stores a copy of e. The entry must already be validated; Append only
// rejects a reused ID.
func (l *Ledger) Append(e model.JournalEntry) error {
	if _, dup := l.byID[e.ID]; dup {
		return fmt.Errorf("entry %q already posted", e.ID)
	}
	l.seq++
	key := ledgerKey{date: Day(e.Date), seq: l.seq}
	l.index.Put(key, e.Clone())
	l.byID[e.ID] = key
	return nil
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return l.index.Size()
}

// Version increases with every append. Derived state keyed by Version is
// stale as soon as the value changes.
func (l *Ledger) Version() uint64 {
	return l.seq
}

// Get returns an entry by ID.
func (l *Ledger) Get(id string) (model.JournalEntry, error) {
	key, ok := l.byID[id]
	if !ok {
		return model.JournalEntry{}, &model.NotFoundError{Kind: "entry", ID: id}
	}
	v, _ := l.index.Get(key)
	return v.(model.JournalEntry).Clone(), nil
}

// References reports whether any entry posts to accountID.
func (l *Ledger) References(accountID string) bool {
	it := l.index.Iterator()
	for it.Next() {
		if it.Value().(model.JournalEntry).Touches(accountID) {
			return true
		}
	}
	return false
}

// Snapshot returns the entries matching f in ledger order. The slice is owned
// by the caller; the entries' Lines must be treated as read-only.
func (l *Ledger) Snapshot(f Filter) []model.JournalEntry {
	var out []model.JournalEntry
	it := l.index.Iterator()
	for it.Next() {
		key := it.Key().(ledgerKey)
		if f.afterTo(key.date) {
			break
		}
		if f.beforeFrom(key.date) {
			continue
		}
		e := it.Value().(model.JournalEntry)
		if f.AccountID != "" && !e.Touches(f.AccountID) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Entries returns a restartable sequence over a snapshot taken now. Entries
// appended later are not visible to the returned sequence.
func (l *Ledger) Entries(f Filter) iter.Seq[model.JournalEntry] {
	return Seq(l.Snapshot(f))
}

// Seq adapts a slice of entries to a restartable sequence.
func Seq(entries []model.JournalEntry) iter.Seq[model.JournalEntry] {
	return func(yield func(model.JournalEntry) bool) {
		for _, e := range entries {
			if !yield(e) {
				return
			}
		}
	}
}
