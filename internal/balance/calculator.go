// Package balance folds journal lines into per-account balances.
package balance

import (
	"iter"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Balances maps account ID to the signed sum of its lines (debit positive).
// Accounts without lines are absent.
type Balances map[string]decimal.Decimal

// Get returns the balance of id, zero when absent.
func (b Balances) Get(id string) decimal.Decimal {
	return b[id]
}

// Sum returns the total over every account. Zero for a ledger of balanced entries.
func (b Balances) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range b {
		total = total.Add(v)
	}
	return total
}

// Accounts returns the account IDs present, sorted.
func (b Balances) Accounts() []string {
	return slices.Sorted(maps.Keys(b))
}

// Clone returns an independent copy.
func (b Balances) Clone() Balances {
	return maps.Clone(b)
}

// Period bounds a computation by entry date. Zero values are open; both
// bounds are inclusive.
type Period struct {
	From time.Time
	To   time.Time
}

// Compute sums every line of the entries that fall inside p.
func Compute(entries iter.Seq[model.JournalEntry], p Period) Balances {
	f := journal.Filter{From: p.From, To: p.To}
	out := make(Balances)
	for e := range entries {
		if !f.Match(e) {
			continue
		}
		for _, l := range e.Lines {
			out[l.AccountID] = out[l.AccountID].Add(l.Amount)
		}
	}
	return out
}

// SumLines folds the lines accepted by keep directly, without building a
// per-account map.
func SumLines(entries iter.Seq[model.JournalEntry], keep func(model.Line) bool) decimal.Decimal {
	total := decimal.Zero
	for e := range entries {
		for _, l := range e.Lines {
			if keep(l) {
				total = total.Add(l.Amount)
			}
		}
	}
	return total
}

// Cache memoizes the unfiltered balances for one ledger version.
// It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	version  uint64
	valid    bool
	balances Balances
}

// Get returns the balances for version, calling compute on a miss.
// A caller holding an older version never overwrites a newer entry.
func (c *Cache) Get(version uint64, compute func() Balances) Balances {
	c.mu.Lock()
	if c.valid && c.version == version {
		b := c.balances
		c.mu.Unlock()
		return b.Clone()
	}
	c.mu.Unlock()

	b := compute()

	c.mu.Lock()
	if !c.valid || version >= c.version {
		c.version, c.balances, c.valid = version, b, true
	}
	c.mu.Unlock()
	return b.Clone()
}

// Invalidate drops the memoized balances.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid, c.balances = false, nil
	c.mu.Unlock()
}
