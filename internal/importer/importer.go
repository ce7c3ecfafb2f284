package importer

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/cleared-dev/cleared-gl/internal/gl"
	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Ledger is the part of the engine an import needs.
type Ledger interface {
	PostEntry(ctx context.Context, in gl.EntryInput) (model.JournalEntry, error)
	ListEntries(f journal.Filter) iter.Seq[model.JournalEntry]
}

// Result reports what an import did.
type Result struct {
	Posted  []model.JournalEntry
	Skipped []StatementLine
}

// Importer posts statement lines as two-line entries between a bank account
// and an offset account, typically a suspense account awaiting
// classification.
type Importer struct {
	ledger Ledger
	bankID string
	offset string
	log    *zap.Logger
}

// New returns an Importer. log may be nil.
func New(ledger Ledger, bankAccountID, offsetAccountID string, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{ledger: ledger, bankID: bankAccountID, offset: offsetAccountID, log: log}
}

// Import posts lines in order. Zero-amount lines are skipped, as are lines
// whose reference is already on the bank account: if the ledger holds n
// entries with a reference, the first n statement lines carrying it are
// treated as already imported. On error the entries posted so far remain
// and are reported in the Result.
func (im *Importer) Import(ctx context.Context, lines []StatementLine) (Result, error) {
	existing := make(map[string]int)
	for e := range im.ledger.ListEntries(journal.Filter{AccountID: im.bankID}) {
		if e.Reference != "" {
			existing[e.Reference]++
		}
	}

	var res Result
	seen := make(map[string]int)
	for i, sl := range lines {
		if sl.Amount.IsZero() {
			res.Skipped = append(res.Skipped, sl)
			continue
		}
		if sl.Reference != "" {
			seen[sl.Reference]++
			if seen[sl.Reference] <= existing[sl.Reference] {
				res.Skipped = append(res.Skipped, sl)
				continue
			}
		}

		entry, err := im.ledger.PostEntry(ctx, gl.EntryInput{
			Date:        sl.Date,
			Description: sl.Description,
			Reference:   sl.Reference,
			Lines: []model.Line{
				{AccountID: im.bankID, Amount: sl.Amount},
				{AccountID: im.offset, Amount: sl.Amount.Neg()},
			},
		})
		if err != nil {
			return res, fmt.Errorf("statement line %d (%s): %w", i+1, sl.Description, err)
		}
		res.Posted = append(res.Posted, entry)
	}

	im.log.Info("statement imported",
		zap.String("account_id", im.bankID),
		zap.Int("posted", len(res.Posted)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}
