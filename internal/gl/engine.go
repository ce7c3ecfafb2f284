// Package gl is the general ledger engine: a chart of accounts, an
// append-only journal of balanced entries, and the balances and reports
// derived from them on demand.
package gl

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/balance"
	"github.com/cleared-dev/cleared-gl/internal/id"
	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
	"github.com/cleared-dev/cleared-gl/internal/report"
)

// Store is the persistence collaborator. Implementations only need to make a
// single AppendEntry atomic; the engine never relies on multi-record
// transactions beyond that.
type Store interface {
	LoadAccounts(ctx context.Context) ([]model.Account, error)
	SaveAccounts(ctx context.Context, accounts []model.Account) error
	LoadEntries(ctx context.Context) ([]model.JournalEntry, error)
	AppendEntry(ctx context.Context, entry model.JournalEntry) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithChart selects the default chart seeded by InitializeIfEmpty.
func WithChart(chart string) Option {
	return func(e *Engine) { e.chart = chart }
}

// Engine owns one chart of accounts and one ledger. All methods are safe for
// concurrent use: mutations serialize on a write lock, while reads hold the
// read lock only long enough to snapshot.
type Engine struct {
	mu       sync.RWMutex
	store    Store
	registry *accounts.Registry
	ledger   *journal.Ledger
	seq      *id.Sequence
	cache    balance.Cache
	chart    string
	log      *zap.Logger
}

// Open loads the chart and ledger from store. An empty store is fine; call
// InitializeIfEmpty to seed it.
func Open(ctx context.Context, store Store, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:  store,
		ledger: journal.NewLedger(),
		seq:    id.NewSequence(),
		chart:  accounts.ChartFreightForwarder,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	accts, err := store.LoadAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	e.registry = accounts.NewRegistry(accts)

	entries, err := store.LoadEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading entries: %w", err)
	}
	// Stored entries are trusted as-is. If they disagree with the chart the
	// reports say so instead of the load failing.
	for _, entry := range entries {
		if err := e.ledger.Append(entry); err != nil {
			return nil, fmt.Errorf("loading entries: %w", err)
		}
		e.seq.Observe(entry.ID)
	}

	e.log.Info("ledger opened",
		zap.Int("accounts", e.registry.Len()),
		zap.Int("entries", e.ledger.Len()))
	return e, nil
}

// InitializeIfEmpty seeds the default chart when no accounts exist and
// reports whether it did. Calling it again is a no-op.
func (e *Engine) InitializeIfEmpty(ctx context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.Len() > 0 {
		return false, nil
	}
	seeded := e.registry.Seed(e.chart)
	if err := e.store.SaveAccounts(ctx, seeded); err != nil {
		return false, fmt.Errorf("saving seeded chart: %w", err)
	}
	for _, a := range seeded {
		if err := e.registry.Insert(a); err != nil {
			return false, err
		}
	}
	e.log.Info("chart of accounts seeded", zap.String("chart", e.chart), zap.Int("accounts", len(seeded)))
	return true, nil
}

// AddAccount registers a new account.
func (e *Engine) AddAccount(ctx context.Context, code, name string, rootType model.RootType) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.registry.Prepare(code, name, rootType)
	if err != nil {
		return model.Account{}, err
	}
	if err := e.store.SaveAccounts(ctx, append(e.registry.All(), a)); err != nil {
		return model.Account{}, fmt.Errorf("saving accounts: %w", err)
	}
	if err := e.registry.Insert(a); err != nil {
		return model.Account{}, err
	}
	e.log.Debug("account added", zap.String("account_id", a.ID), zap.String("code", a.Code))
	return a, nil
}

// RenameAccount changes an account's display name. Always permitted.
func (e *Engine) RenameAccount(ctx context.Context, accountID, name string) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.registry.Get(accountID)
	if err != nil {
		return model.Account{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, fmt.Errorf("%w: name is required", model.ErrInvalidAccount)
	}
	a.Name = name
	if err := e.replaceAccount(ctx, a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// ReclassifyAccount changes an account's code and root type. It fails with
// ErrAccountInUse once any entry posts to the account, since that would
// silently move historical balances between statements.
func (e *Engine) ReclassifyAccount(ctx context.Context, accountID, code string, rootType model.RootType) (model.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.registry.Get(accountID)
	if err != nil {
		return model.Account{}, err
	}
	if e.ledger.References(accountID) {
		return model.Account{}, fmt.Errorf("reclassifying %s: %w", a.Code, model.ErrAccountInUse)
	}
	code = strings.TrimSpace(code)
	if code == "" || !rootType.Valid() {
		return model.Account{}, fmt.Errorf("%w: code %q, root type %q", model.ErrInvalidAccount, code, rootType)
	}
	if other, err := e.registry.ByCode(code); err == nil && other.ID != a.ID {
		return model.Account{}, &model.DuplicateCodeError{Code: code}
	}
	a.Code, a.RootType = code, rootType
	if err := e.replaceAccount(ctx, a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// replaceAccount persists then applies a change. Caller holds the write lock.
func (e *Engine) replaceAccount(ctx context.Context, a model.Account) error {
	next := e.registry.All()
	for i := range next {
		if next[i].ID == a.ID {
			next[i] = a
		}
	}
	if err := e.store.SaveAccounts(ctx, next); err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	return e.registry.Replace(a)
}

// GetAccount returns an account by ID.
func (e *Engine) GetAccount(accountID string) (model.Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Get(accountID)
}

// AccountByCode returns an account by code.
func (e *Engine) AccountByCode(code string) (model.Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.ByCode(code)
}

// ListAccounts returns the accounts matching f.
func (e *Engine) ListAccounts(f accounts.Filter) []model.Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.List(f)
}

// EntryInput is a journal entry before it is posted.
type EntryInput struct {
	Date        time.Time
	Description string
	Reference   string
	Lines       []model.Line
}

// PostEntry validates and appends one entry. It is all-or-nothing: on any
// error the ledger is unchanged.
func (e *Engine) PostEntry(ctx context.Context, in EntryInput) (model.JournalEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if in.Date.IsZero() {
		return model.JournalEntry{}, fmt.Errorf("%w: date is required", model.ErrInvalidEntry)
	}
	if err := journal.Validate(in.Lines, e.registry); err != nil {
		e.log.Warn("entry rejected", zap.String("description", in.Description), zap.Error(err))
		return model.JournalEntry{}, err
	}

	date := journal.Day(in.Date)
	entry := model.JournalEntry{
		ID:          e.seq.Peek(date),
		Date:        date,
		Description: in.Description,
		Reference:   in.Reference,
		Lines:       append([]model.Line(nil), in.Lines...),
	}

	if err := e.store.AppendEntry(ctx, entry); err != nil {
		return model.JournalEntry{}, fmt.Errorf("appending entry %s: %w", entry.ID, err)
	}
	if err := e.ledger.Append(entry); err != nil {
		return model.JournalEntry{}, err
	}
	e.seq.Next(date)

	e.log.Info("entry posted",
		zap.String("entry_id", entry.ID),
		zap.Time("date", entry.Date),
		zap.Int("lines", len(entry.Lines)))
	return entry.Clone(), nil
}

// GetEntry returns a posted entry by ID.
func (e *Engine) GetEntry(entryID string) (model.JournalEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Get(entryID)
}

// ListEntries returns a restartable, date-ordered sequence over the entries
// matching f as of this call.
func (e *Engine) ListEntries(f journal.Filter) iter.Seq[model.JournalEntry] {
	e.mu.RLock()
	snap := e.ledger.Snapshot(f)
	e.mu.RUnlock()

	return func(yield func(model.JournalEntry) bool) {
		for _, entry := range snap {
			if !yield(entry.Clone()) {
				return
			}
		}
	}
}

// EntryCount returns the number of posted entries.
func (e *Engine) EntryCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Len()
}

// snapshot captures what a report needs under the read lock. The fold over
// the entries happens after the lock is released.
func (e *Engine) snapshot(p balance.Period) ([]model.Account, []model.JournalEntry, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	accts := e.registry.List(accounts.Filter{SortByCode: true})
	entries := e.ledger.Snapshot(journal.Filter{From: p.From, To: p.To})
	return accts, entries, e.ledger.Version()
}

func (e *Engine) balances(entries []model.JournalEntry, version uint64, p balance.Period) balance.Balances {
	if p.From.IsZero() && p.To.IsZero() {
		return e.cache.Get(version, func() balance.Balances {
			return balance.Compute(journal.Seq(entries), p)
		})
	}
	return balance.Compute(journal.Seq(entries), p)
}

// ComputeBalances returns every account's signed balance over p.
func (e *Engine) ComputeBalances(p balance.Period) balance.Balances {
	_, entries, version := e.snapshot(p)
	return e.balances(entries, version, p)
}

// GroupBalance returns the raw balance of all accounts whose code starts with
// prefix, as of asOf (zero means all entries).
func (e *Engine) GroupBalance(prefix string, asOf time.Time) (decimal.Decimal, error) {
	p := balance.Period{To: asOf}
	accts, entries, version := e.snapshot(p)
	return report.GroupBalance(accts, e.balances(entries, version, p), prefix)
}

// TrialBalance reports debit and credit columns as of asOf (zero means all entries).
func (e *Engine) TrialBalance(asOf time.Time) (report.TrialBalance, error) {
	p := balance.Period{To: asOf}
	accts, entries, version := e.snapshot(p)
	tb, err := report.BuildTrialBalance(accts, e.balances(entries, version, p))
	if err != nil {
		e.log.Error("trial balance failed", zap.Error(err))
		return report.TrialBalance{}, err
	}
	if !tb.IsBalanced {
		e.log.Warn("trial balance does not balance", zap.String("difference", tb.Difference.String()))
	}
	return tb, nil
}

// BalanceSheet reports assets, liabilities and equity as of asOf, with an
// optional subtotal per prefix group.
func (e *Engine) BalanceSheet(asOf time.Time, groups ...report.Group) (report.BalanceSheet, error) {
	p := balance.Period{To: asOf}
	accts, entries, version := e.snapshot(p)
	bs, err := report.BuildBalanceSheet(accts, e.balances(entries, version, p), groups...)
	if err != nil {
		e.log.Error("balance sheet failed", zap.Error(err))
		return report.BalanceSheet{}, err
	}
	if !bs.IsBalanced {
		e.log.Warn("balance sheet does not balance", zap.String("difference", bs.Difference.String()))
	}
	return bs, nil
}

// IncomeSummary reports revenue, expenses and net profit over p.
func (e *Engine) IncomeSummary(p balance.Period) (report.IncomeSummary, error) {
	accts, entries, version := e.snapshot(p)
	is, err := report.BuildIncomeSummary(accts, e.balances(entries, version, p))
	if err != nil {
		e.log.Error("income summary failed", zap.Error(err))
		return report.IncomeSummary{}, err
	}
	return is, nil
}
