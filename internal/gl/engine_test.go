package gl

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/balance"
	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
	"github.com/cleared-dev/cleared-gl/internal/report"
	"github.com/cleared-dev/cleared-gl/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, what string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", what, want, got.String())
}

// fixture is the three-account chart from the worked scenarios.
type fixture struct {
	eng     *Engine
	cash    model.Account
	payable model.Account
	capital model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	eng, err := Open(ctx, store.NewMemory(nil, nil), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	f := &fixture{eng: eng}
	f.cash, err = eng.AddAccount(ctx, "1101", "Cash", model.RootAsset)
	require.NoError(t, err)
	f.payable, err = eng.AddAccount(ctx, "3101", "Payable", model.RootLiability)
	require.NoError(t, err)
	f.capital, err = eng.AddAccount(ctx, "4101", "Capital", model.RootEquity)
	require.NoError(t, err)
	return f
}

func (f *fixture) post(t *testing.T, d time.Time, desc string, pairs ...any) (model.JournalEntry, error) {
	t.Helper()
	var ls []model.Line
	for i := 0; i < len(pairs); i += 2 {
		ls = append(ls, model.Line{AccountID: pairs[i].(model.Account).ID, Amount: dec(pairs[i+1].(string))})
	}
	return f.eng.PostEntry(context.Background(), EntryInput{Date: d, Description: desc, Lines: ls})
}

func collect(eng *Engine, f journal.Filter) []model.JournalEntry {
	return slices.Collect(eng.ListEntries(f))
}

func TestScenario_OwnerInvests(t *testing.T) {
	f := newFixture(t)

	e, err := f.post(t, date(2025, 1, 5), "Owner invests cash", f.cash, "1000", f.capital, "-1000")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-001", e.ID)

	b := f.eng.ComputeBalances(balance.Period{})
	assert.Len(t, b, 2)
	assertDec(t, "1000", b.Get(f.cash.ID), "cash")
	assertDec(t, "-1000", b.Get(f.capital.ID), "capital")

	bs, err := f.eng.BalanceSheet(time.Time{})
	require.NoError(t, err)
	assertDec(t, "1000", bs.TotalAssets, "assets")
	assertDec(t, "0", bs.TotalLiabilities, "liabilities")
	assertDec(t, "1000", bs.TotalEquity, "equity")
	assert.True(t, bs.IsBalanced)
}

func TestScenario_UnbalancedRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.post(t, date(2025, 1, 5), "Owner invests cash", f.cash, "1000", f.capital, "-1000")
	require.NoError(t, err)

	_, err = f.post(t, date(2025, 1, 6), "bad", f.cash, "-200", f.payable, "-200")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnbalancedEntry)

	var ue *model.UnbalancedEntryError
	require.True(t, errors.As(err, &ue))
	assertDec(t, "-400", ue.Sum, "sum")
	assert.Equal(t, 1, f.eng.EntryCount())
}

func TestScenario_LiabilitySide(t *testing.T) {
	f := newFixture(t)
	_, err := f.post(t, date(2025, 1, 5), "Owner invests cash", f.cash, "1000", f.capital, "-1000")
	require.NoError(t, err)

	// Borrow 500: cash debited, payable credited.
	_, err = f.post(t, date(2025, 1, 10), "Carrier credit line", f.cash, "500", f.payable, "-500")
	require.NoError(t, err)
	// Repay 200: payable debited, cash credited.
	_, err = f.post(t, date(2025, 1, 20), "Repay carrier", f.cash, "-200", f.payable, "200")
	require.NoError(t, err)

	b := f.eng.ComputeBalances(balance.Period{})
	assertDec(t, "1300", b.Get(f.cash.ID), "cash")
	assertDec(t, "-300", b.Get(f.payable.ID), "payable")
	assert.True(t, b.Sum().IsZero())

	bs, err := f.eng.BalanceSheet(time.Time{})
	require.NoError(t, err)
	assertDec(t, "1300", bs.TotalAssets, "assets")
	assertDec(t, "300", bs.TotalLiabilities, "liabilities")
	assertDec(t, "1000", bs.TotalEquity, "equity")
	assert.True(t, bs.IsBalanced)

	tb, err := f.eng.TrialBalance(time.Time{})
	require.NoError(t, err)
	assertDec(t, "1300", tb.TotalDebit, "debit")
	assertDec(t, "1300", tb.TotalCredit, "credit")
	assert.True(t, tb.IsBalanced)

	// As of before the repayment.
	bs, err = f.eng.BalanceSheet(date(2025, 1, 15))
	require.NoError(t, err)
	assertDec(t, "1500", bs.TotalAssets, "assets as of 15th")
	assertDec(t, "500", bs.TotalLiabilities, "liabilities as of 15th")
}

func TestProperty_BalancesSumToZero(t *testing.T) {
	f := newFixture(t)
	amounts := []string{"1000", "0.01", "333.33", "12.5", "99999.99", "0.000000001"}
	for i, amt := range amounts {
		from, to := f.cash, f.capital
		if i%2 == 1 {
			from, to = f.payable, f.cash
		}
		_, err := f.post(t, date(2025, 1+i%12, 1+i), fmt.Sprintf("entry %d", i), from, amt, to, "-"+amt)
		require.NoError(t, err)
		assert.True(t, f.eng.ComputeBalances(balance.Period{}).Sum().IsZero(), "after %d posts", i+1)
	}
}

func TestProperty_SeedingIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil, nil)
	eng, err := Open(ctx, mem, WithChart(accounts.ChartMinimal))
	require.NoError(t, err)

	seeded, err := eng.InitializeIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)
	once := eng.ListAccounts(accounts.Filter{})

	seeded, err = eng.InitializeIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, once, eng.ListAccounts(accounts.Filter{}))

	persisted, err := mem.LoadAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, once, persisted)

	// Reopening a seeded store does not reseed.
	eng2, err := Open(ctx, mem, WithChart(accounts.ChartMinimal))
	require.NoError(t, err)
	seeded, err = eng2.InitializeIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)
	assert.Equal(t, once, eng2.ListAccounts(accounts.Filter{}))
}

func TestProperty_RejectionIsAtomic(t *testing.T) {
	f := newFixture(t)
	_, err := f.post(t, date(2025, 1, 5), "Owner invests cash", f.cash, "1000", f.capital, "-1000")
	require.NoError(t, err)

	beforeEntries := collect(f.eng, journal.Filter{})
	beforeBalances := f.eng.ComputeBalances(balance.Period{})

	_, err = f.post(t, date(2025, 1, 6), "off by five cents", f.cash, "10.05", f.capital, "-10")
	assert.ErrorIs(t, err, model.ErrUnbalancedEntry)

	_, err = f.eng.PostEntry(context.Background(), EntryInput{
		Date:  date(2025, 1, 6),
		Lines: []model.Line{{AccountID: f.cash.ID, Amount: dec("5")}, {AccountID: "ghost", Amount: dec("-5")}},
	})
	assert.ErrorIs(t, err, model.ErrUnknownAccount)

	_, err = f.eng.PostEntry(context.Background(), EntryInput{Date: date(2025, 1, 6)})
	assert.ErrorIs(t, err, model.ErrEmptyEntry)

	_, err = f.post(t, time.Time{}, "no date", f.cash, "1", f.capital, "-1")
	assert.ErrorIs(t, err, model.ErrInvalidEntry)

	assert.Equal(t, beforeEntries, collect(f.eng, journal.Filter{}))
	assert.Equal(t, beforeBalances, f.eng.ComputeBalances(balance.Period{}))

	// The next successful post still gets the next sequence number.
	e, err := f.post(t, date(2025, 1, 7), "ok", f.cash, "1", f.capital, "-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-002", e.ID)
}

func TestProperty_PrefixRollupAdditivity(t *testing.T) {
	ctx := context.Background()
	eng, err := Open(ctx, store.NewMemory(nil, nil))
	require.NoError(t, err)
	_, err = eng.InitializeIfEmpty(ctx)
	require.NoError(t, err)

	byCode := func(code string) string {
		a, err := eng.AccountByCode(code)
		require.NoError(t, err)
		return a.ID
	}
	post := func(d time.Time, pairs ...string) {
		var ls []model.Line
		for i := 0; i < len(pairs); i += 2 {
			ls = append(ls, model.Line{AccountID: byCode(pairs[i]), Amount: dec(pairs[i+1])})
		}
		_, err := eng.PostEntry(ctx, EntryInput{Date: d, Lines: ls})
		require.NoError(t, err)
	}

	post(date(2025, 1, 2), "1.1.1.2", "50000", "3.1", "-50000")
	post(date(2025, 1, 9), "1.1.1.1", "500", "1.1.1.2", "-500")
	post(date(2025, 2, 3), "1.1.2.1", "8200", "4.1", "-8200")
	post(date(2025, 2, 17), "5.1", "5100", "2.1.1", "-5100")
	post(date(2025, 3, 1), "1.1.1.2", "8200", "1.1.2.1", "-8200")
	post(date(2025, 3, 4), "2.1.1", "5100", "1.1.1.3", "-5100")

	all := slices.Collect(eng.ListEntries(journal.Filter{}))
	for _, prefix := range []string{"", "1", "1.1", "1.1.1", "1.1.2", "2", "2.1.1", "3", "4", "5", "9"} {
		got, err := eng.GroupBalance(prefix, time.Time{})
		require.NoError(t, err)

		inGroup := make(map[string]bool)
		for _, a := range eng.ListAccounts(accounts.Filter{CodePrefix: prefix}) {
			inGroup[a.ID] = true
		}
		direct := balance.SumLines(journal.Seq(all), func(l model.Line) bool { return inGroup[l.AccountID] })
		assert.True(t, direct.Equal(got), "prefix %q: group %s, direct %s", prefix, got, direct)
	}

	cashGroup, err := eng.GroupBalance("1.1.1", time.Time{})
	require.NoError(t, err)
	assertDec(t, "53100", cashGroup, "cash and equivalents")

	bs, err := eng.BalanceSheet(time.Time{}, report.Group{Prefix: "1.1.1", Label: "Cash and equivalents"})
	require.NoError(t, err)
	require.Len(t, bs.Groups, 1)
	assertDec(t, "53100", bs.Groups[0].Balance, "group on sheet")
	assertDec(t, "3100", bs.UnclosedEarnings, "unclosed earnings")

	is, err := eng.IncomeSummary(balance.Period{From: date(2025, 2, 1), To: date(2025, 2, 28)})
	require.NoError(t, err)
	assertDec(t, "8200", is.RevenueTotal, "revenue")
	assertDec(t, "5100", is.ExpenseTotal, "expenses")
	assertDec(t, "3100", is.NetProfit, "net profit")

	is, err = eng.IncomeSummary(balance.Period{From: date(2025, 3, 1)})
	require.NoError(t, err)
	assert.True(t, is.NetProfit.IsZero())
}

func TestListEntries_OrderAndRestart(t *testing.T) {
	f := newFixture(t)
	_, err := f.post(t, date(2025, 3, 1), "march", f.cash, "1", f.capital, "-1")
	require.NoError(t, err)
	_, err = f.post(t, date(2025, 1, 1), "january", f.cash, "1", f.capital, "-1")
	require.NoError(t, err)
	_, err = f.post(t, date(2025, 3, 1), "march again", f.cash, "1", f.payable, "-1")
	require.NoError(t, err)

	seq := f.eng.ListEntries(journal.Filter{})
	var descs []string
	for e := range seq {
		descs = append(descs, e.Description)
	}
	assert.Equal(t, []string{"january", "march", "march again"}, descs)
	assert.Len(t, slices.Collect(seq), 3, "sequence is restartable")

	payable := collect(f.eng, journal.Filter{AccountID: f.payable.ID})
	require.Len(t, payable, 1)
	assert.Equal(t, "2025-03-002", payable[0].ID)

	got, err := f.eng.GetEntry("2025-01-001")
	require.NoError(t, err)
	assert.Equal(t, "january", got.Description)

	_, err = f.eng.GetEntry("2030-01-001")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostEntry_CopiesCallerLines(t *testing.T) {
	f := newFixture(t)
	ls := []model.Line{{AccountID: f.cash.ID, Amount: dec("10")}, {AccountID: f.capital.ID, Amount: dec("-10")}}
	_, err := f.eng.PostEntry(context.Background(), EntryInput{Date: date(2025, 1, 1), Lines: ls})
	require.NoError(t, err)

	ls[0].Amount = dec("9999")
	assertDec(t, "10", f.eng.ComputeBalances(balance.Period{}).Get(f.cash.ID), "cash")
}

func TestAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.AddAccount(ctx, "1101", "Other cash", model.RootAsset)
	assert.ErrorIs(t, err, model.ErrDuplicateCode)

	got, err := f.eng.GetAccount(f.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, f.cash, got)

	_, err = f.eng.GetAccount("missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assets := f.eng.ListAccounts(accounts.Filter{RootType: model.RootAsset})
	assert.Equal(t, []model.Account{f.cash}, assets)
}

func TestAccountLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Unused accounts may be reclassified.
	moved, err := f.eng.ReclassifyAccount(ctx, f.payable.ID, "2101", model.RootLiability)
	require.NoError(t, err)
	assert.Equal(t, "2101", moved.Code)

	_, err = f.eng.ReclassifyAccount(ctx, f.payable.ID, "1101", model.RootLiability)
	assert.ErrorIs(t, err, model.ErrDuplicateCode)

	_, err = f.post(t, date(2025, 1, 5), "invest", f.cash, "1000", f.capital, "-1000")
	require.NoError(t, err)

	_, err = f.eng.ReclassifyAccount(ctx, f.cash.ID, "1199", model.RootExpense)
	assert.ErrorIs(t, err, model.ErrAccountInUse)

	renamed, err := f.eng.RenameAccount(ctx, f.cash.ID, "Cash on hand")
	require.NoError(t, err)
	assert.Equal(t, "Cash on hand", renamed.Name)
	assert.Equal(t, "1101", renamed.Code)

	_, err = f.eng.RenameAccount(ctx, f.cash.ID, "  ")
	assert.ErrorIs(t, err, model.ErrInvalidAccount)
	_, err = f.eng.RenameAccount(ctx, "missing", "x")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

// failingStore wraps a Memory store and fails writes on demand.
type failingStore struct {
	*store.Memory
	failAppend bool
	failSave   bool
}

func (s *failingStore) AppendEntry(ctx context.Context, e model.JournalEntry) error {
	if s.failAppend {
		return errors.New("disk full")
	}
	return s.Memory.AppendEntry(ctx, e)
}

func (s *failingStore) SaveAccounts(ctx context.Context, a []model.Account) error {
	if s.failSave {
		return errors.New("disk full")
	}
	return s.Memory.SaveAccounts(ctx, a)
}

func TestPostEntry_StoreFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: store.NewMemory(nil, nil)}
	eng, err := Open(ctx, fs, WithChart(accounts.ChartMinimal))
	require.NoError(t, err)
	_, err = eng.InitializeIfEmpty(ctx)
	require.NoError(t, err)

	cash, err := eng.AccountByCode("1101")
	require.NoError(t, err)
	capital, err := eng.AccountByCode("4101")
	require.NoError(t, err)
	in := EntryInput{Date: date(2025, 1, 1), Lines: []model.Line{
		{AccountID: cash.ID, Amount: dec("10")},
		{AccountID: capital.ID, Amount: dec("-10")},
	}}

	fs.failAppend = true
	_, err = eng.PostEntry(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, eng.EntryCount())
	assert.Empty(t, eng.ComputeBalances(balance.Period{}))

	fs.failAppend = false
	e, err := eng.PostEntry(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-001", e.ID)

	fs.failSave = true
	_, err = eng.AddAccount(ctx, "7777", "New", model.RootAsset)
	require.Error(t, err)
	_, err = eng.AccountByCode("7777")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInitializeIfEmpty_StoreFailure(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Memory: store.NewMemory(nil, nil), failSave: true}
	eng, err := Open(ctx, fs)
	require.NoError(t, err)

	_, err = eng.InitializeIfEmpty(ctx)
	require.Error(t, err)
	assert.Empty(t, eng.ListAccounts(accounts.Filter{}))
}

func TestInconsistentLedger(t *testing.T) {
	ctx := context.Background()
	cash := model.Account{ID: "cash", Code: "1101", Name: "Cash", RootType: model.RootAsset}
	corrupt := store.NewMemory([]model.Account{cash}, []model.JournalEntry{{
		ID:   "2025-01-001",
		Date: date(2025, 1, 1),
		Lines: []model.Line{
			{AccountID: "cash", Amount: dec("10")},
			{AccountID: "deleted", Amount: dec("-10")},
		},
	}})
	eng, err := Open(ctx, corrupt)
	require.NoError(t, err)

	_, err = eng.TrialBalance(time.Time{})
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)
	_, err = eng.BalanceSheet(time.Time{})
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)
	_, err = eng.IncomeSummary(balance.Period{})
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)
	_, err = eng.GroupBalance("1", time.Time{})
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)

	// Loaded IDs are not reused.
	e, err := eng.PostEntry(ctx, EntryInput{Date: date(2025, 1, 2), Lines: []model.Line{
		{AccountID: "cash", Amount: dec("1")}, {AccountID: "cash", Amount: dec("-1")},
	}})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-002", e.ID)
}

func TestReopenFromFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	eng, err := Open(ctx, store.NewFile(dir), WithChart(accounts.ChartMinimal))
	require.NoError(t, err)
	_, err = eng.InitializeIfEmpty(ctx)
	require.NoError(t, err)
	cash, err := eng.AccountByCode("1101")
	require.NoError(t, err)
	capital, err := eng.AccountByCode("4101")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		_, err := eng.PostEntry(ctx, EntryInput{Date: date(2025, i, 1), Description: "invest", Lines: []model.Line{
			{AccountID: cash.ID, Amount: dec("100")},
			{AccountID: capital.ID, Amount: dec("-100")},
		}})
		require.NoError(t, err)
	}

	reopened, err := Open(ctx, store.NewFile(dir))
	require.NoError(t, err)
	assert.Equal(t, eng.ListAccounts(accounts.Filter{}), reopened.ListAccounts(accounts.Filter{}))
	assert.Equal(t, 3, reopened.EntryCount())
	assertDec(t, "300", reopened.ComputeBalances(balance.Period{}).Get(cash.ID), "cash after reopen")

	e, err := reopened.PostEntry(ctx, EntryInput{Date: date(2025, 2, 10), Lines: []model.Line{
		{AccountID: cash.ID, Amount: dec("1")},
		{AccountID: capital.ID, Amount: dec("-1")},
	}})
	require.NoError(t, err)
	assert.Equal(t, "2025-02-002", e.ID)
}

func TestConcurrentPostsAndReads(t *testing.T) {
	f := newFixture(t)
	const writers, perWriter = 8, 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := f.post(t, date(2025, 1+w%12, 1+i), "concurrent", f.cash, "1.5", f.capital, "-1.5")
				assert.NoError(t, err)
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.True(t, f.eng.ComputeBalances(balance.Period{}).Sum().IsZero())
				tb, err := f.eng.TrialBalance(time.Time{})
				assert.NoError(t, err)
				assert.True(t, tb.IsBalanced)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, f.eng.EntryCount())
	ids := make(map[string]bool)
	for e := range f.eng.ListEntries(journal.Filter{}) {
		assert.False(t, ids[e.ID], "duplicate id %s", e.ID)
		ids[e.ID] = true
	}
	assertDec(t, fmt.Sprintf("%d", writers*perWriter*3/2), f.eng.ComputeBalances(balance.Period{}).Get(f.cash.ID), "cash")
}
