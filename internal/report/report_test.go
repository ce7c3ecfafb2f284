package report

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cleared-gl/internal/balance"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

var (
	cash    = model.Account{ID: "cash", Code: "1101", Name: "Cash", RootType: model.RootAsset}
	bank    = model.Account{ID: "bank", Code: "1102", Name: "Bank", RootType: model.RootAsset}
	payable = model.Account{ID: "payable", Code: "3101", Name: "Payable", RootType: model.RootLiability}
	capital = model.Account{ID: "capital", Code: "4101", Name: "Capital", RootType: model.RootEquity}
	revenue = model.Account{ID: "revenue", Code: "5101", Name: "Freight Revenue", RootType: model.RootRevenue}
	expense = model.Account{ID: "expense", Code: "6101", Name: "Operating Expenses", RootType: model.RootExpense}

	chart = []model.Account{cash, bank, payable, capital, revenue, expense}
)

func TestNormalSide(t *testing.T) {
	assert.Equal(t, Debit, NormalSide(model.RootAsset))
	assert.Equal(t, Debit, NormalSide(model.RootExpense))
	assert.Equal(t, Credit, NormalSide(model.RootLiability))
	assert.Equal(t, Credit, NormalSide(model.RootEquity))
	assert.Equal(t, Credit, NormalSide(model.RootRevenue))
	assert.Equal(t, "credit", Credit.String())

	assertDec(t, "-5", Natural(model.RootAsset, dec("-5")))
	assertDec(t, "5", Natural(model.RootLiability, dec("-5")))
}

func TestTrialBalance(t *testing.T) {
	b := balance.Balances{"cash": dec("1300"), "payable": dec("-300"), "capital": dec("-1000")}

	tb, err := BuildTrialBalance(chart, b)
	require.NoError(t, err)
	require.Len(t, tb.Rows, len(chart))

	assertDec(t, "1300", tb.Rows[0].Debit)
	assertDec(t, "0", tb.Rows[0].Credit)
	assertDec(t, "0", tb.Rows[2].Debit)
	assertDec(t, "300", tb.Rows[2].Credit)
	assertDec(t, "1300", tb.TotalDebit)
	assertDec(t, "1300", tb.TotalCredit)
	assert.True(t, tb.IsBalanced)
	assert.True(t, tb.Difference.IsZero())
}

func TestTrialBalance_ReportsImbalance(t *testing.T) {
	b := balance.Balances{"cash": dec("100"), "capital": dec("-99.99")}
	tb, err := BuildTrialBalance(chart, b)
	require.NoError(t, err)
	assert.False(t, tb.IsBalanced)
	assertDec(t, "0.01", tb.Difference)

	b = balance.Balances{"cash": dec("100"), "capital": dec("-99.995")}
	tb, err = BuildTrialBalance(chart, b)
	require.NoError(t, err)
	assert.True(t, tb.IsBalanced, "half a cent is within tolerance")
}

func TestBalanceSheet(t *testing.T) {
	b := balance.Balances{"cash": dec("1000"), "capital": dec("-1000")}

	bs, err := BuildBalanceSheet(chart, b)
	require.NoError(t, err)
	assertDec(t, "1000", bs.TotalAssets)
	assertDec(t, "0", bs.TotalLiabilities)
	assertDec(t, "1000", bs.TotalEquity)
	assert.True(t, bs.IsBalanced)
	assert.True(t, bs.Difference.Abs().LessThan(Tolerance))
	assert.Len(t, bs.Assets, 2)
	assert.Len(t, bs.Liabilities, 1)
	assert.Len(t, bs.Equity, 1)
}

func TestBalanceSheet_RawExposesClampedNegatives(t *testing.T) {
	// Bank overdrawn by 50: clamped total hides it, raw total does not.
	b := balance.Balances{"cash": dec("1000"), "bank": dec("-50"), "capital": dec("-950")}

	bs, err := BuildBalanceSheet(chart, b)
	require.NoError(t, err)
	assertDec(t, "1000", bs.TotalAssets)
	assertDec(t, "950", bs.RawAssets)
	assertDec(t, "950", bs.TotalEquity)
	assert.False(t, bs.IsBalanced)
	assertDec(t, "50", bs.Difference)
}

func TestBalanceSheet_UnclosedEarnings(t *testing.T) {
	b := balance.Balances{
		"cash":    dec("1250"),
		"capital": dec("-1000"),
		"revenue": dec("-400"),
		"expense": dec("150"),
	}
	bs, err := BuildBalanceSheet(chart, b)
	require.NoError(t, err)
	assertDec(t, "250", bs.UnclosedEarnings)
	assertDec(t, "250", bs.Difference)
	assert.False(t, bs.IsBalanced)
}

func TestBalanceSheet_Groups(t *testing.T) {
	b := balance.Balances{"cash": dec("700"), "bank": dec("300"), "capital": dec("-1000")}
	bs, err := BuildBalanceSheet(chart, b,
		Group{Prefix: "11", Label: "Cash and equivalents"},
		Group{Prefix: "4", Label: "Equity"},
		Group{Prefix: "9", Label: "Nothing"},
	)
	require.NoError(t, err)
	require.Len(t, bs.Groups, 3)
	assert.Equal(t, "Cash and equivalents", bs.Groups[0].Label)
	assertDec(t, "1000", bs.Groups[0].Balance)
	assertDec(t, "-1000", bs.Groups[1].Balance)
	assertDec(t, "0", bs.Groups[2].Balance)
}

func TestGroupBalance(t *testing.T) {
	b := balance.Balances{"cash": dec("700"), "bank": dec("300"), "payable": dec("-1000")}
	got, err := GroupBalance(chart, b, "110")
	require.NoError(t, err)
	assertDec(t, "1000", got)

	got, err = GroupBalance(chart, b, "")
	require.NoError(t, err)
	assertDec(t, "0", got)
}

func TestIncomeSummary(t *testing.T) {
	b := balance.Balances{"revenue": dec("-400"), "expense": dec("150")}
	is, err := BuildIncomeSummary(chart, b)
	require.NoError(t, err)
	assertDec(t, "400", is.RevenueTotal)
	assertDec(t, "150", is.ExpenseTotal)
	assertDec(t, "250", is.NetProfit)
	assertDec(t, "250", is.RawNetProfit)
	assert.Len(t, is.Revenue, 1)
	assert.Len(t, is.Expenses, 1)
}

func TestIncomeSummary_LossAndContraBalances(t *testing.T) {
	// Refund pushes revenue to a debit balance; the clamped total drops it.
	b := balance.Balances{"revenue": dec("30"), "expense": dec("100")}
	is, err := BuildIncomeSummary(chart, b)
	require.NoError(t, err)
	assertDec(t, "0", is.RevenueTotal)
	assertDec(t, "100", is.ExpenseTotal)
	assertDec(t, "-100", is.NetProfit)
	assertDec(t, "-130", is.RawNetProfit)
}

func TestInconsistentLedger(t *testing.T) {
	b := balance.Balances{"cash": dec("10"), "ghost": dec("-10")}

	_, err := BuildTrialBalance(chart, b)
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)

	_, err = BuildBalanceSheet(chart, b)
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)

	_, err = BuildIncomeSummary(chart, b)
	assert.ErrorIs(t, err, model.ErrInconsistentLedger)

	_, err = GroupBalance(chart, b, "1")
	var ile *model.InconsistentLedgerError
	require.True(t, errors.As(err, &ile))
	assert.Equal(t, []string{"ghost"}, ile.AccountIDs)
}
