// Package report turns raw per-account balances into trial balance, balance
// sheet and income views. Reports never fail because the books do not
// balance; an imbalance is reported through IsBalanced and Difference.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/balance"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Tolerance is the two-decimal currency epsilon used for balance checks.
var Tolerance = decimal.New(1, -2)

func withinTolerance(d decimal.Decimal) bool {
	return d.Abs().LessThan(Tolerance)
}

// checkConsistency fails when a balance belongs to an account the registry
// does not know. A partial total would be silently wrong.
func checkConsistency(accounts []model.Account, balances balance.Balances) error {
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}
	var missing []string
	for _, id := range balances.Accounts() {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &model.InconsistentLedgerError{AccountIDs: missing}
	}
	return nil
}

// TrialBalanceRow is one account in a trial balance.
type TrialBalanceRow struct {
	Account model.Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// TrialBalance lists every account's debit or credit balance.
type TrialBalance struct {
	Rows        []TrialBalanceRow
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal // TotalDebit - TotalCredit
	IsBalanced  bool
}

// BuildTrialBalance produces one row per account, in the order given.
func BuildTrialBalance(accounts []model.Account, balances balance.Balances) (TrialBalance, error) {
	if err := checkConsistency(accounts, balances); err != nil {
		return TrialBalance{}, err
	}

	tb := TrialBalance{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range accounts {
		b := balances.Get(a.ID)
		row := TrialBalanceRow{
			Account: a,
			Debit:   clampZero(b),
			Credit:  clampZero(b.Neg()),
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.IsBalanced = withinTolerance(tb.Difference)
	return tb, nil
}

// Line is an account with its balance in natural sign.
type Line struct {
	Account model.Account
	Amount  decimal.Decimal
}

// Group is a prefix rollup requested on a balance sheet, e.g.
// {Prefix: "1.1.1", Label: "Cash and equivalents"}.
type Group struct {
	Prefix string
	Label  string
}

// GroupTotal is the raw (debit-positive) sum of a Group.
type GroupTotal struct {
	Group
	Balance decimal.Decimal
}

// BalanceSheet asserts Assets = Liabilities + Equity.
//
// The Total fields follow the established presentation: each account
// contributes only when it sits on its normal side. The Raw fields sum every
// account in natural sign so a negative balance hidden by the clamp shows up
// as a gap between the two.
type BalanceSheet struct {
	Assets      []Line
	Liabilities []Line
	Equity      []Line
	Groups      []GroupTotal

	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal

	RawAssets      decimal.Decimal
	RawLiabilities decimal.Decimal
	RawEquity      decimal.Decimal

	// UnclosedEarnings is revenue less expenses not yet closed into equity.
	UnclosedEarnings decimal.Decimal

	Difference decimal.Decimal // TotalAssets - (TotalLiabilities + TotalEquity)
	IsBalanced bool
}

// BuildBalanceSheet aggregates asset, liability and equity accounts.
func BuildBalanceSheet(accounts []model.Account, balances balance.Balances, groups ...Group) (BalanceSheet, error) {
	if err := checkConsistency(accounts, balances); err != nil {
		return BalanceSheet{}, err
	}

	bs := BalanceSheet{
		TotalAssets: decimal.Zero, TotalLiabilities: decimal.Zero, TotalEquity: decimal.Zero,
		RawAssets: decimal.Zero, RawLiabilities: decimal.Zero, RawEquity: decimal.Zero,
		UnclosedEarnings: decimal.Zero,
	}
	for _, a := range accounts {
		natural := Natural(a.RootType, balances.Get(a.ID))
		line := Line{Account: a, Amount: natural}
		switch a.RootType {
		case model.RootAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(clampZero(natural))
			bs.RawAssets = bs.RawAssets.Add(natural)
		case model.RootLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(clampZero(natural))
			bs.RawLiabilities = bs.RawLiabilities.Add(natural)
		case model.RootEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(clampZero(natural))
			bs.RawEquity = bs.RawEquity.Add(natural)
		case model.RootRevenue:
			bs.UnclosedEarnings = bs.UnclosedEarnings.Add(natural)
		case model.RootExpense:
			bs.UnclosedEarnings = bs.UnclosedEarnings.Sub(natural)
		}
	}

	for _, g := range groups {
		bs.Groups = append(bs.Groups, GroupTotal{Group: g, Balance: sumPrefix(accounts, balances, g.Prefix)})
	}

	bs.Difference = bs.TotalAssets.Sub(bs.TotalLiabilities.Add(bs.TotalEquity))
	bs.IsBalanced = withinTolerance(bs.Difference)
	return bs, nil
}

// GroupBalance returns the raw sum of every account whose code starts with prefix.
func GroupBalance(accounts []model.Account, balances balance.Balances, prefix string) (decimal.Decimal, error) {
	if err := checkConsistency(accounts, balances); err != nil {
		return decimal.Zero, err
	}
	return sumPrefix(accounts, balances, prefix), nil
}

func sumPrefix(accounts []model.Account, balances balance.Balances, prefix string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.HasPrefix(prefix) {
			total = total.Add(balances.Get(a.ID))
		}
	}
	return total
}

// IncomeSummary reports revenue, expenses and profit over a period.
type IncomeSummary struct {
	Revenue  []Line
	Expenses []Line

	RevenueTotal decimal.Decimal
	ExpenseTotal decimal.Decimal
	NetProfit    decimal.Decimal // RevenueTotal - ExpenseTotal; negative is a loss

	// RawNetProfit uses unclamped per-account balances.
	RawNetProfit decimal.Decimal
}

// BuildIncomeSummary aggregates revenue and expense accounts. balances should
// already be restricted to the period of interest.
func BuildIncomeSummary(accounts []model.Account, balances balance.Balances) (IncomeSummary, error) {
	if err := checkConsistency(accounts, balances); err != nil {
		return IncomeSummary{}, err
	}

	is := IncomeSummary{RevenueTotal: decimal.Zero, ExpenseTotal: decimal.Zero, RawNetProfit: decimal.Zero}
	for _, a := range accounts {
		natural := Natural(a.RootType, balances.Get(a.ID))
		switch a.RootType {
		case model.RootRevenue:
			is.Revenue = append(is.Revenue, Line{Account: a, Amount: natural})
			is.RevenueTotal = is.RevenueTotal.Add(clampZero(natural))
			is.RawNetProfit = is.RawNetProfit.Add(natural)
		case model.RootExpense:
			is.Expenses = append(is.Expenses, Line{Account: a, Amount: natural})
			is.ExpenseTotal = is.ExpenseTotal.Add(clampZero(natural))
			is.RawNetProfit = is.RawNetProfit.Sub(natural)
		}
	}
	is.NetProfit = clampZero(is.RevenueTotal).Sub(clampZero(is.ExpenseTotal))
	return is, nil
}
