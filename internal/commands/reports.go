package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/balance"
	"github.com/cleared-dev/cleared-gl/internal/report"
)

func newBalancesCommand(dir *string) *cobra.Command {
	var from, to, prefix string
	var all bool

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show each account's balance (debit positive, credit negative)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var period balance.Period
			var err error
			if period.From, err = parseDate("from", from); err != nil {
				return err
			}
			if period.To, err = parseDate("to", to); err != nil {
				return err
			}

			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			b := p.engine.ComputeBalances(period)
			total := decimal.Zero
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tBALANCE")
			for _, a := range p.engine.ListAccounts(accounts.Filter{CodePrefix: prefix, SortByCode: true}) {
				amt := b.Get(a.ID)
				total = total.Add(amt)
				if amt.IsZero() && !all {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Code, a.Name, a.RootType, formatAmount(amt, p.cfg.Currency))
			}
			if prefix != "" {
				if period.From.IsZero() {
					// Cumulative: the engine's rollup also checks the
					// ledger against the chart.
					if total, err = p.engine.GroupBalance(prefix, period.To); err != nil {
						return err
					}
				}
				fmt.Fprintf(tw, "\tTotal %s\t\t%s\n", prefix, formatAmount(total, p.cfg.Currency))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only codes starting with prefix, with a rollup total")
	cmd.Flags().BoolVar(&all, "all", false, "include zero balances")
	return cmd
}

func newTrialBalanceCommand(dir *string) *cobra.Command {
	var asOf string
	var all bool

	cmd := &cobra.Command{
		Use:   "trial-balance",
		Short: "Show debit and credit columns for every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			tb, err := p.engine.TrialBalance(date)
			if err != nil {
				return err
			}

			cur := p.cfg.Currency
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CODE\tNAME\tDEBIT\tCREDIT")
			for _, row := range tb.Rows {
				if row.Debit.IsZero() && row.Credit.IsZero() && !all {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Account.Code, row.Account.Name,
					formatColumn(row.Debit, cur), formatColumn(row.Credit, cur))
			}
			fmt.Fprintf(tw, "\tTotal\t%s\t%s\n", formatAmount(tb.TotalDebit, cur), formatAmount(tb.TotalCredit, cur))
			if err := tw.Flush(); err != nil {
				return err
			}
			return printBalanced(cmd.OutOrStdout(), tb.IsBalanced, tb.Difference, cur)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "include entries up to this date YYYY-MM-DD")
	cmd.Flags().BoolVar(&all, "all", false, "include zero balances")
	return cmd
}

func newBalanceSheetCommand(dir *string) *cobra.Command {
	var asOf string
	var groups []string

	cmd := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Show assets, liabilities and equity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseDate("as-of", asOf)
			if err != nil {
				return err
			}
			var gs []report.Group
			for _, g := range groups {
				prefix, label, err := parseAssignment("group", g)
				if err != nil {
					return err
				}
				gs = append(gs, report.Group{Prefix: prefix, Label: label})
			}

			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			bs, err := p.engine.BalanceSheet(date, gs...)
			if err != nil {
				return err
			}

			cur := p.cfg.Currency
			tw := newTable(cmd.OutOrStdout())
			printSection(tw, "Assets", bs.Assets, bs.TotalAssets, bs.RawAssets, cur)
			printSection(tw, "Liabilities", bs.Liabilities, bs.TotalLiabilities, bs.RawLiabilities, cur)
			printSection(tw, "Equity", bs.Equity, bs.TotalEquity, bs.RawEquity, cur)
			if !bs.UnclosedEarnings.IsZero() {
				fmt.Fprintf(tw, "Unclosed earnings\t\t%s\n", formatAmount(bs.UnclosedEarnings, cur))
			}
			if len(bs.Groups) > 0 {
				fmt.Fprintln(tw, "\nGroups")
				for _, g := range bs.Groups {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Prefix, g.Label, formatAmount(g.Balance, cur))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			return printBalanced(cmd.OutOrStdout(), bs.IsBalanced, bs.Difference, cur)
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "include entries up to this date YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&groups, "group", nil, `prefix rollup, e.g. --group "1.1.1=Cash and equivalents"`)
	return cmd
}

func newIncomeCommand(dir *string) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Show revenue, expenses and net profit for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var period balance.Period
			var err error
			if period.From, err = parseDate("from", from); err != nil {
				return err
			}
			if period.To, err = parseDate("to", to); err != nil {
				return err
			}

			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			is, err := p.engine.IncomeSummary(period)
			if err != nil {
				return err
			}

			cur := p.cfg.Currency
			tw := newTable(cmd.OutOrStdout())
			printSection(tw, "Revenue", is.Revenue, is.RevenueTotal, is.RevenueTotal, cur)
			printSection(tw, "Expenses", is.Expenses, is.ExpenseTotal, is.ExpenseTotal, cur)
			fmt.Fprintf(tw, "Net profit\t\t%s\n", formatAmount(is.NetProfit, cur))
			if !is.RawNetProfit.Equal(is.NetProfit) {
				fmt.Fprintf(tw, "Net profit (unclamped)\t\t%s\n", formatAmount(is.RawNetProfit, cur))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	return cmd
}

// printSection writes one statement section. Accounts with a zero balance
// are left out. When raw differs from total, some account sits on its
// abnormal side and the raw figure is shown too.
func printSection(w io.Writer, title string, lines []report.Line, total, raw decimal.Decimal, cur string) {
	fmt.Fprintln(w, title)
	for _, l := range lines {
		if l.Amount.IsZero() {
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", l.Account.Code, l.Account.Name, formatAmount(l.Amount, cur))
	}
	fmt.Fprintf(w, "Total %s\t\t%s\n", title, formatAmount(total, cur))
	if !raw.Equal(total) {
		fmt.Fprintf(w, "Total %s (unclamped)\t\t%s\n", title, formatAmount(raw, cur))
	}
}

func printBalanced(w io.Writer, ok bool, diff decimal.Decimal, cur string) error {
	if ok {
		_, err := fmt.Fprintln(w, "Balanced")
		return err
	}
	_, err := fmt.Fprintf(w, "OUT OF BALANCE by %s\n", formatAmount(diff, cur))
	return err
}
