package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/audit"
	"github.com/cleared-dev/cleared-gl/internal/gl"
	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

type postOptions struct {
	date        string
	description string
	reference   string
	lines       []string
	debits      []string
	credits     []string
}

func newPostCommand(dir *string) *cobra.Command {
	var opts postOptions

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced journal entry",
		Long: `Post a balanced journal entry.

Lines are account=amount pairs, where account is a code or ID. --line takes
a signed amount (debit positive, credit negative); --debit and --credit take
unsigned amounts.

  cleared-gl post -m "Owner invests cash" --debit 1101=1000 --credit 4101=1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, *dir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.description, "description", "m", "", "description")
	cmd.Flags().StringVar(&opts.reference, "ref", "", "external reference")
	cmd.Flags().StringArrayVar(&opts.lines, "line", nil, "account=signed amount")
	cmd.Flags().StringArrayVar(&opts.debits, "debit", nil, "account=amount to debit")
	cmd.Flags().StringArrayVar(&opts.credits, "credit", nil, "account=amount to credit")

	return cmd
}

func runPost(cmd *cobra.Command, dir string, opts postOptions) error {
	date, err := parseDate("date", opts.date)
	if err != nil {
		return err
	}
	if date.IsZero() {
		date = time.Now()
	}

	p, err := openProject(cmd.Context(), dir)
	if err != nil {
		return err
	}
	defer p.Close()

	var lines []model.Line
	add := func(flag string, values []string, sign int64) error {
		for _, v := range values {
			ref, amt, err := parseAssignment(flag, v)
			if err != nil {
				return err
			}
			a, err := p.account(ref)
			if err != nil {
				return fmt.Errorf("--%s %s: %w", flag, v, err)
			}
			d, err := decimal.NewFromString(amt)
			if err != nil {
				return fmt.Errorf("--%s %s: invalid amount: %w", flag, v, err)
			}
			if sign != 0 {
				if d.IsNegative() {
					return fmt.Errorf("--%s %s: amount must not be negative", flag, v)
				}
				d = d.Mul(decimal.NewFromInt(sign))
			}
			lines = append(lines, model.Line{AccountID: a.ID, Amount: d})
		}
		return nil
	}
	if err := add("line", opts.lines, 0); err != nil {
		return err
	}
	if err := add("debit", opts.debits, 1); err != nil {
		return err
	}
	if err := add("credit", opts.credits, -1); err != nil {
		return err
	}

	entry, err := p.engine.PostEntry(cmd.Context(), gl.EntryInput{
		Date:        date,
		Description: opts.description,
		Reference:   opts.reference,
		Lines:       lines,
	})
	if err != nil {
		return err
	}

	if err := p.record(cmd.Context(), audit.ActionPost, entry.ID, entry.Description,
		fmt.Sprintf("post: %s %s", entry.ID, entry.Description)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", entry.ID)
	return nil
}

func newEntriesCommand(dir *string) *cobra.Command {
	var from, to, account string

	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List journal entries in date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f journal.Filter
			var err error
			if f.From, err = parseDate("from", from); err != nil {
				return err
			}
			if f.To, err = parseDate("to", to); err != nil {
				return err
			}

			p, err := openProject(cmd.Context(), *dir)
			if err != nil {
				return err
			}
			defer p.Close()

			if account != "" {
				a, err := p.account(account)
				if err != nil {
					return err
				}
				f.AccountID = a.ID
			}

			codes := make(map[string]string)
			for _, a := range p.engine.ListAccounts(accounts.Filter{}) {
				codes[a.ID] = a.Code
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ENTRY\tDATE\tACCOUNT\tDEBIT\tCREDIT\tDESCRIPTION")
			for e := range p.engine.ListEntries(f) {
				desc := e.Description
				if e.Reference != "" {
					desc = strings.TrimSpace(desc + " [" + e.Reference + "]")
				}
				for i, l := range e.Lines {
					code, ok := codes[l.AccountID]
					if !ok {
						code = l.AccountID
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						e.ID, e.Date.Format(time.DateOnly), code,
						formatColumn(decimal.Max(l.Amount, decimal.Zero), p.cfg.Currency),
						formatColumn(decimal.Max(l.Amount.Neg(), decimal.Zero), p.cfg.Currency),
						desc)
					if i == 0 {
						desc = ""
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&account, "account", "", "only entries touching this account code")
	return cmd
}
