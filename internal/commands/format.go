package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatAmount renders d in currency, e.g. "$1,300.00". Unknown currencies
// and amounts too large for int64 minor units fall back to a plain
// two-decimal number. Sub-minor-unit precision is
// rounded away for display only.
func formatAmount(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return d.StringFixed(2)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return d.StringFixed(2)
	}
	return money.New(minor.IntPart(), cur.Code).Display()
}

// formatColumn renders d, or an empty cell when it is zero.
func formatColumn(d decimal.Decimal, currency string) string {
	if d.IsZero() {
		return ""
	}
	return formatAmount(d, currency)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// parseDate parses a YYYY-MM-DD flag value. Empty means the zero time.
func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

// parseAssignment splits "key=value".
func parseAssignment(flag, s string) (string, string, error) {
	k, v, ok := strings.Cut(s, "=")
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if !ok || k == "" || v == "" {
		return "", "", fmt.Errorf("--%s: expected key=value, got %q", flag, s)
	}
	return k, v, nil
}
