package journal

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Epsilon is the largest absolute line sum still accepted as balanced.
var Epsilon = decimal.New(1, -9)

// AccountChecker tests whether an account ID exists in the chart of accounts.
type AccountChecker interface {
	Exists(id string) bool
}

// Validate checks the lines of a prospective entry: at least one line, every
// account known, and a sum within Epsilon of zero.
func Validate(lines []model.Line, accounts AccountChecker) error {
	if len(lines) == 0 {
		return model.ErrEmptyEntry
	}

	sum := decimal.Zero
	for i, l := range lines {
		if !accounts.Exists(l.AccountID) {
			return &model.UnknownAccountError{AccountID: l.AccountID, Line: i}
		}
		sum = sum.Add(l.Amount)
	}

	if sum.Abs().GreaterThan(Epsilon) {
		return &model.UnbalancedEntryError{Sum: sum}
	}
	return nil
}
