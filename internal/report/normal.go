package report

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Side is the column an account's balance normally sits in.
type Side int

const (
	Debit Side = iota
	Credit
)

func (s Side) String() string {
	if s == Credit {
		return "credit"
	}
	return "debit"
}

// normalSides is the single table mapping root type to normal balance side.
// Every report derives its sign handling from it.
var normalSides = map[model.RootType]Side{
	model.RootAsset:     Debit,
	model.RootExpense:   Debit,
	model.RootLiability: Credit,
	model.RootEquity:    Credit,
	model.RootRevenue:   Credit,
}

// NormalSide returns the side on which accounts of t normally carry a balance.
func NormalSide(t model.RootType) Side {
	return normalSides[t]
}

// Natural converts a raw debit-positive balance into the account's natural
// sign: positive when the balance sits on its normal side.
func Natural(t model.RootType, raw decimal.Decimal) decimal.Decimal {
	if NormalSide(t) == Credit {
		return raw.Neg()
	}
	return raw
}

// clampZero returns max(0, d).
func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
