package model

import (
	"fmt"
	"strings"
)

// RootType classifies accounts in the chart of accounts.
type RootType string

const (
	RootAsset     RootType = "ASSET"
	RootLiability RootType = "LIABILITY"
	RootEquity    RootType = "EQUITY"
	RootRevenue   RootType = "REVENUE"
	RootExpense   RootType = "EXPENSE"
)

// RootTypes lists every root type in statement order.
var RootTypes = []RootType{RootAsset, RootLiability, RootEquity, RootRevenue, RootExpense}

// Valid reports whether t is one of the five root types.
func (t RootType) Valid() bool {
	switch t {
	case RootAsset, RootLiability, RootEquity, RootRevenue, RootExpense:
		return true
	}
	return false
}

// ParseRootType accepts any casing ("asset", "Asset", "ASSET").
func ParseRootType(s string) (RootType, error) {
	t := RootType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown root type %q", s)
	}
	return t, nil
}

// Account is one node of the chart of accounts.
type Account struct {
	ID       string
	Code     string // dotted, e.g. "1.1.1.2"
	Name     string
	RootType RootType
}

// HasPrefix reports whether the account belongs to the rollup group for prefix.
// An empty prefix matches every account.
func (a Account) HasPrefix(prefix string) bool {
	return strings.HasPrefix(a.Code, prefix)
}
