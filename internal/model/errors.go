package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateCode      = errors.New("duplicate account code")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnbalancedEntry    = errors.New("unbalanced entry")
	ErrNotFound           = errors.New("not found")
	ErrInconsistentLedger = errors.New("inconsistent ledger")
	ErrEmptyEntry         = errors.New("entry has no lines")
	ErrInvalidEntry       = errors.New("invalid entry")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrAccountInUse       = errors.New("account is referenced by posted entries")
)

// DuplicateCodeError is returned when an account code is already registered.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("account code %q already exists", e.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicateCode }

// UnknownAccountError is returned when a journal line references an account
// that the registry cannot resolve.
type UnknownAccountError struct {
	AccountID string
	Line      int // zero-based line index
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("line %d: unknown account %q", e.Line, e.AccountID)
}

func (e *UnknownAccountError) Unwrap() error { return ErrUnknownAccount }

// UnbalancedEntryError is returned when the lines of an entry do not sum to zero.
type UnbalancedEntryError struct {
	Sum decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("lines sum to %s, want 0", e.Sum.String())
}

func (e *UnbalancedEntryError) Unwrap() error { return ErrUnbalancedEntry }

// NotFoundError is returned by lookups of a nonexistent account or entry.
type NotFoundError struct {
	Kind string // "account" or "entry"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InconsistentLedgerError is returned by reports when a posted line references
// an account missing from the registry.
type InconsistentLedgerError struct {
	AccountIDs []string
}

func (e *InconsistentLedgerError) Error() string {
	return fmt.Sprintf("ledger references %d unregistered account(s): %v", len(e.AccountIDs), e.AccountIDs)
}

func (e *InconsistentLedgerError) Unwrap() error { return ErrInconsistentLedger }
