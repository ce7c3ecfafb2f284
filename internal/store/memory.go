// Package store holds persistence backends for the ledger engine.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Memory keeps accounts and entries in process memory.
type Memory struct {
	mu       sync.Mutex
	accounts []model.Account
	entries  []model.JournalEntry
}

// NewMemory returns a Memory store preloaded with accounts and entries.
func NewMemory(accounts []model.Account, entries []model.JournalEntry) *Memory {
	m := &Memory{accounts: slices.Clone(accounts)}
	for _, e := range entries {
		m.entries = append(m.entries, e.Clone())
	}
	return m
}

// LoadAccounts returns a copy of the stored accounts.
func (m *Memory) LoadAccounts(_ context.Context) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.accounts), nil
}

// SaveAccounts replaces the stored accounts.
func (m *Memory) SaveAccounts(_ context.Context, accounts []model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = slices.Clone(accounts)
	return nil
}

// LoadEntries returns a copy of the stored entries in append order.
func (m *Memory) LoadEntries(_ context.Context) ([]model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.JournalEntry, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Clone()
	}
	return out, nil
}

// AppendEntry stores a copy of entry.
func (m *Memory) AppendEntry(_ context.Context, entry model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry.Clone())
	return nil
}
