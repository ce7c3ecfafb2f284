package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
	"github.com/cleared-dev/cleared-gl/internal/journal"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

const (
	accountsDir  = "accounts"
	accountsFile = "chart-of-accounts.csv"
	journalDir   = "journal"
	journalFile  = "journal.csv"
)

// File stores the ledger as plain-text CSV under a project root:
//
//	accounts/chart-of-accounts.csv
//	journal/YYYY/MM/journal.csv
type File struct {
	root string
}

// NewFile returns a File store rooted at dir.
func NewFile(dir string) *File {
	return &File{root: dir}
}

// Root returns the project directory.
func (f *File) Root() string {
	return f.root
}

// AccountsPath returns the chart of accounts path.
func (f *File) AccountsPath() string {
	return filepath.Join(f.root, accountsDir, accountsFile)
}

// MonthPath returns the journal file for a posting month.
func (f *File) MonthPath(year, month int) string {
	return filepath.Join(f.root, journalDir, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), journalFile)
}

// LoadAccounts reads the chart of accounts. A missing file is an empty chart.
func (f *File) LoadAccounts(_ context.Context) ([]model.Account, error) {
	fh, err := os.Open(f.AccountsPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer fh.Close()

	accts, err := accounts.ReadAccounts(fh)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return accts, nil
}

// SaveAccounts rewrites the chart of accounts via a temp file and rename, so
// a reader never sees a half-written chart.
func (f *File) SaveAccounts(_ context.Context, accts []model.Account) error {
	dir := filepath.Join(f.root, accountsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	var buf bytes.Buffer
	if err := accounts.WriteAccounts(&buf, accts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	tmp, err := os.CreateTemp(dir, accountsFile+".*")
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing chart of accounts: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.AccountsPath()); err != nil {
		return fmt.Errorf("replacing chart of accounts: %w", err)
	}
	return nil
}

// LoadEntries reads every month's journal in chronological file order.
func (f *File) LoadEntries(_ context.Context) ([]model.JournalEntry, error) {
	years, err := numericDirs(filepath.Join(f.root, journalDir))
	if err != nil {
		return nil, err
	}

	var entries []model.JournalEntry
	for _, year := range years {
		months, err := numericDirs(filepath.Join(f.root, journalDir, fmt.Sprintf("%04d", year)))
		if err != nil {
			return nil, err
		}
		for _, month := range months {
			monthEntries, err := f.ReadMonth(year, month)
			if err != nil {
				return nil, err
			}
			entries = append(entries, monthEntries...)
		}
	}
	return entries, nil
}

// ReadMonth reads all entries for a given year/month.
func (f *File) ReadMonth(year, month int) ([]model.JournalEntry, error) {
	path := f.MonthPath(year, month)
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	defer fh.Close()

	entries, err := journal.ReadEntries(fh)
	if err != nil {
		return nil, fmt.Errorf("reading journal %s: %w", path, err)
	}
	return entries, nil
}

// AppendEntry appends one entry to its month's journal.csv, creating the
// directory and header when the month is new. The entry's rows go out in a
// single write.
func (f *File) AppendEntry(_ context.Context, entry model.JournalEntry) error {
	path := f.MonthPath(entry.Date.Year(), int(entry.Date.Month()))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	var buf bytes.Buffer
	if isNew {
		buf.WriteString(journal.Header + "\n")
	}
	if err := journal.AppendEntry(&buf, entry); err != nil {
		return err
	}

	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer fh.Close()

	if _, err := fh.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("appending entry %s: %w", entry.ID, err)
	}
	return nil
}

// numericDirs lists subdirectories of dir whose names are integers, ascending.
func numericDirs(dir string) ([]int, error) {
	des, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var out []int
	for _, de := range des {
		if !de.IsDir() {
			continue
		}
		n, err := strconv.Atoi(de.Name())
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}
