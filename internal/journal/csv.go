package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cleared-gl/internal/id"
	"github.com/cleared-dev/cleared-gl/internal/model"
)

// Header is the CSV header for journal.csv.
const Header = "line_id,date,account_id,description,debit,credit,reference"

const (
	numFields  = 7
	dateFormat = "2006-01-02"
	colLineID  = 0
	colDate    = 1
	colAcctID  = 2
	colDesc    = 3
	colDebit   = 4
	colCredit  = 5
	colRef     = 6
)

// ReadEntries reads journal.csv, regrouping consecutive line rows into entries.
func ReadEntries(r io.Reader) ([]model.JournalEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var entries []model.JournalEntry
	for i, rec := range records[1:] {
		entryID, date, desc, ref, line, err := unmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if n := len(entries); n > 0 && entries[n-1].ID == entryID {
			entries[n-1].Lines = append(entries[n-1].Lines, line)
			continue
		}
		entries = append(entries, model.JournalEntry{
			ID:          entryID,
			Date:        date,
			Description: desc,
			Reference:   ref,
			Lines:       []model.Line{line},
		})
	}
	return entries, nil
}

// WriteEntries writes entries to a journal.csv writer (including header).
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range entries {
		if err := cw.WriteAll(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %s: %w", e.ID, err)
		}
	}
	return cw.Error()
}

// AppendEntry appends one entry to an existing journal.csv writer (no header).
func AppendEntry(w io.Writer, e model.JournalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(MarshalEntry(e)); err != nil {
		return fmt.Errorf("writing entry %s: %w", e.ID, err)
	}
	return nil
}

// MarshalEntry converts an entry to one CSV row per line. Debits land in the
// debit column and credits, unsigned, in the credit column.
func MarshalEntry(e model.JournalEntry) [][]string {
	rows := make([][]string, len(e.Lines))
	for i, l := range e.Lines {
		row := make([]string, numFields)
		row[colLineID] = id.FormatLineID(e.ID, i)
		row[colDate] = e.Date.Format(dateFormat)
		row[colAcctID] = l.AccountID
		row[colDesc] = e.Description
		switch {
		case l.Amount.IsPositive():
			row[colDebit] = l.Amount.String()
		case l.Amount.IsNegative():
			row[colCredit] = l.Amount.Neg().String()
		}
		row[colRef] = e.Reference
		rows[i] = row
	}
	return rows
}

func unmarshalLine(record []string) (entryID string, date time.Time, desc, ref string, line model.Line, err error) {
	if len(record) != numFields {
		err = fmt.Errorf("expected %d fields, got %d", numFields, len(record))
		return
	}

	date, err = time.Parse(dateFormat, record[colDate])
	if err != nil {
		err = fmt.Errorf("parsing date %q: %w", record[colDate], err)
		return
	}

	var debit, credit decimal.Decimal
	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			err = fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
			return
		}
	}
	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			err = fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
			return
		}
	}
	if !debit.IsZero() && !credit.IsZero() {
		err = fmt.Errorf("line %s has both debit and credit", record[colLineID])
		return
	}

	entryID = id.EntryGroup(record[colLineID])
	if entryID == "" {
		err = fmt.Errorf("missing line_id")
		return
	}

	line = model.Line{AccountID: record[colAcctID], Amount: debit.Sub(credit)}
	return entryID, date, record[colDesc], record[colRef], line, nil
}
