// Package audit records CLI operations (init, account changes, posts, imports)
// to logs/audit-log.csv. It is an operator log, not entry versioning.
package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions recorded by the CLI.
const (
	ActionInit          = "init"
	ActionAccountAdd    = "account_add"
	ActionAccountRename = "account_rename"
	ActionAccountMove   = "account_move"
	ActionPost          = "post"
	ActionImport        = "import"
)

// Record is one row in the audit trail. Subject is the entry or account ID
// the action touched, if any.
type Record struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string
	Details   string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,actor,action,subject,details"

const (
	numFields  = 5
	logDir     = "logs"
	logFile    = "audit-log.csv"
	colTime    = 0
	colActor   = 1
	colAction  = 2
	colSubject = 3
	colDetails = 4
)

// Path returns the audit trail location under root.
func Path(root string) string {
	return filepath.Join(root, logDir, logFile)
}

// MarshalRecord converts a Record to a CSV row.
func MarshalRecord(r Record) []string {
	row := make([]string, numFields)
	row[colTime] = r.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = r.Actor
	row[colAction] = r.Action
	row[colSubject] = r.Subject
	row[colDetails] = r.Details
	return row
}

// UnmarshalRecord converts a CSV row to a Record.
func UnmarshalRecord(row []string) (Record, error) {
	if len(row) != numFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[colTime])
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp %q: %w", row[colTime], err)
	}
	return Record{
		Timestamp: ts,
		Actor:     row[colActor],
		Action:    row[colAction],
		Subject:   row[colSubject],
		Details:   row[colDetails],
	}, nil
}

// Append adds records to <root>/logs/audit-log.csv, creating the file and
// header if needed.
func Append(root string, records ...Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(root)
	_, statErr := os.Stat(path)
	needsHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, r := range records {
		if err := cw.Write(MarshalRecord(r)); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every record in the audit trail, or nil if there is none.
func Read(root string) ([]Record, error) {
	f, err := os.Open(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	return readRecords(f)
}

func readRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	var out []Record
	for i, row := range rows[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
