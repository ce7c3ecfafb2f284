// Package importer turns bank statement exports into journal entries.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StatementLine is one row of a bank statement. Amount is signed from the
// bank's point of view: positive is money in, negative is money out.
type StatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Reference   string
	Type        string
}

// Parser converts a statement export into StatementLines.
type Parser interface {
	Parse(r io.Reader) ([]StatementLine, error)
	Format() string
}

// Registry holds parsers by format name.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with the built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ChaseParser{})
	r.Register(&SimpleParser{})
	return r
}

// readRows reads every record after the header. fields is the expected
// column count, or -1 to let the caller check it.
func readRows(r io.Reader, fields int, name string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s CSV: %w", name, err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

// ChaseParser reads Chase checking exports:
// Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseNumFields  = 7
	chaseColDate    = 1
	chaseColDesc    = 2
	chaseColAmount  = 3
	chaseColType    = 4
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase CSV. References are derived from date and description
// so re-importing the same export is detectable.
func (p *ChaseParser) Parse(r io.Reader) ([]StatementLine, error) {
	rows, err := readRows(r, chaseNumFields, "chase")
	if err != nil {
		return nil, err
	}

	var out []StatementLine
	for i, rec := range rows {
		date, err := time.Parse(chaseDateFormat, rec[chaseColDate])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[chaseColDate], err)
		}
		amount, err := decimal.NewFromString(rec[chaseColAmount])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[chaseColAmount], err)
		}
		desc := strings.TrimSpace(rec[chaseColDesc])
		out = append(out, StatementLine{
			Date:        date,
			Description: desc,
			Amount:      amount,
			Reference:   statementRef("chase", date, desc),
			Type:        rec[chaseColType],
		})
	}
	return out, nil
}

// SimpleParser reads a minimal export: date,description,amount[,reference]
// with ISO dates. A missing or empty reference is derived from date and
// description.
type SimpleParser struct{}

const (
	simpleMinFields = 3
	simpleMaxFields = 4
)

// Format returns the parser name.
func (p *SimpleParser) Format() string { return "simple" }

// Parse reads a simple CSV.
func (p *SimpleParser) Parse(r io.Reader) ([]StatementLine, error) {
	rows, err := readRows(r, -1, "simple")
	if err != nil {
		return nil, err
	}

	var out []StatementLine
	for i, rec := range rows {
		if len(rec) < simpleMinFields || len(rec) > simpleMaxFields {
			return nil, fmt.Errorf("row %d: expected %d or %d fields, got %d", i+2, simpleMinFields, simpleMaxFields, len(rec))
		}
		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[0], err)
		}
		amount, err := decimal.NewFromString(rec[2])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[2], err)
		}
		line := StatementLine{Date: date, Description: strings.TrimSpace(rec[1]), Amount: amount}
		if len(rec) == simpleMaxFields {
			line.Reference = strings.TrimSpace(rec[3])
		}
		if line.Reference == "" {
			line.Reference = statementRef("simple", date, line.Description)
		}
		out = append(out, line)
	}
	return out, nil
}

// statementRef builds a reference like chase_20250103_MAERSKLINE.
func statementRef(source string, date time.Time, desc string) string {
	prefix := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, desc)
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}
	return fmt.Sprintf("%s_%s_%s", source, date.Format("20060102"), prefix)
}
