package sample

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError describes a line that could not be turned into a
// Record. Such lines are dropped by the acquisition loop and the
// capture continues; only the offending line is lost.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Line, e.Reason)
}

// Parser splits whitespace-separated numeric fields and applies
// the per-column conversion factors.
type Parser struct {
	columns []Column
}

func NewParser(columns []Column) *Parser {
	return &Parser{columns: columns}
}

// Parse turns one raw serial line into a Record. The field count
// must match the configured column count and every field must be
// numeric; otherwise a *ParseError is returned and the record is
// discarded. The receipt stamp is not set here, the caller attaches
// it via a Stamper.
func (p *Parser) Parse(line []byte) (Record, error) {
	raw := string(line)
	fields := strings.Fields(raw)
	if len(fields) != len(p.columns) {
		return Record{}, &ParseError{
			Line:   raw,
			Reason: fmt.Sprintf("got %d fields, expecting %d", len(fields), len(p.columns)),
		}
	}
	values := make(map[string]float64, len(p.columns))
	for i, column := range p.columns {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Record{}, &ParseError{
				Line:   raw,
				Reason: fmt.Sprintf("field %q is not numeric", fields[i]),
			}
		}
		values[column.Name] = v * column.Factor
	}
	return Record{Values: values}, nil
}
