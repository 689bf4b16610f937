package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zeehio/aves/pkg/sample"
)

// PostgresSink mirrors the capture into a Postgres or TimescaleDB
// table with an `at timestamptz` and a `values jsonb` column. It
// satisfies RecordWriter, so the session treats it exactly like
// the text file.
type PostgresSink struct {
	db    *sql.DB
	table string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, table: table}
}

func (s *PostgresSink) Write(rec sample.Record) error {
	return s.WriteBatch([]sample.Record{rec})
}

// WriteBatch inserts records in one multi-values statement.
func (s *PostgresSink) WriteBatch(records []sample.Record) error {
	if len(records) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(s.table)
	b.WriteString(" (at, values) VALUES ")

	args := make([]interface{}, 0, len(records)*2)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d)", len(args)+1, len(args)+2))
		vals, err := json.Marshal(rec.Values)
		if err != nil {
			return fmt.Errorf("marshal values: %w", err)
		}
		args = append(args, rec.At, vals)
	}

	_, err := s.db.Exec(b.String(), args...)
	return err
}

func (s *PostgresSink) Close() error {
	return s.db.Close()
}

var _ RecordWriter = (*PostgresSink)(nil)
