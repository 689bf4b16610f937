package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zeehio/aves/pkg/sample"
)

// StampLayout renders the receipt-time column in capture files.
const StampLayout = time.RFC3339Nano

// RecordWriter persists records as they are acquired. A failed
// write is fatal to the run: the capture file is the primary
// deliverable and must never silently miss samples.
type RecordWriter interface {
	Write(rec sample.Record) error
	Close() error
}

// FileWriter appends one tab-delimited line per record to a text
// file, selected columns in configured order. Each run starts with
// two comment lines: the capture start time and the column header.
type FileWriter struct {
	f       *os.File
	w       *bufio.Writer
	columns []string
}

func NewFileWriter(path string, columns []string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create capture directory: %w", err)
		}
	}
	// append, never truncate: pointing two runs at the same file
	// must not destroy the earlier capture
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture file: %w", err)
	}
	fw := &FileWriter{
		f:       f,
		w:       bufio.NewWriter(f),
		columns: columns,
	}
	if _, err := fmt.Fprintf(fw.w, "# %s\n", time.Now().Format(StampLayout)); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := fmt.Fprintf(fw.w, "#%s\n", strings.Join(columns, "\t")); err != nil {
		f.Close()
		return nil, err
	}
	if err := fw.w.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return fw, nil
}

// Write flushes per record, the capture must be on disk even if
// the process dies mid-run.
func (fw *FileWriter) Write(rec sample.Record) error {
	fields := make([]string, 0, len(fw.columns))
	for _, name := range fw.columns {
		if name == sample.TimeComputer {
			fields = append(fields, rec.At.Format(StampLayout))
			continue
		}
		v, ok := rec.Values[name]
		if !ok {
			return fmt.Errorf("record is missing column %q", name)
		}
		fields = append(fields, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if _, err := fw.w.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
		return err
	}
	return fw.w.Flush()
}

func (fw *FileWriter) Close() error {
	flushErr := fw.w.Flush()
	if err := fw.f.Close(); err != nil {
		return err
	}
	return flushErr
}

// DefaultCapturePath names a fresh capture file under data/ the
// same way captures have always been named, so sorted directory
// listings follow acquisition order.
func DefaultCapturePath(now time.Time) string {
	return filepath.Join("data", now.Format("2006_01_02-15.04.05")+".txt")
}
