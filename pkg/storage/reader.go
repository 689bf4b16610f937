package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zeehio/aves/pkg/sample"
)

// ReadCapture loads a finished capture file back into records,
// for offline exploration. Comment lines (the start stamp and the
// column header) are skipped; columns must list the persisted
// names in file order, as in the output section of the config.
func ReadCapture(path string, columns []string) ([]sample.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []sample.Record
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != len(columns) {
			return nil, fmt.Errorf(
				"%s:%d: got %d fields, expecting %d",
				path, lineNo, len(fields), len(columns))
		}
		rec := sample.Record{Values: make(map[string]float64, len(columns))}
		for i, name := range columns {
			if name == sample.TimeComputer {
				at, err := time.Parse(StampLayout, fields[i])
				if err != nil {
					return nil, fmt.Errorf("%s:%d: bad receipt stamp: %w", path, lineNo, err)
				}
				rec.At = at
				continue
			}
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %q: %w", path, lineNo, name, err)
			}
			rec.Values[name] = v
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
