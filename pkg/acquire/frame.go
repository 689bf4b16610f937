package acquire

import (
	"time"

	"github.com/zeehio/aves/pkg/sample"
)

// Frame is one published view of the rolling window, marshaled to
// JSON and pushed to every subscribed viewer. What the viewer does
// with it (axes, layout) is its own concern.
type Frame struct {
	Status  string        `json:"status"`
	Columns []string      `json:"columns"`
	Total   uint64        `json:"total"`
	Records []FrameRecord `json:"records"`
}

type FrameRecord struct {
	At     time.Time          `json:"at"`
	Values map[string]float64 `json:"values"`
}

func frameRecords(snapshot []sample.Record) []FrameRecord {
	out := make([]FrameRecord, len(snapshot))
	for i, rec := range snapshot {
		out[i] = FrameRecord{At: rec.At, Values: rec.Values}
	}
	return out
}
