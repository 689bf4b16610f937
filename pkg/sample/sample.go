package sample

import (
	"time"
)

// TimeComputer names the synthetic column holding the local
// receipt timestamp of each record, as opposed to whatever
// notion of time the device itself reports.
const TimeComputer = "time_computer"

// Column describes one field emitted by the device: its name and
// the factor turning the raw reading into an engineering unit.
// Columns are immutable once the configuration has been loaded.
type Column struct {
	Name   string  `yaml:"name"`
	Factor float64 `yaml:"conversion_factor"`
}

// Record holds one converted sample: a value per configured device
// column plus the local receipt instant. Records are created once
// per successfully parsed line and never mutated afterwards, which
// is what lets window snapshots share them safely.
type Record struct {
	At     time.Time
	Values map[string]float64
}
