package observe

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prom exposes acquisition counters on a Prometheus registry,
// served by the live view server under /metrics.
type Prom struct {
	ingested prometheus.Counter
	dropped  prometheus.Counter
	frames   prometheus.Counter
	stalled  prometheus.Gauge
	window   prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aves_records_ingested_total",
			Help: "Records parsed, stamped and appended to the window.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aves_lines_dropped_total",
			Help: "Malformed serial lines discarded by the parser.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aves_frames_published_total",
			Help: "Snapshot frames handed to live viewers.",
		}),
		stalled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aves_stream_stalled",
			Help: "1 while the input stream is presumed dropped, 0 otherwise.",
		}),
		window: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aves_window_length",
			Help: "Records currently held in the rolling window.",
		}),
	}
	reg.MustRegister(p.ingested, p.dropped, p.frames, p.stalled, p.window)
	return p
}

func (p *Prom) RecordIngested() { p.ingested.Inc() }

func (p *Prom) ParseDropped() { p.dropped.Inc() }

func (p *Prom) SetStalled(stalled bool) {
	if stalled {
		p.stalled.Set(1)
		return
	}
	p.stalled.Set(0)
}

func (p *Prom) FramePublished() { p.frames.Inc() }

func (p *Prom) SetWindowLength(n int) { p.window.Set(float64(n)) }
