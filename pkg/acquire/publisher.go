package acquire

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zeehio/aves/pkg/client"
	"github.com/zeehio/aves/pkg/observe"
	"github.com/zeehio/aves/pkg/window"
)

// Publisher hands viewers periodic snapshots of the rolling
// window. Its cadence is independent of the device's sample rate:
// a tick with fewer than MinSamples new records since the last
// frame publishes nothing, and a slow viewer only ever sees the
// newest frame (the feed replaces unconsumed frames, it never
// queues them). A stall transition forces a frame out regardless
// of the threshold, so viewers learn about the condition promptly.
type Publisher struct {
	win      *window.Window
	stall    *StallDetector
	subs     *client.ConsumerManager
	interval time.Duration
	min      int
	columns  []string
	log      *logrus.Logger
	obs      observe.Observer

	feed  *client.Feed
	force chan struct{}

	mu        sync.RWMutex
	latest    []byte
	lastTotal uint64
	lastState State
}

type PublisherConfig struct {
	Window     *window.Window
	Stall      *StallDetector
	Subs       *client.ConsumerManager
	Interval   time.Duration
	MinSamples int
	Columns    []string
	Logger     *logrus.Logger
	Observer   observe.Observer
}

func NewPublisher(cfg PublisherConfig) *Publisher {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Observer == nil {
		cfg.Observer = observe.Nop{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Publisher{
		win:      cfg.Window,
		stall:    cfg.Stall,
		subs:     cfg.Subs,
		interval: cfg.Interval,
		min:      cfg.MinSamples,
		columns:  cfg.Columns,
		log:      cfg.Logger,
		obs:      cfg.Observer,
		feed:     client.NewFeed(),
		force:    make(chan struct{}, 1),
	}
}

// Run ticks until the context is cancelled. Intended to be run in
// a separate goroutine alongside the acquisition session.
func (p *Publisher) Run(ctx context.Context) {
	go client.Fanout(ctx, p.feed.Frames(), p.subs.All)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.force:
			p.publish(true)
		case <-ticker.C:
			p.publish(false)
		}
	}
}

// Force requests an out-of-cadence frame, e.g. on a stall
// transition. Non-blocking; repeated requests coalesce.
func (p *Publisher) Force() {
	select {
	case p.force <- struct{}{}:
	default:
	}
}

// Latest returns the most recently published frame, nil before the
// first one. New viewers are seeded with it on connect.
func (p *Publisher) Latest() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

func (p *Publisher) publish(forced bool) {
	total := p.win.Total()
	state := p.stall.State()
	if !forced && total-p.lastTotal < uint64(p.min) && state == p.lastState {
		return
	}
	snapshot := p.win.Snapshot()
	frame := Frame{
		Status:  state.String(),
		Columns: p.columns,
		Total:   total,
		Records: frameRecords(snapshot),
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		p.log.WithError(err).Error("cannot marshal frame")
		return
	}
	p.mu.Lock()
	p.latest = raw
	p.lastTotal = total
	p.lastState = state
	p.mu.Unlock()
	p.feed.Put(raw)
	p.obs.FramePublished()
	p.obs.SetWindowLength(len(snapshot))
}
