package client

import (
	"context"

	"github.com/zeehio/aves/pkg/common"
)

type ConsumerProvider func() common.Consumers

// Feed is a single-slot frame mailbox. Put replaces an unconsumed
// frame instead of queueing behind it, so a slow reader only ever
// sees the newest frame and never backs up the producer.
type Feed struct {
	ch chan []byte
}

func NewFeed() *Feed {
	return &Feed{ch: make(chan []byte, 1)}
}

func (f *Feed) Put(frame []byte) {
	for {
		select {
		case f.ch <- frame:
			return
		default:
			// drop the superseded frame, then retry
			select {
			case <-f.ch:
			default:
			}
		}
	}
}

func (f *Feed) Frames() <-chan []byte {
	return f.ch
}

// Fanout forwards every frame from src to all consumers the
// provider currently yields. Offer is non-blocking by contract,
// so one stuck consumer cannot delay the others. Intended to be
// run in a separate goroutine.
func Fanout(ctx context.Context, src <-chan []byte, provider ConsumerProvider) {
	for {
		select {
		case frame, open := <-src:
			if !open {
				return
			}
			for _, target := range provider() {
				target.Offer(frame)
			}
		case <-ctx.Done():
			return
		}
	}
}
