package client

import (
	"sync"

	"github.com/zeehio/aves/pkg/common"
)

// ConsumerManager tracks the viewers currently subscribed to the
// live frame feed. There is a single producer (the acquisition
// session), so subscriptions are just a set keyed by consumer id.
type ConsumerManager struct {
	mu        sync.RWMutex
	consumers map[string]common.Consumer
}

func NewConsumers() *ConsumerManager {
	return &ConsumerManager{
		consumers: map[string]common.Consumer{},
	}
}

func (cm *ConsumerManager) IsSub(id string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, ok := cm.consumers[id]
	return ok
}

func (cm *ConsumerManager) Add(c common.Consumer) {
	if c == nil {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.consumers[c.ID()] = c
}

func (cm *ConsumerManager) Drop(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.consumers, id)
}

// All lists current consumers, intended for usage with Fanout as
// the target provider.
func (cm *ConsumerManager) All() common.Consumers {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	listeners := make(common.Consumers, 0, len(cm.consumers))
	for _, c := range cm.consumers {
		listeners = append(listeners, c)
	}
	return listeners
}

func (cm *ConsumerManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.consumers)
}
