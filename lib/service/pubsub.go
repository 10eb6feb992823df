package service

import (
	"sync"

	"github.com/labstack/gommon/random"
)

// InvoiceEvent is one status transition observed during reconciliation.
type InvoiceEvent struct {
	Type    string  `json:"event"`
	Invoice Invoice `json:"invoice"`
}

type Pubsub struct {
	mu   sync.RWMutex
	subs map[string]map[string]chan InvoiceEvent
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan InvoiceEvent)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan InvoiceEvent) (subId string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan InvoiceEvent)
	}
	subId = random.String(16, random.Alphanumeric)
	ps.subs[topic][subId] = ch
	return subId
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

// Publish never blocks: a subscriber whose channel is full loses the event
// instead of stalling the publisher. Publishers run inside the cache refresh,
// so a stuck consumer must not back up into reconciliation. Subscribers are
// expected to pass buffered channels.
func (ps *Pubsub) Publish(topic string, msg InvoiceEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
		default:
		}
	}
}
