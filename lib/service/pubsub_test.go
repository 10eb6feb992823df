package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPubsubPublishReachesSubscriber(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan InvoiceEvent, 1)
	ps.Subscribe("invoice.paid", ch)

	ps.Publish("invoice.paid", InvoiceEvent{Type: "invoice.paid", Invoice: Invoice{ID: "inv-a"}})

	event := <-ch
	assert.Equal(t, "inv-a", event.Invoice.ID)
}

func TestPubsubUnsubscribeClosesChannel(t *testing.T) {
	ps := NewPubsub()
	ch := make(chan InvoiceEvent, 1)
	id := ps.Subscribe("invoice.paid", ch)

	ps.Unsubscribe(id, "invoice.paid")

	_, open := <-ch
	assert.False(t, open)

	// publishing to a topic with no subscribers is a no-op
	ps.Publish("invoice.paid", InvoiceEvent{})
}

func TestPubsubTopicsAreIsolated(t *testing.T) {
	ps := NewPubsub()
	paid := make(chan InvoiceEvent, 1)
	expired := make(chan InvoiceEvent, 1)
	ps.Subscribe("invoice.paid", paid)
	ps.Subscribe("invoice.expired", expired)

	ps.Publish("invoice.expired", InvoiceEvent{Invoice: Invoice{ID: "inv-a"}})

	assert.Empty(t, paid)
	assert.Len(t, expired, 1)
}
