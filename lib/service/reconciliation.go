package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stackpay/stackpay.go/common"
	"github.com/stackpay/stackpay.go/ledger"
	"golang.org/x/sync/singleflight"
)

// InvoiceFilter selects the slice of the ledger a caller is interested in.
// Each distinct filter gets its own cache slot.
type InvoiceFilter struct {
	Merchant string
	OnlyPaid bool
}

func (f InvoiceFilter) key() string {
	return fmt.Sprintf("%s|%t", f.Merchant, f.OnlyPaid)
}

// CacheEntry is one reconciled result set. Entries are replaced wholesale on
// refresh and read-only in between, readers always see a fully-formed list.
type CacheEntry struct {
	Invoices  []Invoice
	FetchedAt time.Time
	Tip       *ChainTip // tip the entry was resolved against
}

// ReconciliationCache drives the read-and-reconcile pipeline: count -> ids ->
// records -> decode -> resolve -> sort, with per-item fault isolation, and
// serves the result from memory within the staleness window.
type ReconciliationCache struct {
	svc *StackpayService

	mu      sync.RWMutex
	entries map[string]*CacheEntry

	// coalesces concurrent refreshes of the same slot onto one ledger walk
	group singleflight.Group
}

func NewReconciliationCache(svc *StackpayService) *ReconciliationCache {
	return &ReconciliationCache{
		svc:     svc,
		entries: make(map[string]*CacheEntry),
	}
}

// GetInvoices returns the reconciled invoice list for the filter. Within the
// staleness window the cached entry is served with zero ledger I/O. A failed
// refresh keeps and returns the previous entry, however stale, with the stale
// flag set, so callers can render last-good data instead of a broken state.
func (c *ReconciliationCache) GetInvoices(ctx context.Context, filter InvoiceFilter, forceRefresh bool) (invoices []Invoice, stale bool, err error) {
	window := time.Duration(c.svc.Config.CacheStalenessWindow) * time.Second
	if !forceRefresh {
		if entry := c.entry(filter); entry != nil && time.Since(entry.FetchedAt) < window {
			return entry.Invoices, false, nil
		}
	}

	result, err, _ := c.group.Do(filter.key(), func() (interface{}, error) {
		// the refresh is shared by every coalesced caller, so it must not die
		// with the initiating request's context
		return c.refresh(context.WithoutCancel(ctx), filter)
	})
	if err != nil {
		if entry := c.entry(filter); entry != nil {
			return entry.Invoices, true, err
		}
		return nil, true, err
	}
	return result.([]Invoice), false, nil
}

func (c *ReconciliationCache) entry(filter InvoiceFilter) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[filter.key()]
}

func (c *ReconciliationCache) store(filter InvoiceFilter, invoices []Invoice, tip *ChainTip) {
	c.mu.Lock()
	c.entries[filter.key()] = &CacheEntry{Invoices: invoices, FetchedAt: time.Now(), Tip: tip}
	c.mu.Unlock()
}

// Invalidate drops all cache slots so the next read hits the ledger. Used
// after a payment submission.
func (c *ReconciliationCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mu.Unlock()
}

// refresh runs one full reconciliation. Only a failing count query is fatal;
// every per-item failure below it is logged and dropped.
func (c *ReconciliationCache) refresh(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	svc := c.svc

	count, err := c.fetchCount(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		empty := []Invoice{}
		c.store(filter, empty, svc.Oracle.CurrentTip())
		return empty, nil
	}

	// Phase one: fan out all id lookups and join. A failed index leaves an
	// empty slot instead of aborting the batch.
	ids := make([]string, count)
	var wg sync.WaitGroup
	for i := uint64(0); i < count; i++ {
		wg.Add(1)
		go func(i uint64) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, c.callTimeout())
			defer cancel()
			id, err := svc.Ledger.GetInvoiceID(callCtx, i)
			if err != nil {
				svc.Logger.Errorf("Dropping invoice index %d: %v", i, err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	// Phase two: fan out record fetches for the ids that resolved. Record
	// ids are inputs here, so this phase only starts after the first join.
	records := make([]*ledger.RawRecord, count)
	for i := range ids {
		if ids[i] == "" {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, c.callTimeout())
			defer cancel()
			record, err := svc.Ledger.GetInvoiceRecord(callCtx, ids[i])
			if err != nil {
				svc.Logger.Errorf("Dropping invoice %s: %v", ids[i], err)
				return
			}
			records[i] = record
		}(i)
	}
	wg.Wait()

	tip := svc.Oracle.CurrentTip()
	invoices := make([]Invoice, 0, count)
	for i, record := range records {
		if record == nil {
			continue
		}
		invoice := DecodeInvoice(record, ids[i])
		if invoice == nil {
			svc.Logger.Errorf("Dropping invoice %s: record failed to decode", ids[i])
			continue
		}
		invoices = append(invoices, *invoice)
	}

	// Newest first by creation height, unknown heights last. The id tiebreak
	// keeps the order independent of fetch completion timing.
	sort.SliceStable(invoices, func(a, b int) bool {
		ca, cb := invoices[a].CreatedAtBlock, invoices[b].CreatedAtBlock
		switch {
		case ca == nil:
			return false
		case cb == nil:
			return true
		case *ca != *cb:
			return *ca > *cb
		default:
			return invoices[a].ID < invoices[b].ID
		}
	})

	filtered := make([]Invoice, 0, len(invoices))
	for _, invoice := range invoices {
		if filter.Merchant != "" && invoice.Merchant != filter.Merchant {
			continue
		}
		if filter.OnlyPaid && ResolveStatus(&invoice, tip) != StatusPaid {
			continue
		}
		filtered = append(filtered, invoice)
	}

	c.publishTransitions(c.entry(filter), filtered, tip)
	c.store(filter, filtered, tip)
	return filtered, nil
}

func (c *ReconciliationCache) fetchCount(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout())
	defer cancel()
	return c.svc.Ledger.GetInvoiceCount(callCtx)
}

func (c *ReconciliationCache) callTimeout() time.Duration {
	return time.Duration(c.svc.Config.LedgerCallTimeout) * time.Second
}

// publishTransitions emits webhook events for invoices whose resolved status
// changed since the previous entry for this slot. The cache is the only
// component that sees both generations, so transition detection lives here.
// The previous generation is resolved against the tip it was stored under:
// an expiry transition changes nothing in the record, only the tip moves.
func (c *ReconciliationCache) publishTransitions(previous *CacheEntry, current []Invoice, tip *ChainTip) {
	if previous == nil {
		return
	}
	before := make(map[string]ResolvedStatus, len(previous.Invoices))
	for i := range previous.Invoices {
		before[previous.Invoices[i].ID] = ResolveStatus(&previous.Invoices[i], previous.Tip)
	}
	for i := range current {
		old, seen := before[current[i].ID]
		if !seen {
			continue
		}
		now := ResolveStatus(&current[i], tip)
		if now == old {
			continue
		}
		switch now {
		case StatusPaid:
			c.svc.InvoicePubSub.Publish(string(StatusPaid), InvoiceEvent{Type: common.WebhookEventInvoicePaid, Invoice: current[i]})
		case StatusExpired:
			c.svc.InvoicePubSub.Publish(string(StatusExpired), InvoiceEvent{Type: common.WebhookEventInvoiceExpired, Invoice: current[i]})
		}
	}
}
