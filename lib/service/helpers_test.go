package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/stackpay/stackpay.go/ledger"
	"github.com/ziflex/lecho/v3"
)

// mockLedger is an in-memory ledger.Client with per-call fault injection and
// call counters, so tests can assert how much I/O a code path performed.
type mockLedger struct {
	mu          sync.Mutex
	countCalls  int
	idCalls     int
	recordCalls int

	count      uint64
	countErr   error
	countDelay time.Duration
	ids        []string
	idErrs     map[uint64]error
	records    map[string]*ledger.RawRecord
	recordErrs map[string]error
	tipHeight  uint64
	tipErr     error
}

func (m *mockLedger) GetInvoiceCount(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	m.countCalls++
	count, countErr, delay := m.count, m.countErr, m.countDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if countErr != nil {
		return 0, countErr
	}
	return count, nil
}

func (m *mockLedger) GetInvoiceID(ctx context.Context, index uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.idCalls++
	if err := m.idErrs[index]; err != nil {
		return "", err
	}
	if index >= uint64(len(m.ids)) {
		return "", fmt.Errorf("no invoice at index %d", index)
	}
	return m.ids[index], nil
}

func (m *mockLedger) GetInvoiceRecord(ctx context.Context, id string) (*ledger.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCalls++
	if err := m.recordErrs[id]; err != nil {
		return nil, err
	}
	record, found := m.records[id]
	if !found {
		return ledger.NoneRecord(), nil
	}
	return record, nil
}

func (m *mockLedger) GetTipHeight(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tipErr != nil {
		return 0, m.tipErr
	}
	return m.tipHeight, nil
}

func (m *mockLedger) SubmitPayment(ctx context.Context, req *ledger.SubmitPaymentRequest) (*ledger.SubmitPaymentResponse, error) {
	return &ledger.SubmitPaymentResponse{TransactionID: "0xdeadbeef"}, nil
}

func (m *mockLedger) callCounts() (count, id, record int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countCalls, m.idCalls, m.recordCalls
}

func (m *mockLedger) setTipHeight(h uint64) {
	m.mu.Lock()
	m.tipHeight = h
	m.mu.Unlock()
}

func (m *mockLedger) setCountErr(err error) {
	m.mu.Lock()
	m.countErr = err
	m.mu.Unlock()
}

func newTestService(mock *mockLedger) *StackpayService {
	config := &Config{
		CacheStalenessWindow: 30,
		LedgerCallTimeout:    5,
		TipRefreshInterval:   60,
		BlockIntervalSeconds: 600,
		GenesisTimestamp:     1610000000,
	}
	return NewService(config, nil, mock, lecho.New(io.Discard))
}

func uptr(v uint64) *uint64 { return &v }

func optUintRecord(v *uint64) *ledger.RawRecord {
	if v == nil {
		return ledger.NoneRecord()
	}
	return ledger.SomeRecord(ledger.UintRecord(*v))
}

// invoiceRecord builds a ledger record the way the contract serializes one.
func invoiceRecord(amount uint64, merchant string, status uint64, createdAt, expiresAt, paidAt *uint64) *ledger.RawRecord {
	return ledger.SomeRecord(ledger.TupleRecord(map[string]*ledger.RawRecord{
		"amount":           ledger.UintRecord(amount),
		"currency":         ledger.StringRecord("sBTC"),
		"description":      ledger.SomeRecord(ledger.StringRecord("test invoice")),
		"email":            ledger.NoneRecord(),
		"metadata":         ledger.NoneRecord(),
		"merchant":         ledger.PrincipalRecord(merchant),
		"recipient":        ledger.PrincipalRecord(merchant),
		"created-at":       optUintRecord(createdAt),
		"expires-at":       optUintRecord(expiresAt),
		"paid-at":          optUintRecord(paidAt),
		"status":           ledger.UintRecord(status),
		"webhook-url":      ledger.NoneRecord(),
		"payment-address":  ledger.NoneRecord(),
		"transaction-hash": ledger.NoneRecord(),
	}))
}
