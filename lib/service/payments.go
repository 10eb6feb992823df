package service

import (
	"context"

	"github.com/stackpay/stackpay.go/ledger"
)

// SubmitPayment broadcasts a caller-signed payment for an invoice and drops
// the reconciliation cache so the next read observes the new on-chain state
// as soon as the ledger does.
func (svc *StackpayService) SubmitPayment(ctx context.Context, req *ledger.SubmitPaymentRequest) (*ledger.SubmitPaymentResponse, error) {
	resp, err := svc.Ledger.SubmitPayment(ctx, req)
	if err != nil {
		return nil, err
	}
	svc.Cache.Invalidate()
	return resp, nil
}

// GetInvoice looks up a single invoice through the reconciliation cache.
// Returns nil when no such invoice exists in the reconciled set.
func (svc *StackpayService) GetInvoice(ctx context.Context, id string, forceRefresh bool) (*Invoice, bool, error) {
	invoices, stale, err := svc.Cache.GetInvoices(ctx, InvoiceFilter{}, forceRefresh)
	if invoices == nil && err != nil {
		return nil, stale, err
	}
	for i := range invoices {
		if invoices[i].ID == id {
			return &invoices[i], stale, nil
		}
	}
	return nil, stale, nil
}
