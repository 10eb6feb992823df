package service

import (
	"github.com/stackpay/stackpay.go/common"
)

// ResolvedStatus is the UI-facing invoice status. It is always derived from
// the on-chain flag plus the chain tip, never read from the ledger directly:
// nothing on chain marks an invoice expired, expiry is purely a function of
// elapsed blocks.
type ResolvedStatus string

const (
	StatusPending ResolvedStatus = common.InvoiceStatusPending
	StatusPaid    ResolvedStatus = common.InvoiceStatusPaid
	StatusExpired ResolvedStatus = common.InvoiceStatusExpired
)

// ResolveStatus derives the authoritative status of an invoice. Paid wins
// unconditionally: a settled invoice never flips to expired, no matter how
// far past its expiry height the chain has moved. Without a tip or without
// an expiry height there is no expiry.
func ResolveStatus(invoice *Invoice, tip *ChainTip) ResolvedStatus {
	if invoice.OnChainStatus == OnChainStatusPaid {
		return StatusPaid
	}
	if tip != nil && invoice.ExpiresAtBlock != nil && *invoice.ExpiresAtBlock <= tip.Height {
		return StatusExpired
	}
	return StatusPending
}
