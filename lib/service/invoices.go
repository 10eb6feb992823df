package service

import (
	"github.com/stackpay/stackpay.go/ledger"
)

// On-chain status flag as the contract stores it.
type OnChainStatus int

const (
	OnChainStatusPending OnChainStatus = 0
	OnChainStatusPaid    OnChainStatus = 1
	OnChainStatusExpired OnChainStatus = 2
)

// Invoice is the normalized form of one ledger record. Immutable once
// decoded; the UI-facing status is derived separately (see ResolveStatus),
// never stored here.
type Invoice struct {
	ID              string        `json:"id"`
	Amount          uint64        `json:"amount"`
	Currency        string        `json:"currency"`
	Description     string        `json:"description"`
	Email           string        `json:"email"`
	Metadata        string        `json:"metadata"`
	Merchant        string        `json:"merchant"`
	Recipient       string        `json:"recipient"`
	CreatedAtBlock  *uint64       `json:"created_at_block"`
	ExpiresAtBlock  *uint64       `json:"expires_at_block"`
	PaidAtBlock     *uint64       `json:"paid_at_block,omitempty"`
	OnChainStatus   OnChainStatus `json:"on_chain_status"`
	WebhookUrl      string        `json:"webhook_url,omitempty"`
	PaymentAddress  string        `json:"payment_address,omitempty"`
	TransactionHash string        `json:"transaction_hash,omitempty"`
}

// DecodeInvoice maps one raw ledger record onto an Invoice. Returns nil when
// the record is structurally absent (the contract answers a not-found with a
// none wrapper, not an error). Individual fields decode defensively: a
// missing wrapper yields the documented default instead of failing the
// whole record.
func DecodeInvoice(raw *ledger.RawRecord, id string) *Invoice {
	rec := raw.UnwrapOptional()
	if rec == nil || rec.Kind != ledger.KindTuple {
		return nil
	}

	return &Invoice{
		ID:              id,
		Amount:          uintOr(rec.Field("amount"), 0),
		Currency:        stringOr(rec.Field("currency"), ""),
		Description:     stringOr(rec.Field("description"), ""),
		Email:           stringOr(rec.Field("email"), ""),
		Metadata:        stringOr(rec.Field("metadata"), ""),
		Merchant:        stringOr(rec.Field("merchant"), ""),
		Recipient:       stringOr(rec.Field("recipient"), ""),
		CreatedAtBlock:  optUint(rec.Field("created-at")),
		ExpiresAtBlock:  optUint(rec.Field("expires-at")),
		PaidAtBlock:     optUint(rec.Field("paid-at")),
		OnChainStatus:   decodeStatus(rec.Field("status")),
		WebhookUrl:      stringOr(rec.Field("webhook-url"), ""),
		PaymentAddress:  stringOr(rec.Field("payment-address"), ""),
		TransactionHash: stringOr(rec.Field("transaction-hash"), ""),
	}
}

// Unrecognized status codes fall through to pending. The contract only ever
// writes 0..2 today; a new code would need an explicit mapping here.
func decodeStatus(r *ledger.RawRecord) OnChainStatus {
	code, ok := r.UnwrapOptional().UintValue()
	if !ok {
		return OnChainStatusPending
	}
	switch code {
	case 1:
		return OnChainStatusPaid
	case 2:
		return OnChainStatusExpired
	default:
		return OnChainStatusPending
	}
}

// optUint reads a value through its some/none discriminant: none or a
// missing field is nil, never zero.
func optUint(r *ledger.RawRecord) *uint64 {
	if v, ok := r.UnwrapOptional().UintValue(); ok {
		return &v
	}
	return nil
}

func uintOr(r *ledger.RawRecord, fallback uint64) uint64 {
	if v, ok := r.UnwrapOptional().UintValue(); ok {
		return v
	}
	return fallback
}

func stringOr(r *ledger.RawRecord, fallback string) string {
	if v, ok := r.UnwrapOptional().StringValue(); ok {
		return v
	}
	return fallback
}
