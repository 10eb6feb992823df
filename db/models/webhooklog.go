package models

import (
	"time"
)

// WebhookLog : one delivery attempt for a webhook event. Pure bookkeeping,
// never read back into invoice state.
type WebhookLog struct {
	ID             int64     `json:"id" bun:",pk,autoincrement"`
	InvoiceID      string    `json:"invoice_id" bun:",notnull"`
	MerchantID     string    `json:"merchant_id"`
	WebhookUrl     string    `json:"webhook_url" bun:",notnull"`
	EventType      string    `json:"event_type" bun:",notnull"`
	Payload        string    `json:"payload" bun:",nullzero"`
	ResponseStatus int       `json:"response_status" bun:",nullzero"`
	ResponseBody   string    `json:"response_body" bun:",nullzero"`
	Success        bool      `json:"success"`
	CreatedAt      time.Time `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
