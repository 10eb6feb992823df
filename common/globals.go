package common

const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusExpired = "expired"

	CurrencySBTC = "sBTC"
	CurrencySTX  = "STX"

	WebhookEventInvoiceCreated = "invoice.created"
	WebhookEventInvoicePaid    = "invoice.paid"
	WebhookEventInvoiceExpired = "invoice.expired"
	WebhookEventTest           = "webhook.test"
)
