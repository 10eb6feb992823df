package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/stackpay/stackpay.go/common"
	"github.com/stackpay/stackpay.go/db/models"
)

// deliveries get a bounded timeout so a hung merchant endpoint cannot pin the
// subscriber loop
var webhookClient = &http.Client{Timeout: 10 * time.Second}

const webhookEventBuffer = 64

type WebhookInvoiceData struct {
	InvoiceID      string `json:"invoice_id"`
	AmountSatoshis string `json:"amount_satoshis"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	Description    string `json:"description"`
	PaymentAddress string `json:"payment_address,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	ExpiresAt      string `json:"expires_at,omitempty"`
	PaidAt         string `json:"paid_at,omitempty"`
	Metadata       string `json:"metadata,omitempty"`
}

type WebhookPayload struct {
	ID         string             `json:"id"`
	Event      string             `json:"event"`
	Timestamp  string             `json:"timestamp"`
	MerchantID string             `json:"merchant_id"`
	Live       bool               `json:"live"`
	Data       WebhookInvoiceData `json:"data"`
}

// StartWebhookSubscription forwards invoice status transitions to the
// webhook endpoint resolved per event (invoice url, then merchant profile,
// then the global config). Delivery is best-effort: one attempt, outcome
// recorded in the webhook log table. The log is bookkeeping, never an input
// to invoice state.
func (svc *StackpayService) StartWebhookSubscription(ctx context.Context) {
	svc.Logger.Info("Starting webhook subscription")
	paidEvents := make(chan InvoiceEvent, webhookEventBuffer)
	expiredEvents := make(chan InvoiceEvent, webhookEventBuffer)
	paidSub := svc.InvoicePubSub.Subscribe(string(StatusPaid), paidEvents)
	expiredSub := svc.InvoicePubSub.Subscribe(string(StatusExpired), expiredEvents)
	defer svc.InvoicePubSub.Unsubscribe(paidSub, string(StatusPaid))
	defer svc.InvoicePubSub.Unsubscribe(expiredSub, string(StatusExpired))
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-paidEvents:
			svc.postToWebhook(ctx, event)
		case event := <-expiredEvents:
			svc.postToWebhook(ctx, event)
		}
	}
}

// SendTestWebhook posts a sample payload to the merchant's webhook endpoint
// so integrations can be verified before real traffic arrives.
func (svc *StackpayService) SendTestWebhook(ctx context.Context, merchantPrincipal string) error {
	invoice := Invoice{
		ID:          "inv-test",
		Amount:      1000,
		Currency:    common.CurrencySBTC,
		Description: "Test webhook delivery",
		Merchant:    merchantPrincipal,
	}
	if svc.webhookUrlFor(ctx, &invoice) == "" {
		return fmt.Errorf("no webhook url configured for merchant %s", merchantPrincipal)
	}
	svc.postToWebhook(ctx, InvoiceEvent{Type: common.WebhookEventTest, Invoice: invoice})
	return nil
}

func (svc *StackpayService) postToWebhook(ctx context.Context, event InvoiceEvent) {
	url := svc.webhookUrlFor(ctx, &event.Invoice)
	if url == "" {
		return
	}

	payloadBytes, err := json.Marshal(svc.webhookPayload(event))
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	logEntry := models.WebhookLog{
		InvoiceID:  event.Invoice.ID,
		MerchantID: event.Invoice.Merchant,
		WebhookUrl: url,
		EventType:  event.Type,
		Payload:    string(payloadBytes),
	}

	resp, err := webhookClient.Post(url, "application/json", bytes.NewReader(payloadBytes))
	if err != nil {
		svc.Logger.Error(err)
		logEntry.ResponseBody = err.Error()
	} else {
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			svc.Logger.Error(err)
		}
		logEntry.ResponseStatus = resp.StatusCode
		logEntry.ResponseBody = string(body)
		logEntry.Success = resp.StatusCode == http.StatusOK
		if !logEntry.Success {
			svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, body)
		}
	}

	if svc.DB == nil {
		return
	}
	if _, err := svc.DB.NewInsert().Model(&logEntry).Exec(ctx); err != nil {
		svc.Logger.Errorf("Failed to record webhook log for invoice %s: %v", event.Invoice.ID, err)
	}
}

// webhookUrlFor resolves the delivery target for one event: the invoice's own
// webhook-url wins, then the merchant profile row, then the global fallback.
func (svc *StackpayService) webhookUrlFor(ctx context.Context, invoice *Invoice) string {
	merchantUrl := ""
	if svc.DB != nil && invoice.Merchant != "" {
		if merchant, err := svc.FindMerchant(ctx, invoice.Merchant); err == nil {
			merchantUrl = merchant.WebhookUrl
		}
	}
	return pickWebhookUrl(invoice.WebhookUrl, merchantUrl, svc.Config.WebhookUrl)
}

func pickWebhookUrl(invoiceUrl, merchantUrl, globalUrl string) string {
	if invoiceUrl != "" {
		return invoiceUrl
	}
	if merchantUrl != "" {
		return merchantUrl
	}
	return globalUrl
}

func (svc *StackpayService) webhookPayload(event InvoiceEvent) WebhookPayload {
	now := time.Now()
	tip := svc.Oracle.CurrentTip()
	invoice := event.Invoice
	data := WebhookInvoiceData{
		InvoiceID:      invoice.ID,
		AmountSatoshis: strconv.FormatUint(invoice.Amount, 10),
		Currency:       invoice.Currency,
		Status:         string(ResolveStatus(&invoice, tip)),
		Description:    invoice.Description,
		PaymentAddress: invoice.PaymentAddress,
		Metadata:       invoice.Metadata,
	}
	if t := svc.Oracle.BlockToWallClock(invoice.CreatedAtBlock, tip, now); t != nil {
		data.CreatedAt = t.Format(time.RFC3339)
	}
	if t := svc.Oracle.BlockToWallClock(invoice.ExpiresAtBlock, tip, now); t != nil {
		data.ExpiresAt = t.Format(time.RFC3339)
	}
	if t := svc.Oracle.BlockToWallClock(invoice.PaidAtBlock, tip, now); t != nil {
		data.PaidAt = t.Format(time.RFC3339)
	}
	return WebhookPayload{
		ID:         "wh_" + random.String(12, random.Alphanumeric),
		Event:      event.Type,
		Timestamp:  now.Format(time.RFC3339),
		MerchantID: invoice.Merchant,
		Live:       true,
		Data:       data,
	}
}
