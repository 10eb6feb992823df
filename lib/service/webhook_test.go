package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stackpay/stackpay.go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickWebhookUrl(t *testing.T) {
	assert.Equal(t, "invoice", pickWebhookUrl("invoice", "merchant", "global"))
	assert.Equal(t, "merchant", pickWebhookUrl("", "merchant", "global"))
	assert.Equal(t, "global", pickWebhookUrl("", "", "global"))
	assert.Empty(t, pickWebhookUrl("", "", ""))
}

func TestPostToWebhookUsesInvoiceUrl(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer server.Close()

	// no global webhook url configured, the invoice carries its own
	svc := newTestService(&mockLedger{})
	invoice := Invoice{
		ID:         "inv-a",
		Amount:     1500,
		Currency:   common.CurrencySBTC,
		Merchant:   "SP1MERCHANT",
		WebhookUrl: server.URL,
	}

	svc.postToWebhook(context.Background(), InvoiceEvent{Type: common.WebhookEventInvoicePaid, Invoice: invoice})

	select {
	case payload := <-received:
		assert.Equal(t, common.WebhookEventInvoicePaid, payload.Event)
		assert.Equal(t, "SP1MERCHANT", payload.MerchantID)
		assert.Equal(t, "inv-a", payload.Data.InvoiceID)
		assert.Equal(t, "1500", payload.Data.AmountSatoshis)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never delivered")
	}
}

func TestPostToWebhookSkipsWithoutUrl(t *testing.T) {
	svc := newTestService(&mockLedger{})
	// no invoice, merchant or global url: must be a no-op, not a panic
	svc.postToWebhook(context.Background(), InvoiceEvent{
		Type:    common.WebhookEventInvoicePaid,
		Invoice: Invoice{ID: "inv-a", Merchant: "SP1MERCHANT"},
	})
}

func TestSendTestWebhookWithoutUrl(t *testing.T) {
	svc := newTestService(&mockLedger{})
	assert.Error(t, svc.SendTestWebhook(context.Background(), "SP1MERCHANT"))
}

func TestSendTestWebhookDelivers(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer server.Close()

	svc := newTestService(&mockLedger{})
	svc.Config.WebhookUrl = server.URL

	require.NoError(t, svc.SendTestWebhook(context.Background(), "SP1MERCHANT"))

	select {
	case payload := <-received:
		assert.Equal(t, common.WebhookEventTest, payload.Event)
		assert.Equal(t, "SP1MERCHANT", payload.MerchantID)
	case <-time.After(2 * time.Second):
		t.Fatal("test webhook was never delivered")
	}
}
