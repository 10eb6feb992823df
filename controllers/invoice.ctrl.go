package controllers

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stackpay/stackpay.go/ledger"
	"github.com/stackpay/stackpay.go/lib/responses"
	"github.com/stackpay/stackpay.go/lib/service"
)

// InvoiceController : reconciled invoice reads plus payment submission.
type InvoiceController struct {
	svc *service.StackpayService
}

func NewInvoiceController(svc *service.StackpayService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type Invoice struct {
	ID              string     `json:"id"`
	Amount          uint64     `json:"amount"`
	Currency        string     `json:"currency"`
	Description     string     `json:"description"`
	Merchant        string     `json:"merchant"`
	Recipient       string     `json:"recipient"`
	Status          string     `json:"status"`
	IsPaid          bool       `json:"is_paid"`
	CreatedAt       *time.Time `json:"created_at"`
	ExpiresAt       *time.Time `json:"expires_at"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	Metadata        string     `json:"metadata,omitempty"`
	PaymentAddress  string     `json:"payment_address,omitempty"`
	TransactionHash string     `json:"transaction_hash,omitempty"`
}

type GetInvoicesResponseBody struct {
	Invoices []Invoice `json:"invoices"`
	Stale    bool      `json:"stale"`
}

// GetInvoices returns the reconciled invoice list. Within the staleness
// window this is served from cache; pass refresh=true to force a ledger walk.
// When the refresh fails the last good list is returned with stale=true.
func (controller *InvoiceController) GetInvoices(c echo.Context) error {
	filter := service.InvoiceFilter{
		Merchant: c.QueryParam("merchant"),
		OnlyPaid: c.QueryParam("only_paid") == "true",
	}
	if merchantId, ok := c.Get("MerchantID").(string); ok && merchantId != "" {
		filter.Merchant = merchantId
	}
	forceRefresh := c.QueryParam("refresh") == "true"

	invoices, stale, err := controller.svc.Cache.GetInvoices(c.Request().Context(), filter, forceRefresh)
	if invoices == nil && err != nil {
		c.Logger().Errorf("Failed to reconcile invoices: %v", err)
		return c.JSON(responses.LedgerUnavailableError.HttpStatusCode, responses.LedgerUnavailableError)
	}

	tip := controller.svc.Oracle.CurrentTip()
	response := make([]Invoice, len(invoices))
	for i := range invoices {
		response[i] = controller.renderInvoice(&invoices[i], tip)
	}
	return c.JSON(http.StatusOK, &GetInvoicesResponseBody{Invoices: response, Stale: stale})
}

// GetInvoice returns one invoice by its ledger id.
func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	invoice, _, err := controller.svc.GetInvoice(c.Request().Context(), c.Param("id"), c.QueryParam("refresh") == "true")
	if err != nil && invoice == nil {
		c.Logger().Errorf("Failed to look up invoice %s: %v", c.Param("id"), err)
		return c.JSON(responses.LedgerUnavailableError.HttpStatusCode, responses.LedgerUnavailableError)
	}
	if invoice == nil {
		return c.JSON(responses.InvoiceNotFoundError.HttpStatusCode, responses.InvoiceNotFoundError)
	}
	response := controller.renderInvoice(invoice, controller.svc.Oracle.CurrentTip())
	return c.JSON(http.StatusOK, &response)
}

type PayInvoiceRequestBody struct {
	Amount         uint64 `json:"amount" validate:"required,gt=0"`
	ProofHex       string `json:"proof" validate:"required"`
	TokenPrincipal string `json:"token_principal"`
}

type PayInvoiceResponseBody struct {
	TransactionID string `json:"transaction_id"`
}

// PayInvoice broadcasts a caller-signed payment for an invoice.
func (controller *InvoiceController) PayInvoice(c echo.Context) error {
	body := PayInvoiceRequestBody{}
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load payment request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid payment request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	proof, err := hex.DecodeString(body.ProofHex)
	if err != nil {
		c.Logger().Errorf("Payment proof is not valid hex: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	resp, err := controller.svc.SubmitPayment(c.Request().Context(), &ledger.SubmitPaymentRequest{
		InvoiceID:      c.Param("id"),
		Amount:         body.Amount,
		Proof:          proof,
		TokenPrincipal: body.TokenPrincipal,
	})
	if err != nil {
		c.Logger().Errorf("Failed to submit payment for invoice %s: %v", c.Param("id"), err)
		return c.JSON(responses.LedgerUnavailableError.HttpStatusCode, responses.LedgerUnavailableError)
	}
	return c.JSON(http.StatusOK, &PayInvoiceResponseBody{TransactionID: resp.TransactionID})
}

func (controller *InvoiceController) renderInvoice(invoice *service.Invoice, tip *service.ChainTip) Invoice {
	now := time.Now()
	status := service.ResolveStatus(invoice, tip)
	return Invoice{
		ID:              invoice.ID,
		Amount:          invoice.Amount,
		Currency:        invoice.Currency,
		Description:     invoice.Description,
		Merchant:        invoice.Merchant,
		Recipient:       invoice.Recipient,
		Status:          string(status),
		IsPaid:          status == service.StatusPaid,
		CreatedAt:       controller.svc.Oracle.BlockToWallClock(invoice.CreatedAtBlock, tip, now),
		ExpiresAt:       controller.svc.Oracle.BlockToWallClock(invoice.ExpiresAtBlock, tip, now),
		PaidAt:          controller.svc.Oracle.BlockToWallClock(invoice.PaidAtBlock, tip, now),
		Metadata:        invoice.Metadata,
		PaymentAddress:  invoice.PaymentAddress,
		TransactionHash: invoice.TransactionHash,
	}
}
