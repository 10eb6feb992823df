package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stackpay/stackpay.go/lib/responses"
	"github.com/stackpay/stackpay.go/lib/service"
	"github.com/stackpay/stackpay.go/lib/tokens"
)

// MerchantController : merchant bookkeeping rows and dashboard tokens.
type MerchantController struct {
	svc *service.StackpayService
}

func NewMerchantController(svc *service.StackpayService) *MerchantController {
	return &MerchantController{svc: svc}
}

type CreateMerchantRequestBody struct {
	Principal  string `json:"principal" validate:"required"`
	Name       string `json:"name"`
	WebhookUrl string `json:"webhook_url" validate:"omitempty,url"`
}

type CreateMerchantResponseBody struct {
	Principal   string `json:"principal"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// CreateMerchant registers a merchant profile and returns its dashboard
// token. Admin-token protected.
func (controller *MerchantController) CreateMerchant(c echo.Context) error {
	body := CreateMerchantRequestBody{}
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create merchant request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create merchant request body: %v", err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	merchant, err := controller.svc.CreateMerchant(c.Request().Context(), body.Principal, body.Name, body.WebhookUrl)
	if err != nil {
		return err
	}
	accessToken, err := tokens.GenerateAccessToken(controller.svc.Config.JWTSecret, controller.svc.Config.JWTExpiry, merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &CreateMerchantResponseBody{
		Principal:   merchant.Principal,
		Name:        merchant.Name,
		AccessToken: accessToken,
	})
}

type AuthRequestBody struct {
	Principal string `json:"principal" validate:"required"`
}

type AuthResponseBody struct {
	AccessToken string `json:"access_token"`
}

// Auth re-issues a dashboard token for a registered merchant. Admin-token
// protected: principals are public strings, possession of one proves nothing.
func (controller *MerchantController) Auth(c echo.Context) error {
	body := AuthRequestBody{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}

	merchant, err := controller.svc.FindMerchant(c.Request().Context(), body.Principal)
	if err != nil {
		return c.JSON(responses.MerchantNotFoundError.HttpStatusCode, responses.MerchantNotFoundError)
	}
	accessToken, err := tokens.GenerateAccessToken(controller.svc.Config.JWTSecret, controller.svc.Config.JWTExpiry, merchant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, &AuthResponseBody{AccessToken: accessToken})
}

// SendTestWebhook fires a sample event at the authenticated merchant's
// webhook endpoint.
func (controller *MerchantController) SendTestWebhook(c echo.Context) error {
	merchantId, ok := c.Get("MerchantID").(string)
	if !ok || merchantId == "" {
		return c.JSON(responses.BadAuthError.HttpStatusCode, responses.BadAuthError)
	}
	if err := controller.svc.SendTestWebhook(c.Request().Context(), merchantId); err != nil {
		c.Logger().Errorf("Failed to send test webhook for merchant %s: %v", merchantId, err)
		return c.JSON(responses.BadArgumentsError.HttpStatusCode, responses.BadArgumentsError)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "sent"})
}

// GetWebhookLogs returns recent webhook delivery attempts for the
// authenticated merchant.
func (controller *MerchantController) GetWebhookLogs(c echo.Context) error {
	merchantId, ok := c.Get("MerchantID").(string)
	if !ok || merchantId == "" {
		return c.JSON(responses.BadAuthError.HttpStatusCode, responses.BadAuthError)
	}
	logs, err := controller.svc.WebhookLogsFor(c.Request().Context(), merchantId, 100)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logs)
}
