package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/stackpay/stackpay.go/controllers"
	"github.com/stackpay/stackpay.go/lib/service"
)

func RegisterEndpoints(svc *service.StackpayService, e *echo.Echo, secured *echo.Group, securedWithStrictRateLimit *echo.Group, strictRateLimitMiddleware echo.MiddlewareFunc, adminMw echo.MiddlewareFunc, logMw echo.MiddlewareFunc) {
	invoiceCtrl := controllers.NewInvoiceController(svc)
	merchantCtrl := controllers.NewMerchantController(svc)
	infoCtrl := controllers.NewInfoController(svc)

	e.GET("/healthz", infoCtrl.Health)
	e.GET("/v2/tip", infoCtrl.GetTip, logMw)

	// public checkout surface: payment links read single invoices without auth
	e.GET("/v2/invoices/:id", invoiceCtrl.GetInvoice, logMw)
	e.POST("/v2/invoices/:id/payments", invoiceCtrl.PayInvoice, strictRateLimitMiddleware, logMw)

	e.POST("/v2/merchants", merchantCtrl.CreateMerchant, strictRateLimitMiddleware, adminMw, logMw)
	e.POST("/v2/auth", merchantCtrl.Auth, strictRateLimitMiddleware, adminMw, logMw)

	secured.GET("/v2/invoices", invoiceCtrl.GetInvoices)
	secured.GET("/v2/webhooks/logs", merchantCtrl.GetWebhookLogs)
	securedWithStrictRateLimit.POST("/v2/webhooks/test", merchantCtrl.SendTestWebhook)
}
