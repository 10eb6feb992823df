package controllers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stackpay/stackpay.go/lib/service"
)

type InfoController struct {
	svc *service.StackpayService
}

func NewInfoController(svc *service.StackpayService) *InfoController {
	return &InfoController{svc: svc}
}

type TipResponseBody struct {
	Height     uint64    `json:"height"`
	ObservedAt time.Time `json:"observed_at"`
}

// GetTip returns the last observed chain tip.
func (controller *InfoController) GetTip(c echo.Context) error {
	tip := controller.svc.Oracle.CurrentTip()
	if tip == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "no chain tip observed yet"})
	}
	return c.JSON(http.StatusOK, &TipResponseBody{Height: tip.Height, ObservedAt: tip.ObservedAt})
}

func (controller *InfoController) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
