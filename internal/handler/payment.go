package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dstanley/maplecart/internal/domain"
)

type savePaymentCardRequest struct {
	ProviderCustomerRef string `json:"provider_customer_ref" validate:"required,max=255"`
	ProviderCardRef     string `json:"provider_card_ref" validate:"required,max=255"`
	Brand               string `json:"brand" validate:"required,max=20"`
	Last4               string `json:"last4" validate:"required,len=4,numeric"`
	ExpMonth            int32  `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear             int32  `json:"exp_year" validate:"required,min=2000"`
}

func (h *Handler) savePaymentCard(c echo.Context) error {
	var req savePaymentCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	card, err := h.payment.Save(c.Request().Context(), domain.PaymentCard{
		ProviderCustomerRef: req.ProviderCustomerRef,
		ProviderCardRef:     req.ProviderCardRef,
		Brand:               req.Brand,
		Last4:               req.Last4,
		ExpMonth:            req.ExpMonth,
		ExpYear:             req.ExpYear,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (h *Handler) getPaymentCard(c echo.Context) error {
	card, err := h.payment.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, card)
}
