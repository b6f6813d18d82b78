package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type checkoutAddressRequest struct {
	AddressID int64 `json:"address_id" validate:"required,gt=0"`
}

type checkoutStageRequest struct {
	Stage string `json:"stage" validate:"required"`
}

func (h *Handler) startCheckout(c echo.Context) error {
	session, err := h.checkout.Start(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *Handler) getCheckout(c echo.Context) error {
	session, err := h.checkout.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) setCheckoutShipping(c echo.Context) error {
	var req checkoutAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	session, err := h.checkout.SetShippingAddress(c.Request().Context(), req.AddressID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) setCheckoutBilling(c echo.Context) error {
	var req checkoutAddressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	session, err := h.checkout.SetBillingAddress(c.Request().Context(), req.AddressID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) setCheckoutPaymentCard(c echo.Context) error {
	session, err := h.checkout.SetPaymentCard(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) setCheckoutStage(c echo.Context) error {
	var req checkoutStageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	session, err := h.checkout.SetStage(c.Request().Context(), req.Stage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) abandonCheckout(c echo.Context) error {
	if err := h.checkout.Abandon(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
