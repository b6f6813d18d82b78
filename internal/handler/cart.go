package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (h *Handler) getCart(c echo.Context) error {
	view, err := h.carts.GetCart(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) addToCart(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return err
	}
	view, err := h.carts.AddProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) decrementInCart(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return err
	}
	view, err := h.carts.DecrementProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) removeFromCart(c echo.Context) error {
	productID, err := pathID(c, "productID")
	if err != nil {
		return err
	}
	view, err := h.carts.DeleteProduct(c.Request().Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
