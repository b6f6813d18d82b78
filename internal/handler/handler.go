// Package handler exposes the HTTP API. Handlers stay thin: bind and
// validate the request, call the service, translate the domain error.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dstanley/maplecart/internal/service"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	accounts service.AccountService
	catalog  service.CatalogService
	carts    service.CartService
	checkout service.CheckoutService
	orders   service.OrderService
	address  service.AddressService
	payment  service.PaymentService
	logger   *slog.Logger
}

func New(
	accounts service.AccountService,
	catalog service.CatalogService,
	carts service.CartService,
	checkout service.CheckoutService,
	orders service.OrderService,
	address service.AddressService,
	payment service.PaymentService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts: accounts,
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		address:  address,
		payment:  payment,
		logger:   logger,
	}
}

// RegisterRoutes mounts the API. Routes under /me require an identity;
// requireUser is the middleware gate for those groups.
func (h *Handler) RegisterRoutes(e *echo.Echo, requireUser echo.MiddlewareFunc) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.POST("/accounts", h.register)
	e.GET("/products", h.listProducts)
	e.GET("/products/:id", h.getProduct)

	me := e.Group("/me", requireUser)
	me.GET("", h.me)

	me.POST("/addresses", h.createAddress)
	me.GET("/addresses", h.listAddresses)
	me.DELETE("/addresses/:id", h.deleteAddress)

	me.PUT("/payment-card", h.savePaymentCard)
	me.GET("/payment-card", h.getPaymentCard)

	me.GET("/cart", h.getCart)
	me.POST("/cart/items/:productID", h.addToCart)
	me.PATCH("/cart/items/:productID/decrement", h.decrementInCart)
	me.DELETE("/cart/items/:productID", h.removeFromCart)

	me.POST("/checkout", h.startCheckout)
	me.GET("/checkout", h.getCheckout)
	me.PUT("/checkout/shipping-address", h.setCheckoutShipping)
	me.PUT("/checkout/billing-address", h.setCheckoutBilling)
	me.PUT("/checkout/payment-card", h.setCheckoutPaymentCard)
	me.PUT("/checkout/stage", h.setCheckoutStage)
	me.DELETE("/checkout", h.abandonCheckout)

	me.POST("/orders", h.commitOrder)
	me.GET("/orders", h.listOrders)
	me.GET("/orders/:id", h.getOrder)
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := parseInt64(c.Param(name))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
