package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scalepos/internal/dto"
	"scalepos/internal/service"
)

type OrdersHandler struct {
	orders  service.OrderService
	refunds service.RefundService
}

func NewOrdersHandler(orders service.OrderService, refunds service.RefundService) *OrdersHandler {
	return &OrdersHandler{orders: orders, refunds: refunds}
}

// Commit godoc
// @Summary      Settle and commit a draft order
// @Description  Validates the payment instruments against total due (customer
// @Description  balance plus order total), then atomically decrements stock,
// @Description  persists the order and applies credit movements. On a stock
// @Description  conflict the draft is left open for a retry.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string            true "Draft UUID"
// @Param        body body dto.CommitRequest true "Payment instruments"
// @Success      201 {object} dto.OrderResponse
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/drafts/{id}/commit [post]
func (h *OrdersHandler) Commit(c *gin.Context) {
	draftID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CommitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, cashierID, _ := sessionOf(c)
	resp, err := h.orders.Commit(c.Request.Context(), sessionID, draftID, cashierID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Void godoc
// @Summary      Void a committed order
// @Description  Restocks every line, reverses credit movements and marks the
// @Description  order voided. Requires the void permission.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string          true "Order UUID"
// @Param        body body dto.VoidRequest true "Reason"
// @Success      204
// @Failure      403 {object} apierror.APIError
// @Router       /v1/orders/{id} [delete]
func (h *OrdersHandler) Void(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.VoidRequest
	if !bindAndValidate(c, &req) {
		return
	}
	_, _, perms := sessionOf(c)
	if err := h.orders.Void(c.Request.Context(), perms, id, req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get godoc
// @Summary      Fetch one order with its settlement breakdown
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {object} dto.OrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        date        query string false "Date YYYY-MM-DD (default: today)"
// @Param        status      query string false "completed | refunded | partially_refunded | voided | all"
// @Param        customer_id query string false "Filter by customer"
// @Param        page        query int    false "Page (default 1)"
// @Param        limit       query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.OrderListResponse
// @Router       /v1/orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeServiceError(c, err)
		return
	}
	resp, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refund godoc
// @Summary      Refund an order
// @Description  Full, pro-rata by amount, or itemized by returned quantities.
// @Description  Restocks returned goods and keeps an immutable refund record.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string            true "Order UUID"
// @Param        body body dto.RefundRequest true "Refund request"
// @Success      201 {object} dto.RefundResponse
// @Failure      403 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/orders/{id}/refunds [post]
func (h *OrdersHandler) Refund(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.RefundRequest
	if !bindAndValidate(c, &req) {
		return
	}
	_, cashierID, perms := sessionOf(c)
	resp, err := h.refunds.Refund(c.Request.Context(), perms, cashierID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListRefunds godoc
// @Summary      List an order's refunds
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order UUID"
// @Success      200 {array} dto.RefundResponse
// @Router       /v1/orders/{id}/refunds [get]
func (h *OrdersHandler) ListRefunds(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.refunds.ListByOrder(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
