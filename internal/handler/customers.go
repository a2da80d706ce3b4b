package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scalepos/internal/dto"
	"scalepos/internal/service"
)

type CustomersHandler struct{ svc service.CustomerService }

func NewCustomersHandler(svc service.CustomerService) *CustomersHandler {
	return &CustomersHandler{svc: svc}
}

// Create godoc
// @Summary      Register a customer account
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateCustomerRequest true "Customer"
// @Success      201 {object} dto.CustomerResponse
// @Router       /v1/customers [post]
func (h *CustomersHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      Search customers by name
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        name query string false "Name substring"
// @Success      200 {array} dto.CustomerResponse
// @Router       /v1/customers [get]
func (h *CustomersHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one customer with credit balances
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Customer UUID"
// @Success      200 {object} dto.CustomerResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/customers/{id} [get]
func (h *CustomersHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GrantCredit godoc
// @Summary      Grant admin credit to a customer
// @Description  Adds to the admin credit tier, the first to be cleared when
// @Description  the customer pays. Supervisor or admin only.
// @Tags         customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Customer UUID"
// @Param        body body dto.GrantCreditRequest true "Amount and reason"
// @Success      200 {object} dto.CustomerResponse
// @Router       /v1/customers/{id}/credit [post]
func (h *CustomersHandler) GrantCredit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.GrantCreditRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.GrantCredit(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movements godoc
// @Summary      List a customer's credit movement ledger, newest first
// @Tags         customers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Customer UUID"
// @Success      200 {array} dto.CreditMovementResponse
// @Router       /v1/customers/{id}/movements [get]
func (h *CustomersHandler) Movements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
