package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scalepos/internal/apierror"
	"scalepos/internal/dto"
	"scalepos/internal/middleware"
	"scalepos/internal/policy"
	"scalepos/internal/service"
)

type DraftsHandler struct{ svc service.DraftService }

func NewDraftsHandler(svc service.DraftService) *DraftsHandler { return &DraftsHandler{svc: svc} }

// sessionOf derives the draft-owning session from the access token. One
// register login equals one session, so drafts follow the cashier.
func sessionOf(c *gin.Context) (sessionID string, cashierID uuid.UUID, perms policy.PermissionSet) {
	claims := middleware.GetClaims(c)
	cashierID, _ = uuid.Parse(claims.UserID)
	return claims.UserID, cashierID, policy.ForRole(claims.Role)
}

// Create godoc
// @Summary      Open a new draft order
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Success      201 {object} dto.DraftResponse
// @Router       /v1/drafts [post]
func (h *DraftsHandler) Create(c *gin.Context) {
	sessionID, cashierID, _ := sessionOf(c)
	resp, err := h.svc.Create(c.Request.Context(), sessionID, cashierID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List the session's open drafts, oldest first
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.DraftListResponse
// @Router       /v1/drafts [get]
func (h *DraftsHandler) List(c *gin.Context) {
	sessionID, _, _ := sessionOf(c)
	resp, err := h.svc.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one draft with derived line totals
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft UUID"
// @Success      200 {object} dto.DraftResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/drafts/{id} [get]
func (h *DraftsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sessionID, _, _ := sessionOf(c)
	resp, err := h.svc.Get(c.Request.Context(), sessionID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary      Add a line item to a draft
// @Description  Computes weights, totals and discount server-side, checks the
// @Description  price/discount gates for the cashier's role and reserves stock
// @Description  against remaining availability.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "Draft UUID"
// @Param        body body dto.LineItemRequest true "Line item inputs"
// @Success      200 {object} dto.DraftResponse
// @Failure      403 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/drafts/{id}/items [post]
func (h *DraftsHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.LineItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, _, perms := sessionOf(c)
	resp, err := h.svc.AddLineItem(c.Request.Context(), sessionID, id, perms, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EditItem godoc
// @Summary      Replace a line item's inputs and recompute it
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string              true "Draft UUID"
// @Param        itemId path string              true "Line item UUID"
// @Param        body   body dto.LineItemRequest true "Replacement inputs"
// @Success      200 {object} dto.DraftResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/drafts/{id}/items/{itemId} [put]
func (h *DraftsHandler) EditItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	var req dto.LineItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, _, perms := sessionOf(c)
	resp, err := h.svc.EditLineItem(c.Request.Context(), sessionID, id, itemID, perms, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveItem godoc
// @Summary      Remove a line item, releasing its reservation
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string true "Draft UUID"
// @Param        itemId path string true "Line item UUID"
// @Success      200 {object} dto.DraftResponse
// @Router       /v1/drafts/{id}/items/{itemId} [delete]
func (h *DraftsHandler) RemoveItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "itemId")
	if !ok {
		return
	}
	sessionID, _, _ := sessionOf(c)
	resp, err := h.svc.RemoveLineItem(c.Request.Context(), sessionID, id, itemID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetDiscount godoc
// @Summary      Set the order-level discount
// @Description  Accepts a percent or an absolute amount (normalized to percent
// @Description  against the current subtotal), gated by the cashier's ceiling.
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Draft UUID"
// @Param        body body dto.OrderDiscountRequest true "Discount"
// @Success      200 {object} dto.DraftResponse
// @Failure      403 {object} apierror.APIError
// @Router       /v1/drafts/{id}/discount [put]
func (h *DraftsHandler) SetDiscount(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderDiscountRequest
	if !bindAndValidate(c, &req) {
		return
	}
	sessionID, _, perms := sessionOf(c)
	resp, err := h.svc.SetOrderDiscount(c.Request.Context(), sessionID, id, perms, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetCustomer godoc
// @Summary      Attach a customer account to the draft
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Draft UUID"
// @Param        body body dto.SetCustomerRequest true "Customer"
// @Success      200 {object} dto.DraftResponse
// @Router       /v1/drafts/{id}/customer [put]
func (h *DraftsHandler) SetCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid customer id"))
		return
	}
	sessionID, _, _ := sessionOf(c)
	resp, err := h.svc.SetCustomer(c.Request.Context(), sessionID, id, customerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearCustomer godoc
// @Summary      Detach the customer account from the draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft UUID"
// @Success      200 {object} dto.DraftResponse
// @Router       /v1/drafts/{id}/customer [delete]
func (h *DraftsHandler) ClearCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sessionID, _, _ := sessionOf(c)
	resp, err := h.svc.ClearCustomer(c.Request.Context(), sessionID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discard godoc
// @Summary      Discard an empty draft
// @Description  A draft holding items must be committed or emptied first.
// @Tags         drafts
// @Security     BearerAuth
// @Param        id path string true "Draft UUID"
// @Success      204
// @Failure      422 {object} apierror.APIError
// @Router       /v1/drafts/{id} [delete]
func (h *DraftsHandler) Discard(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sessionID, _, _ := sessionOf(c)
	if err := h.svc.Discard(c.Request.Context(), sessionID, id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
