package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"scalepos/internal/dto"
	"scalepos/internal/service"
)

type ProductsHandler struct {
	products service.ProductService
	stock    service.StockService
}

func NewProductsHandler(products service.ProductService, stock service.StockService) *ProductsHandler {
	return &ProductsHandler{products: products, stock: stock}
}

// Create godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Product"
// @Success      201 {object} dto.ProductResponse
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/products [post]
func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        barcode   query string false "Exact barcode"
// @Param        name      query string false "Name substring"
// @Param        unit_type query string false "weight | unit"
// @Param        active    query string false "false | all (default: active only)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeServiceError(c, err)
		return
	}
	resp, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Fetch one product, including advisory remaining stock
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByBarcode godoc
// @Summary      Look a product up by barcode (scale/scanner path)
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "Barcode"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/barcode/{barcode} [get]
func (h *ProductsHandler) GetByBarcode(c *gin.Context) {
	resp, err := h.products.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary      Update product master data
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Product UUID"
// @Param        body body dto.UpdateProductRequest true "Fields to change"
// @Success      200 {object} dto.ProductResponse
// @Router       /v1/products/{id} [put]
func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Deactivate godoc
// @Summary      Deactivate a product
// @Tags         products
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      204
// @Router       /v1/products/{id} [delete]
func (h *ProductsHandler) Deactivate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Deactivate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remaining godoc
// @Summary      Advisory remaining stock for one product
// @Description  Remaining = committed stock minus the sum of open-draft
// @Description  reservations. Advisory only: the commit itself re-checks
// @Description  atomically.
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product UUID"
// @Success      200 {object} dto.RemainingResponse
// @Router       /v1/products/{id}/remaining [get]
func (h *ProductsHandler) Remaining(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.stock.Remaining(c.Request.Context(), id, uuid.Nil)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary      Set a product's committed stock directly
// @Description  Permission-gated inventory correction. Records an immutable
// @Description  stock movement with the given reason.
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Product UUID"
// @Param        body body dto.AdjustStockRequest true "New quantity and reason"
// @Success      204
// @Failure      403 {object} apierror.APIError
// @Router       /v1/products/{id}/stock [put]
func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	_, _, perms := sessionOf(c)
	if err := h.stock.AdjustStock(c.Request.Context(), perms, id, req); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Movements godoc
// @Summary      List a product's stock movement ledger, newest first
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "Product UUID"
// @Param        limit query int    false "Max rows (default 50)"
// @Success      200 {array} dto.StockMovementResponse
// @Router       /v1/products/{id}/movements [get]
func (h *ProductsHandler) Movements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	resp, err := h.stock.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LowStock godoc
// @Summary      List active products at or below their minimum stock
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /v1/products/low-stock [get]
func (h *ProductsHandler) LowStock(c *gin.Context) {
	resp, err := h.products.ListLowStock(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
