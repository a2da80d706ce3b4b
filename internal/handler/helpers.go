package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"scalepos/internal/apierror"
	"scalepos/internal/policy"
	"scalepos/internal/repository"
	"scalepos/internal/service"
	"scalepos/internal/settlement"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// writeServiceError maps domain errors to status codes and machine-readable
// codes so the register UI can prompt the cashier with a specific action
// (retry on stock_conflict, call a supervisor on permission_denied, ...).
func writeServiceError(c *gin.Context, err error) {
	var denied *policy.DeniedError
	var missing *settlement.MissingFieldError
	var mismatch *settlement.MismatchError

	switch {
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, apierror.NewCoded("permission_denied", denied.Error()))
	case errors.Is(err, service.ErrStockConflict):
		c.JSON(http.StatusConflict, apierror.NewCoded("stock_conflict", err.Error()))
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, apierror.NewCoded("insufficient_stock", err.Error()))
	case errors.Is(err, repository.ErrDraftNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.NewCoded("not_found", "resource not found"))
	case errors.Is(err, service.ErrNotDraftOwner):
		c.JSON(http.StatusForbidden, apierror.NewCoded("not_draft_owner", err.Error()))
	case errors.Is(err, service.ErrDraftEmpty),
		errors.Is(err, service.ErrDraftNotEmpty),
		errors.Is(err, service.ErrInvalidWeight),
		errors.Is(err, service.ErrBoxExceedsItem),
		errors.Is(err, service.ErrOrderNotRefundable):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCoded("invalid_state", err.Error()))
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCoded("missing_payment_field", missing.Error()))
	case errors.As(err, &mismatch):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCoded("payment_mismatch", mismatch.Error()))
	case errors.Is(err, settlement.ErrMissingCustomer),
		errors.Is(err, settlement.ErrNoInstruments):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewCoded("invalid_payment", err.Error()))
	default:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

// parseID parses a path parameter as a UUID, writing the 400 itself.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
