package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/early-express/inventory-service/internal/domain/shared"
	"github.com/early-express/inventory-service/internal/domain/stock"
	"github.com/early-express/inventory-service/internal/interfaces/http/dto"
)

// RegisterValidations installs the custom binding rules on gin's
// validator. Call once at startup.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hub_location", func(fl validator.FieldLevel) bool {
			return stock.ValidateLocation(fl.Field().String()) == nil
		})
	}
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getUserID extracts the acting user from the X-User-ID header
func getUserID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// parseIDParam parses the :id path parameter
func parseIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// Success sends a 200 response with the standard envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// PartialContent sends a 206 response for partially succeeded batches
func (h *BaseHandler) PartialContent(c *gin.Context, data any) {
	c.JSON(http.StatusPartialContent, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 validation error response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeValidation, message))
}

// HandleError converts domain errors to their HTTP status and envelope.
// Non-domain errors surface as 500 UNKNOWN.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewErrorResponse(domainErr.Code, domainErr.Message))
		return
	}

	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeUnknown, "An unexpected error occurred"))
}
