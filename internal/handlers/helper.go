package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
	"github.com/teachkit/correction-service/internal/services"
)

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := strings.TrimSpace(c.Param(param))
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

// parseCorrectionFilters reads the shared list query parameters.
func parseCorrectionFilters(c *gin.Context) repositories.CorrectionFilters {
	filters := repositories.CorrectionFilters{
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if status := c.Query("status"); status != "" {
		s := models.CorrectionStatus(status)
		filters.Status = &s
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}
	return filters
}

func parseActivityFilters(c *gin.Context) repositories.ActivityFilters {
	filters := repositories.ActivityFilters{
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if kind := c.Query("scoring_kind"); kind != "" {
		k := models.ScoringKind(kind)
		filters.ScoringKind = &k
	}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}
	return filters
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// handleServiceError maps service-layer errors to HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationError,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrCorrectionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Correction not found",
		})
	case errors.Is(err, services.ErrActivityNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Activity not found",
		})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
		})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "No usable field found in the request",
		})
	case errors.Is(err, services.ErrStatusNotSupported):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Status has no defined transition",
			Code:    "STATUS_NOT_SUPPORTED",
		})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid correction status",
		})
	case errors.Is(err, services.ErrBonusNotSupported):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Bonus applies to variable-part activities only",
		})
	case errors.Is(err, services.ErrCorrectionExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Correction already exists for this student and activity",
		})
	case errors.Is(err, services.ErrActivityHasCorrections):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Activity has existing corrections",
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized",
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden",
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
