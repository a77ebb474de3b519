package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachkit/correction-service/internal/services"
	"github.com/teachkit/correction-service/internal/utils"
	"github.com/teachkit/correction-service/internal/validator"
)

type ActivityHandler struct {
	BaseHandler
	activityService   services.ActivityService
	correctionService services.CorrectionService
	exportService     services.ExportService
	validator         *validator.Validator
}

func NewActivityHandler(
	activityService services.ActivityService,
	correctionService services.CorrectionService,
	exportService services.ExportService,
	v *validator.Validator,
	logger utils.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		BaseHandler:       NewBaseHandler(logger),
		activityService:   activityService,
		correctionService: correctionService,
		exportService:     exportService,
		validator:         v,
	}
}

// CreateActivity creates an activity with its score scale
// @Summary Create activity
// @Description Creates an activity; the two-part family always gets the canonical part names
// @Tags activities
// @Accept json
// @Produce json
// @Param activity body services.CreateActivityRequest true "Activity data"
// @Success 201 {object} services.ActivityResponse
// @Failure 400 {object} ErrorResponse
// @Router /activities [post]
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating activity", "title", req.Title, "scoring_kind", req.ScoringKind)

	resp, err := h.activityService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetActivity returns one activity with its score scale
// @Summary Get activity
// @Tags activities
// @Produce json
// @Param id path uint true "Activity ID"
// @Success 200 {object} services.ActivityResponse
// @Failure 404 {object} ErrorResponse
// @Router /activities/{id} [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.activityService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateActivity changes descriptive fields; the score scale is immutable
// @Summary Update activity
// @Tags activities
// @Accept json
// @Produce json
// @Param id path uint true "Activity ID"
// @Param activity body services.UpdateActivityRequest true "Fields to change"
// @Success 200 {object} services.ActivityResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /activities/{id} [put]
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating activity", "activity_id", id)

	resp, err := h.activityService.Update(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListActivities lists activities with filters and pagination
// @Summary List activities
// @Tags activities
// @Produce json
// @Success 200 {object} services.ActivityListResponse
// @Router /activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	resp, err := h.activityService.List(c.Request.Context(), parseActivityFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteActivity removes an activity without corrections
// @Summary Delete activity
// @Tags activities
// @Param id path uint true "Activity ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /activities/{id} [delete]
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting activity", "activity_id", id)

	if err := h.activityService.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Activity deleted",
	})
}

// GetActivityStats returns grade statistics for an activity
// @Summary Activity grade stats
// @Tags activities
// @Produce json
// @Param id path uint true "Activity ID"
// @Success 200 {object} repositories.ActivityGradeStats
// @Failure 404 {object} ErrorResponse
// @Router /activities/{id}/stats [get]
func (h *ActivityHandler) GetActivityStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.activityService.GetGradeStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListActivityCorrections lists the corrections of one activity
// @Summary List corrections by activity
// @Tags activities
// @Produce json
// @Param id path uint true "Activity ID"
// @Success 200 {object} services.CorrectionListResponse
// @Failure 404 {object} ErrorResponse
// @Router /activities/{id}/corrections [get]
func (h *ActivityHandler) ListActivityCorrections(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.correctionService.ListByActivity(c.Request.Context(), id, parseCorrectionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportActivityCorrections streams an xlsx file of the activity's corrections
// @Summary Export corrections
// @Tags activities
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Activity ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /activities/{id}/export [get]
func (h *ActivityHandler) ExportActivityCorrections(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting activity corrections", "activity_id", id)

	result, err := h.exportService.ExportActivityCorrections(c.Request.Context(), id, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
