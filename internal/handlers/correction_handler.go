package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachkit/correction-service/internal/services"
	"github.com/teachkit/correction-service/internal/utils"
	"github.com/teachkit/correction-service/internal/validator"
)

type CorrectionHandler struct {
	BaseHandler
	correctionService services.CorrectionService
	validator         *validator.Validator
}

func NewCorrectionHandler(
	correctionService services.CorrectionService,
	v *validator.Validator,
	logger utils.Logger,
) *CorrectionHandler {
	return &CorrectionHandler{
		BaseHandler:       NewBaseHandler(logger),
		correctionService: correctionService,
		validator:         v,
	}
}

// CreateCorrection creates a correction for one student
// @Summary Create correction
// @Description Creates a correction row for a student/activity pair
// @Tags corrections
// @Accept json
// @Produce json
// @Param correction body services.CreateCorrectionRequest true "Correction data"
// @Success 201 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /corrections [post]
func (h *CorrectionHandler) CreateCorrection(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.CreateCorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating correction", "activity_id", req.ActivityID, "student_id", req.StudentID)

	resp, err := h.correctionService.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CreateCorrectionsBatch creates corrections for a list of students
// @Summary Batch create corrections
// @Description Creates correction rows for several students of one activity; students already having one are skipped
// @Tags corrections
// @Accept json
// @Produce json
// @Param batch body services.BatchCreateCorrectionsRequest true "Batch data"
// @Success 201 {object} services.BatchCreateResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/batch [post]
func (h *CorrectionHandler) CreateCorrectionsBatch(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}

	var req services.BatchCreateCorrectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating corrections batch", "activity_id", req.ActivityID, "students", len(req.StudentIDs))

	result, err := h.correctionService.CreateBatch(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetCorrection returns one correction with its part breakdown
// @Summary Get correction
// @Tags corrections
// @Produce json
// @Param id path uint true "Correction ID"
// @Success 200 {object} services.CorrectionResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id} [get]
func (h *CorrectionHandler) GetCorrection(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.correctionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListCorrectionsByStudent lists a student's corrections across activities
// @Summary List corrections by student
// @Tags corrections
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.CorrectionListResponse
// @Router /corrections/student/{student_id} [get]
func (h *CorrectionHandler) ListCorrectionsByStudent(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	resp, err := h.correctionService.ListByStudent(c.Request.Context(), studentID, parseCorrectionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateGrade updates earned points and/or penalty, recomputing both grades
// @Summary Update grade
// @Description Applies a partial numeric update; malformed numeric values coerce to 0
// @Tags corrections
// @Accept json
// @Produce json
// @Param id path uint true "Correction ID"
// @Param grade body services.UpdateGradeRequest true "Points and/or penalty"
// @Success 200 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id}/grade [put]
func (h *CorrectionHandler) UpdateGrade(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating grade", "correction_id", id)

	resp, err := h.correctionService.UpdateGrade(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePenalty sets the penalty and recomputes from stored points
// @Summary Update penalty
// @Tags corrections
// @Accept json
// @Produce json
// @Param id path uint true "Correction ID"
// @Param penalty body services.UpdatePenaltyRequest true "Penalty"
// @Success 200 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id}/penalty [put]
func (h *CorrectionHandler) UpdatePenalty(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdatePenaltyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating penalty", "correction_id", id)

	resp, err := h.correctionService.UpdatePenalty(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateBonus sets the bonus (variable-part family only) and recomputes
// @Summary Update bonus
// @Tags corrections
// @Accept json
// @Produce json
// @Param id path uint true "Correction ID"
// @Param bonus body services.UpdateBonusRequest true "Bonus"
// @Success 200 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /corrections/{id}/bonus [put]
func (h *CorrectionHandler) UpdateBonus(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating bonus", "correction_id", id)

	resp, err := h.correctionService.UpdateBonus(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateStatus moves the correction through the status machine
// @Summary Update status
// @Description Applies ACTIVE, DEACTIVATED, ABSENT or NON_RENDU with their numeric side effects; DISPENSE is rejected with 422
// @Tags corrections
// @Accept json
// @Produce json
// @Param id path uint true "Correction ID"
// @Param status body services.UpdateStatusRequest true "Target status"
// @Success 200 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /corrections/{id}/status [put]
func (h *CorrectionHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating status", "correction_id", id, "status", req.Status)

	resp, err := h.correctionService.UpdateStatus(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateDates changes deadline and/or submission date
// @Summary Update dates
// @Description Changes deadline/submission date only; penalty and grades stay as stored
// @Tags corrections
// @Accept json
// @Produce json
// @Param id path uint true "Correction ID"
// @Param dates body services.UpdateDatesRequest true "Dates"
// @Success 200 {object} services.CorrectionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id}/dates [put]
func (h *CorrectionHandler) UpdateDates(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Updating dates", "correction_id", id)

	resp, err := h.correctionService.UpdateDates(c.Request.Context(), id, &req, actor)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetLatePenalty returns the suggested penalty derived from lateness
// @Summary Suggest late penalty
// @Description Display-only suggestion; a manually entered penalty always wins
// @Tags corrections
// @Produce json
// @Param id path uint true "Correction ID"
// @Success 200 {object} services.LatePenaltyResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id}/late-penalty [get]
func (h *CorrectionHandler) GetLatePenalty(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	resp, err := h.correctionService.SuggestLatePenalty(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteCorrection removes a correction
// @Summary Delete correction
// @Tags corrections
// @Param id path uint true "Correction ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /corrections/{id} [delete]
func (h *CorrectionHandler) DeleteCorrection(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting correction", "correction_id", id)

	if err := h.correctionService.Delete(c.Request.Context(), id, actor); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Correction deleted",
	})
}
