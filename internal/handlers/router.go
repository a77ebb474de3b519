package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teachkit/correction-service/internal/services"
	"github.com/teachkit/correction-service/internal/utils"
	"github.com/teachkit/correction-service/internal/validator"
)

type HandlerManager struct {
	correctionHandler *CorrectionHandler
	activityHandler   *ActivityHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		correctionHandler: NewCorrectionHandler(serviceManager.Correction(), v, logger),
		activityHandler: NewActivityHandler(
			serviceManager.Activity(),
			serviceManager.Correction(),
			serviceManager.Export(),
			v,
			logger,
		),
	}
}

// SetupRoutes sets up all API routes. The auth middleware applies to the
// whole v1 group; health stays open for probes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "correction-service",
		})
	})

	v1 := router.Group("/api/v1")
	if authMiddleware != nil {
		v1.Use(authMiddleware)
	}
	{
		activities := v1.Group("/activities")
		{
			activities.POST("", hm.activityHandler.CreateActivity)
			activities.GET("", hm.activityHandler.ListActivities)
			activities.GET("/:id", hm.activityHandler.GetActivity)
			activities.PUT("/:id", hm.activityHandler.UpdateActivity)
			activities.DELETE("/:id", hm.activityHandler.DeleteActivity)
			activities.GET("/:id/stats", hm.activityHandler.GetActivityStats)
			activities.GET("/:id/corrections", hm.activityHandler.ListActivityCorrections)
			activities.GET("/:id/export", hm.activityHandler.ExportActivityCorrections)
		}

		corrections := v1.Group("/corrections")
		{
			corrections.POST("", hm.correctionHandler.CreateCorrection)
			corrections.POST("/batch", hm.correctionHandler.CreateCorrectionsBatch)
			corrections.GET("/:id", hm.correctionHandler.GetCorrection)
			corrections.DELETE("/:id", hm.correctionHandler.DeleteCorrection)

			corrections.PUT("/:id/grade", hm.correctionHandler.UpdateGrade)
			corrections.PUT("/:id/penalty", hm.correctionHandler.UpdatePenalty)
			corrections.PUT("/:id/bonus", hm.correctionHandler.UpdateBonus)
			corrections.PUT("/:id/status", hm.correctionHandler.UpdateStatus)
			corrections.PUT("/:id/dates", hm.correctionHandler.UpdateDates)
			corrections.GET("/:id/late-penalty", hm.correctionHandler.GetLatePenalty)

			corrections.GET("/student/:student_id", hm.correctionHandler.ListCorrectionsByStudent)
		}
	}
}
