package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/service/report"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/pending-review", h.PendingReview)
		reports.GET("/visit-volume", h.VisitVolume)
		reports.GET("/patients/:id/healing", h.PatientHealing)
	}
}

// PendingReview lists submitted visits waiting on an office reviewer.
func (h *Handler) PendingReview(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	visits, err := h.service.PendingReview(c.Request.Context(), actor.TenantID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}

func (h *Handler) VisitVolume(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
			return
		}
		start = t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
			return
		}
		end = t
	}

	volume, err := h.service.VisitVolume(c.Request.Context(), actor.TenantID, start, end)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(volume))
}

func (h *Handler) PatientHealing(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	trends, err := h.service.PatientHealingReport(c.Request.Context(), patientID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(trends))
}
