package wound

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/wound"
)

type Handler struct {
	service *wound.Service
}

func NewHandler(service *wound.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	wounds := r.Group("/wounds")
	{
		wounds.POST("", h.CreateWound)
		wounds.GET("/:id", h.GetWound)
		wounds.POST("/:id/assessments", h.RecordAssessment)
		wounds.GET("/:id/assessments", h.ListAssessments)
		wounds.GET("/:id/trend", h.Trend)
	}
	r.GET("/patients/:id/wounds", h.ListByPatient)
}

func (h *Handler) CreateWound(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req model.CreateWoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	w := &model.Wound{
		PatientID:  patientID,
		Location:   req.Location,
		WoundType:  req.WoundType,
		Stage:      req.Stage,
		Laterality: req.Laterality,
		OnsetDate:  req.OnsetDate,
	}

	if err := h.service.CreateWound(c.Request.Context(), actor, w); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(w))
}

func (h *Handler) GetWound(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	w, err := h.service.GetWound(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(w))
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	wounds, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(wounds))
}

func (h *Handler) RecordAssessment(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	woundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	var req model.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	visitID, err := uuid.Parse(req.VisitID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	a := &model.WoundAssessment{
		VisitID:    visitID,
		LengthCM:   req.LengthCM,
		WidthCM:    req.WidthCM,
		DepthCM:    req.DepthCM,
		TissueType: req.TissueType,
		Exudate:    req.Exudate,
		Odor:       req.Odor,
		PainLevel:  req.PainLevel,
		Notes:      req.Notes,
		AssessedAt: time.Now(),
	}

	if err := h.service.RecordAssessment(c.Request.Context(), actor, woundID, a); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(a))
}

func (h *Handler) ListAssessments(c *gin.Context) {
	woundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	assessments, err := h.service.ListAssessments(c.Request.Context(), woundID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(assessments))
}

// Trend reports how the wound surface area has moved since baseline. Empty
// when fewer than two assessments exist.
func (h *Handler) Trend(c *gin.Context) {
	woundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	trend, err := h.service.Trend(c.Request.Context(), woundID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(trend))
}
