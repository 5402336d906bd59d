package visit

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/visit"
)

type Handler struct {
	service *visit.Service
}

func NewHandler(service *visit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	visits := r.Group("/visits")
	{
		visits.POST("", h.CreateVisit)
		visits.GET("", h.ListVisits)
		visits.GET("/:id", h.GetVisit)
		visits.PUT("/:id", h.UpdateVisit)
		visits.DELETE("/:id", h.DeleteVisit)

		visits.POST("/:id/signatures", h.AttachSignature)
		visits.GET("/:id/notes", h.ListNotes)

		visits.POST("/:id/ready", h.MarkReady)
		visits.POST("/:id/sign", h.Sign)
		visits.POST("/:id/submit", h.Submit)
		visits.POST("/:id/approve", h.Approve)
		visits.POST("/:id/request-correction", h.RequestCorrection)
		visits.POST("/:id/void", h.Void)
		visits.POST("/:id/addenda", h.AddAddendum)
	}
}

func (h *Handler) CreateVisit(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req model.CreateVisitRequest
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
	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid facility ID"))
		return
	}

	v := &model.Visit{
		PatientID:  patientID,
		FacilityID: facilityID,
		VisitDate:  req.VisitDate,
		VisitType:  model.VisitType(req.VisitType),
		Notes:      req.Notes,
	}

	if err := h.service.CreateVisit(c.Request.Context(), actor, v); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(v))
}

func (h *Handler) GetVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	v, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

func (h *Handler) ListVisits(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	filters := &model.VisitFilters{TenantID: actor.TenantID}
	if s := c.Query("patient_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
			return
		}
		filters.PatientID = id
	}
	if s := c.Query("clinician_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinician ID"))
			return
		}
		filters.ClinicianID = id
	}
	if s := c.Query("status"); s != "" {
		filters.Status = model.VisitStatus(s)
	}
	if s := c.Query("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start date"))
			return
		}
		filters.StartDate = t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end date"))
			return
		}
		filters.EndDate = t
	}

	visits, err := h.service.ListVisits(c.Request.Context(), filters)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(visits))
}

func (h *Handler) UpdateVisit(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	var req model.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	v, err := h.service.UpdateVisit(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

func (h *Handler) DeleteVisit(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	if err := h.service.DeleteVisit(c.Request.Context(), actor, id); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type attachSignatureRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=provider patient"`
	SignatureID string `json:"signature_id" validate:"required,uuid"`
}

func (h *Handler) AttachSignature(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	var req attachSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sigID, err := uuid.Parse(req.SignatureID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid signature ID"))
		return
	}

	if err := h.service.AttachSignature(c.Request.Context(), actor, id, model.SignatureKind(req.Kind), sigID); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	notes, err := h.service.ListNotes(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(notes))
}

func (h *Handler) MarkReady(c *gin.Context) {
	h.simpleTransition(c, h.service.MarkReady)
}

func (h *Handler) Sign(c *gin.Context) {
	h.simpleTransition(c, h.service.Sign)
}

func (h *Handler) Submit(c *gin.Context) {
	h.simpleTransition(c, h.service.Submit)
}

func (h *Handler) Approve(c *gin.Context) {
	h.simpleTransition(c, h.service.Approve)
}

type noteRequest struct {
	Note string `json:"note" validate:"required,max=5000"`
}

func (h *Handler) RequestCorrection(c *gin.Context) {
	h.notedTransition(c, h.service.RequestCorrection)
}

func (h *Handler) Void(c *gin.Context) {
	h.notedTransition(c, h.service.Void)
}

func (h *Handler) AddAddendum(c *gin.Context) {
	h.notedTransition(c, h.service.AddAddendum)
}

func (h *Handler) simpleTransition(c *gin.Context, fn func(ctx context.Context, actor *model.TokenClaims, id uuid.UUID) error) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	if err := fn(c.Request.Context(), actor, id); err != nil {
		handler.WriteError(c, err)
		return
	}

	v, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}

func (h *Handler) notedTransition(c *gin.Context, fn func(ctx context.Context, actor *model.TokenClaims, id uuid.UUID, note string) error) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := fn(c.Request.Context(), actor, id, req.Note); err != nil {
		handler.WriteError(c, err)
		return
	}

	v, err := h.service.GetVisit(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(v))
}
