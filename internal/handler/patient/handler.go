package patient

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/patient"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	facilityID, err := uuid.Parse(req.FacilityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid facility ID"))
		return
	}

	p := &model.Patient{
		FacilityID:  facilityID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		MRN:         req.MRN,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
	}

	if err := h.service.CreatePatient(c.Request.Context(), actor, p); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

func (h *Handler) ListPatients(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	filters := &model.PatientFilters{
		TenantID: actor.TenantID,
		Search:   c.Query("search"),
	}
	if s := c.Query("status"); s != "" {
		filters.Status = model.PatientStatus(s)
	}
	if s := c.Query("page"); s != "" {
		if page, err := strconv.Atoi(s); err == nil {
			filters.Page = page
		}
	}
	if s := c.Query("page_size"); s != "" {
		if size, err := strconv.Atoi(s); err == nil {
			filters.PageSize = size
		}
	}

	patients, err := h.service.ListPatients(c.Request.Context(), filters)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewListResponse(patients, handler.ListMeta{
		Page:     filters.Page,
		PageSize: filters.PageSize,
		Count:    len(patients),
	}))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), actor, id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}
