package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/billing"
)

type Handler struct {
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.PUT("/visits/:id/billing", h.SaveBilling)
	r.GET("/visits/:id/billing", h.GetBilling)
	r.GET("/visits/:id/billing/validate", h.ValidateBilling)
}

type saveBillingResponse struct {
	Billing  *model.Billing    `json:"billing"`
	Warnings []model.CodeCheck `json:"warnings,omitempty"`
}

// SaveBilling upserts codes on a visit. Codes outside the clinician's scope
// save fine here; they come back as warnings and only block at sign time.
func (h *Handler) SaveBilling(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	var req model.UpsertBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	b, checks, err := h.service.SaveForVisit(c.Request.Context(), actor, visitID, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	var warnings []model.CodeCheck
	for _, chk := range checks {
		if !chk.Allowed {
			warnings = append(warnings, chk)
		}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(saveBillingResponse{Billing: b, Warnings: warnings}))
}

func (h *Handler) GetBilling(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	b, err := h.service.GetForVisit(c.Request.Context(), visitID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(b))
}

func (h *Handler) ValidateBilling(c *gin.Context) {
	visitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
		return
	}

	validation, err := h.service.ValidateForVisit(c.Request.Context(), visitID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(validation))
}
