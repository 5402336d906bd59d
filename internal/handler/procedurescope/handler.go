package procedurescope

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/procedurescope"
)

type Handler struct {
	service *procedurescope.Service
}

func NewHandler(service *procedurescope.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	scopes := r.Group("/procedure-scopes")
	{
		scopes.POST("", h.CreateScope)
		scopes.GET("", h.ListScopes)
		scopes.GET("/:id", h.GetScope)
		scopes.PUT("/:id", h.UpdateScope)
		scopes.POST("/check", h.CheckCodes)
	}
}

func (h *Handler) CreateScope(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req model.CreateProcedureScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	scope := &model.ProcedureScope{
		ProcedureCode:      req.ProcedureCode,
		ProcedureName:      req.ProcedureName,
		Category:           model.ProcedureCategory(req.Category),
		AllowedCredentials: req.AllowedCredentials,
	}

	if err := h.service.CreateScope(c.Request.Context(), actor, scope); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(scope))
}

func (h *Handler) GetScope(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope ID"))
		return
	}

	scope, err := h.service.GetScope(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(scope))
}

func (h *Handler) ListScopes(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	scopes, err := h.service.ListScopes(c.Request.Context(), actor.TenantID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(scopes))
}

func (h *Handler) UpdateScope(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid scope ID"))
		return
	}

	var req model.UpdateProcedureScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	scope, err := h.service.GetScope(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	if req.ProcedureName != nil {
		scope.ProcedureName = *req.ProcedureName
	}
	if req.Category != nil {
		scope.Category = model.ProcedureCategory(*req.Category)
	}
	if req.AllowedCredentials != nil {
		scope.AllowedCredentials = req.AllowedCredentials
	}

	if err := h.service.UpdateScope(c.Request.Context(), actor, scope); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(scope))
}

type checkRequest struct {
	Credential *string  `json:"credential"`
	Codes      []string `json:"codes" validate:"required"`
}

// CheckCodes is the advisory endpoint the documentation UI polls while a
// clinician picks procedure codes.
func (h *Handler) CheckCodes(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Default to the caller's own credential. No credential at all denies
	// every restricted code.
	var credential *model.Credential
	if req.Credential != nil {
		cred := model.Credential(*req.Credential)
		credential = &cred
	} else if actor.Credential != "" {
		credential = &actor.Credential
	}

	checks, err := h.service.CheckCodes(c.Request.Context(), actor.TenantID, credential, req.Codes)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(checks))
}
