package signature

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/model"
	"github.com/woundtrack/ehr-api/internal/service/signature"
)

type Handler struct {
	service *signature.Service
}

func NewHandler(service *signature.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sigs := r.Group("/signatures")
	{
		sigs.POST("", h.Capture)
		sigs.GET("/:id", h.Get)
	}
}

// Capture stores a drawn signature. The caller attaches the returned ID to a
// visit afterwards.
func (h *Handler) Capture(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	var req model.CaptureSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sig, err := h.service.Capture(c.Request.Context(), actor, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sig))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid signature ID"))
		return
	}

	sig, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sig))
}
