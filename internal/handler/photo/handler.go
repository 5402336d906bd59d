package photo

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/woundtrack/ehr-api/internal/handler"
	"github.com/woundtrack/ehr-api/internal/middleware"
	"github.com/woundtrack/ehr-api/internal/service/photo"
)

const maxPhotoBytes = 20 << 20

type Handler struct {
	service *photo.Service
}

func NewHandler(service *photo.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/wounds/:id/photos", h.Upload)
	r.GET("/wounds/:id/photos", h.ListByWound)
	r.GET("/photos/:id/url", h.DownloadURL)
}

// Upload accepts a multipart photo and stores it in object storage.
func (h *Handler) Upload(c *gin.Context) {
	actor := middleware.ClaimsFromContext(c)

	woundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	var visitID *uuid.UUID
	if s := c.Query("visit_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid visit ID"))
			return
		}
		visitID = &id
	}

	file, fileHeader, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("photo file is required"))
		return
	}
	defer file.Close()

	if fileHeader.Size > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, handler.NewErrorResponse("photo exceeds size limit"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read photo"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	p, err := h.service.Upload(c.Request.Context(), actor, woundID, visitID, data, contentType)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) ListByWound(c *gin.Context) {
	woundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid wound ID"))
		return
	}

	photos, err := h.service.ListByWound(c.Request.Context(), woundID)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(photos))
}

// DownloadURL returns a short-lived presigned link; photos are never served
// through the API.
func (h *Handler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid photo ID"))
		return
	}

	url, err := h.service.DownloadURL(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"url": url}))
}
