package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldhealth-service/internal/http/middleware"
	"fieldhealth-service/internal/service"
)

type Handler struct {
	fieldService    *service.FieldService
	analysisService *service.AnalysisService
	historyService  *service.HistoryService
	advisoryService *service.AdvisoryService
	log             zerolog.Logger
}

func NewHandler(
	fieldService *service.FieldService,
	analysisService *service.AnalysisService,
	historyService *service.HistoryService,
	advisoryService *service.AdvisoryService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		fieldService:    fieldService,
		analysisService: analysisService,
		historyService:  historyService,
		advisoryService: advisoryService,
		log:             log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")
	api.Use(authMiddleware)

	fields := api.Group("/fields")
	{
		fields.POST("", h.createField)
		fields.GET("", h.listFields)
		fields.GET("/:id", h.getField)
		fields.PUT("/:id", h.updateField)
		fields.DELETE("/:id", h.deleteField)
		fields.POST("/:id/analysis", h.runAnalysis)
		fields.GET("/:id/history", h.getHistory)
		fields.GET("/:id/advisories", h.listAdvisories)
	}
}

func (h *Handler) createField(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Name      string `json:"name" binding:"required"`
		Boundary  string `json:"boundary" binding:"required"`
		CropType  string `json:"crop_type"`
		CropStage string `json:"crop_stage"`
		Season    string `json:"season"`
		State     string `json:"state"`
		District  string `json:"district"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	field, err := h.fieldService.Create(c.Request.Context(), principal, service.CreateFieldInput{
		Name:      req.Name,
		Boundary:  req.Boundary,
		CropType:  req.CropType,
		CropStage: req.CropStage,
		Season:    req.Season,
		State:     req.State,
		District:  req.District,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, field)
}

func (h *Handler) listFields(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	fields, err := h.fieldService.List(c.Request.Context(), principal)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": fields})
}

func (h *Handler) getField(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	field, err := h.fieldService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, field)
}

func (h *Handler) updateField(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	var req struct {
		Name      *string `json:"name"`
		Boundary  *string `json:"boundary"`
		CropType  *string `json:"crop_type"`
		CropStage *string `json:"crop_stage"`
		Season    *string `json:"season"`
		State     *string `json:"state"`
		District  *string `json:"district"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	field, err := h.fieldService.Update(c.Request.Context(), principal, id, service.UpdateFieldInput{
		Name:      req.Name,
		Boundary:  req.Boundary,
		CropType:  req.CropType,
		CropStage: req.CropStage,
		Season:    req.Season,
		State:     req.State,
		District:  req.District,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, field)
}

func (h *Handler) deleteField(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	if err := h.fieldService.Delete(c.Request.Context(), principal, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) runAnalysis(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	result, err := h.analysisService.Run(c.Request.Context(), principal, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) getHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	days := 0
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid days parameter"))
			return
		}
	}

	entries, err := h.historyService.Window(c.Request.Context(), principal, id, days)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"field_id": id, "history": entries})
}

func (h *Handler) listAdvisories(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid field id"))
		return
	}

	advisories, err := h.advisoryService.ListByField(c.Request.Context(), principal, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": advisories})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse("not found"))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse("permission denied"))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse("invalid input"))
	case errors.Is(err, service.ErrInvalidGeometry):
		c.JSON(http.StatusUnprocessableEntity, errorResponse("invalid or missing field geometry"))
	default:
		h.log.Error().Err(err).Msg("internal error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
