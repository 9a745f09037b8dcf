// File: internal/guide/handler.go
package guide

import (
	"guidecheck_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for guide catalog handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new guide handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for catalog operations. The catalog is
// read-only over HTTP; it is written by scans.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	guideGroup := router.Group("/guides")
	{
		guideGroup.GET("", h.getAllGuides)
		guideGroup.GET("/:idOrSlug", h.getGuide)
	}

	chapterGroup := router.Group("/chapters")
	{
		chapterGroup.GET("/search", h.searchChapters)
		chapterGroup.GET("/:id", h.getChapter)
	}
}

func (h *Handler) getAllGuides(c *gin.Context) {
	preloadChapters := c.Query("include_chapters") == "true"
	guides, err := h.service.GetAllGuides(c.Request.Context(), preloadChapters)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	guideResponses := make([]GuideResponse, len(guides))
	for i, g := range guides {
		guideResponses[i] = ToGuideResponse(&g)
	}
	common.RespondOK(c, "Guides retrieved successfully.", guideResponses)
}

func (h *Handler) getGuide(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")
	preloadChapters := c.Query("include_chapters") == "true"

	var guideModel *Guide
	var err error
	guideID, parseErr := uuid.Parse(idOrSlug)
	if parseErr == nil {
		guideModel, err = h.service.GetGuideByID(c.Request.Context(), guideID, preloadChapters)
	} else {
		guideModel, err = h.service.GetGuideBySlug(c.Request.Context(), idOrSlug, preloadChapters)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Guide retrieved successfully.", ToGuideResponse(guideModel))
}

func (h *Handler) getChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid chapter ID format."))
		return
	}
	chapter, err := h.service.GetChapterByID(c.Request.Context(), chapterID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chapter retrieved successfully.", ToChapterResponse(chapter))
}

func (h *Handler) searchChapters(c *gin.Context) {
	query := c.Query("q")
	page, pageSize := common.GetPaginationParams(c)

	chapters, pagination, err := h.service.SearchChapters(c.Request.Context(), query, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	chapterResponses := make([]ChapterResponse, len(chapters))
	for i, ch := range chapters {
		chapterResponses[i] = ToChapterResponse(&ch)
	}
	common.RespondPaginated(c, "Chapters retrieved successfully.", chapterResponses, pagination)
}
