// File: internal/scan/handler.go
package scan

import (
	"errors"

	"guidecheck_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for scan handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new scan handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for scan operations. Mutations go
// through the admin middleware; reads are public.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, adminMW gin.HandlerFunc) {
	scanGroup := router.Group("/scans")
	{
		scanGroup.GET("", h.listScans)
		scanGroup.GET("/latest", h.getLatestScan)
		scanGroup.GET("/:id", h.getScan)
		scanGroup.GET("/:id/findings", h.listFindings)
		scanGroup.POST("", adminMW, h.triggerScan)
	}

	findingGroup := router.Group("/findings")
	findingGroup.Use(adminMW)
	{
		findingGroup.PATCH("/:id/resolve", h.resolveFinding)
	}
}

func (h *Handler) triggerScan(c *gin.Context) {
	scanRun, err := h.service.Run(c.Request.Context(), TriggerManual)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Scan completed.", ToScanResponse(scanRun))
}

func (h *Handler) listScans(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)
	scans, pagination, err := h.service.ListScans(c.Request.Context(), page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	scanResponses := make([]ScanResponse, len(scans))
	for i, s := range scans {
		scanResponses[i] = ToScanResponse(&s)
	}
	common.RespondPaginated(c, "Scans retrieved successfully.", scanResponses, pagination)
}

func (h *Handler) getLatestScan(c *gin.Context) {
	scanRun, err := h.service.GetLatestScan(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Latest scan retrieved successfully.", ToScanResponse(scanRun))
}

func (h *Handler) getScan(c *gin.Context) {
	scanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid scan ID format."))
		return
	}
	preloadFindings := c.Query("include_findings") == "true"
	scanRun, err := h.service.GetScan(c.Request.Context(), scanID, preloadFindings)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Scan retrieved successfully.", ToScanResponse(scanRun))
}

func (h *Handler) listFindings(c *gin.Context) {
	scanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid scan ID format."))
		return
	}

	var query FindingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("List findings: invalid query parameters", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	page, pageSize := common.GetPaginationParams(c)
	findings, pagination, err := h.service.ListFindings(c.Request.Context(), scanID, query, page, pageSize)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	findingResponses := make([]FindingResponse, len(findings))
	for i, f := range findings {
		findingResponses[i] = ToFindingResponse(&f)
	}
	common.RespondPaginated(c, "Findings retrieved successfully.", findingResponses, pagination)
}

func (h *Handler) resolveFinding(c *gin.Context) {
	findingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid finding ID format."))
		return
	}
	finding, err := h.service.ResolveFinding(c.Request.Context(), findingID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Finding resolved.", ToFindingResponse(finding))
}
