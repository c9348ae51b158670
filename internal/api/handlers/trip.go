package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/models"
)

// CalculateRoute 规划路线和 HOS 计划
// POST /api/calculate-route
func (h *Handler) CalculateRoute(c *gin.Context) {
	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	plan, err := h.tripService.CalculateRoute(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to calculate route")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": plan})
}

// GenerateLogs 由计划生成每日 ELD 日志
// POST /api/generate-eld-logs
func (h *Handler) GenerateLogs(c *gin.Context) {
	var req models.GenerateLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	logs, err := h.tripService.GenerateLogs(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to generate logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// CreateTrip 规划并保存行程
// POST /api/trips
func (h *Handler) CreateTrip(c *gin.Context) {
	var req models.SaveTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to save trip")
		return
	}

	h.logger.Info("Trip created via API", zap.String("trip_id", trip.ID))
	c.JSON(http.StatusCreated, gin.H{"data": trip})
}

// ListTrips 获取行程列表
func (h *Handler) ListTrips(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	trips, total, err := h.tripService.ListTrips(c.Request.Context(), page, perPage)
	if err != nil {
		h.respondError(c, err, "Failed to list trips")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": trips,
		"pagination": gin.H{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	})
}

// GetTrip 获取行程详情（含日志）
func (h *Handler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get trip")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": trip})
}

// GetTripLogs 获取行程的每日日志
func (h *Handler) GetTripLogs(c *gin.Context) {
	h.writeLogs(c, c.Param("id"))
}

// ListLogs 按行程过滤日志
// GET /api/logs?trip=<id>
func (h *Handler) ListLogs(c *gin.Context) {
	tripID := c.Query("trip")
	if tripID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trip query parameter is required"})
		return
	}
	h.writeLogs(c, tripID)
}

func (h *Handler) writeLogs(c *gin.Context, tripID string) {
	logs, err := h.tripService.GetTripLogs(c.Request.Context(), tripID)
	if err != nil {
		h.respondError(c, err, "Failed to list logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// ValidateLogs 重新检查外部日志的违规
// POST /api/logs/validate
func (h *Handler) ValidateLogs(c *gin.Context) {
	var req models.ValidateLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	logs, err := h.tripService.ValidateLogs(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to validate logs")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": logs})
}
