package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/hos"
	"github.com/langchou/eldplanner/internal/models"
	"github.com/langchou/eldplanner/internal/service"
	"github.com/langchou/eldplanner/pkg/ws"
)

// TripService 处理器依赖的行程服务
type TripService interface {
	CalculateRoute(ctx context.Context, req models.TripRequest) (*models.RoutePlan, error)
	GenerateLogs(ctx context.Context, req models.GenerateLogsRequest) ([]models.DailyLog, error)
	CreateTrip(ctx context.Context, req models.SaveTripRequest) (*models.Trip, error)
	GetTrip(ctx context.Context, id string) (*models.Trip, error)
	ListTrips(ctx context.Context, page, perPage int) ([]*models.TripSummary, int64, error)
	GetTripLogs(ctx context.Context, id string) ([]models.DailyLog, error)
	ValidateLogs(ctx context.Context, req models.ValidateLogsRequest) ([]models.DailyLog, error)
}

// Handler HTTP 处理器
type Handler struct {
	logger      *zap.Logger
	tripService TripService
	wsHub       *ws.Hub
	upgrader    websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(logger *zap.Logger, tripService TripService, wsHub *ws.Hub) *Handler {
	return &Handler{
		logger:      logger,
		tripService: tripService,
		wsHub:       wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

// respondError 按错误类型映射状态码，5xx 记录日志
func (h *Handler) respondError(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, hos.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, hos.ErrPlanTooLong):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTripNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Trip not found"})
		return
	case errors.Is(err, service.ErrExternalDependency):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		if status == http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": msg})
			return
		}
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
