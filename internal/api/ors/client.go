package ors

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/eldplanner/internal/models"
)

// Cache 地理编码结果的持久缓存
type Cache interface {
	Get(ctx context.Context, query string) (models.Coordinate, bool, error)
	Put(ctx context.Context, query string, c models.Coordinate) error
}

// Client OpenRouteService 客户端，提供地理编码和路线规划
type Client struct {
	apiKey     string
	baseURL    string
	profile    string
	httpClient *http.Client
	store      Cache
	logger     *zap.Logger

	// 内存缓存：避免重复请求相同地址
	cache   map[string]models.Coordinate
	cacheMu sync.RWMutex
}

// NewClient 创建客户端，store 可以为 nil
func NewClient(apiKey, baseURL, profile string, timeout time.Duration, store Cache, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		logger: logger,
		cache:  make(map[string]models.Coordinate),
	}
}

func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *Client) cached(key string) (models.Coordinate, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	coord, ok := c.cache[key]
	return coord, ok
}

func (c *Client) remember(key string, coord models.Coordinate) {
	c.cacheMu.Lock()
	c.cache[key] = coord
	// 限制缓存大小
	if len(c.cache) > 10000 {
		c.cache = make(map[string]models.Coordinate)
		c.cache[key] = coord
	}
	c.cacheMu.Unlock()
}
