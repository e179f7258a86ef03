package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Status 健康状态
type Status struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
	NATS     string `json:"nats"`
}

// Checker 健康检查器
// NATS 连接可为 nil（推送通道未配置时），此时不计入就绪判断
type Checker struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	nc          *nats.Conn
}

// NewChecker 创建健康检查器
func NewChecker(db *pgxpool.Pool, redisClient *redis.Client, nc *nats.Conn) *Checker {
	return &Checker{
		db:          db,
		redisClient: redisClient,
		nc:          nc,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	dbCtx, dbCancel := context.WithTimeout(ctx, checkTimeout)
	defer dbCancel()
	if err := h.db.Ping(dbCtx); err == nil {
		status.Database = "connected"
	} else {
		status.Database = "disconnected"
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, checkTimeout)
	defer redisCancel()
	if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
		status.Redis = "connected"
	} else {
		status.Redis = "disconnected"
	}

	switch {
	case h.nc == nil:
		status.NATS = "disabled"
	case h.nc.IsConnected():
		status.NATS = "connected"
	default:
		status.NATS = "disconnected"
	}

	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	status := h.Check(ctx)
	return status.Database == "connected" &&
		status.Redis == "connected" &&
		status.NATS != "disconnected"
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Database != "connected" || status.Redis != "connected" || status.NATS == "disconnected" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}
