package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

// Check godoc
// @Summary      Liveness and dependency health
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	out := gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		out["database"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		out["database"] = "up"
	}

	if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
		out["redis"] = "down"
		status = http.StatusServiceUnavailable
	} else {
		out["redis"] = "up"
	}

	if status != http.StatusOK {
		out["status"] = "degraded"
	}
	c.JSON(status, out)
}
