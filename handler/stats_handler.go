package handler

import (
	"context"
	"time"

	"main/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type StatsHandler struct {
	Mongo *mongo.Client
}

func NewStatsHandler(client *mongo.Client) *StatsHandler {
	return &StatsHandler{Mongo: client}
}

// Health reports process and database liveness plus basic system load.
func (h *StatsHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "up"
	if err := h.Mongo.Ping(ctx, nil); err != nil {
		dbStatus = "down"
	}

	utils.Success(c, "ok", gin.H{
		"database":       dbStatus,
		"cpu_percent":    utils.GetCPUUsage(),
		"memory_percent": utils.GetMemoryUsage(),
		"time":           time.Now().UTC(),
	})
}
