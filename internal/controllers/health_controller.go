package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PingFunc adapts a dependency check to HealthController.
type PingFunc func(ctx context.Context) error

type HealthController struct {
	DB    *gorm.DB
	Redis PingFunc
}

func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the database (and Redis, when configured) answer.
func (hc *HealthController) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	checks["database"] = statusOf(err)
	ready = ready && err == nil

	if hc.Redis != nil {
		err := hc.Redis(ctx)
		checks["redis"] = statusOf(err)
		ready = ready && err == nil
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func statusOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
