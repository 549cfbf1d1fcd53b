package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports whether the data gateway answers.
func HealthCheck(gw Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		response := gin.H{
			"status":  "ok",
			"message": "Service is healthy",
			"gateway": "ok",
		}
		if err := gw.Ping(ctx); err != nil {
			response["status"] = "degraded"
			response["gateway"] = "error: " + err.Error()
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		c.JSON(http.StatusOK, response)
	}
}
