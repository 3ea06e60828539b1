package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Health(c *gin.Context) {
	status := "ok"
	if h.db != nil {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
