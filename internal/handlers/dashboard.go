package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) DashboardStats(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	stats, err := h.dashboardService.Stats(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
