package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/models"
	"poolcare/api/internal/service"
)

type visitResponse struct {
	ID            string     `json:"id"`
	PoolID        string     `json:"poolId"`
	TechnicianID  string     `json:"technicianId,omitempty"`
	ScheduledFor  time.Time  `json:"scheduledFor"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	Status        string     `json:"status"`
	PH            float64    `json:"ph,omitempty"`
	ChlorinePPM   float64    `json:"chlorinePpm,omitempty"`
	AlkalinityPPM float64    `json:"alkalinityPpm,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	PhotoKeys     []string   `json:"photoKeys,omitempty"`
}

func newVisitResponse(visit models.ServiceVisit) visitResponse {
	return visitResponse{
		ID:            visit.ID,
		PoolID:        visit.PoolID,
		TechnicianID:  visit.TechnicianID,
		ScheduledFor:  visit.ScheduledFor,
		StartedAt:     visit.StartedAt,
		CompletedAt:   visit.CompletedAt,
		Status:        string(visit.Status),
		PH:            visit.Readings.PH,
		ChlorinePPM:   visit.Readings.ChlorinePPM,
		AlkalinityPPM: visit.Readings.AlkalinityPPM,
		Notes:         visit.Notes,
		PhotoKeys:     visit.PhotoKeys,
	}
}

func visitListResponse(visits []models.ServiceVisit) []visitResponse {
	resp := make([]visitResponse, 0, len(visits))
	for _, visit := range visits {
		resp = append(resp, newVisitResponse(visit))
	}
	return resp
}

func (h HandlerSet) ListVisits(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now.AddDate(0, 0, 14)
	if raw := c.Query("from"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			from = parsed
		}
	}
	if raw := c.Query("to"); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			to = parsed
		}
	}

	visits, err := h.visits.ListByCompany(c.Request.Context(), companyID, from, to, models.VisitStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visitListResponse(visits)})
}

func (h HandlerSet) GetVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	visit, err := h.visits.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visit": newVisitResponse(visit)})
}

type scheduleVisitRequest struct {
	PoolID       string    `json:"poolId" binding:"required"`
	TechnicianID string    `json:"technicianId"`
	ScheduledFor time.Time `json:"scheduledFor" binding:"required"`
	Notes        string    `json:"notes"`
}

func (h HandlerSet) ScheduleVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req scheduleVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visit, err := h.visitService.Schedule(c.Request.Context(), service.ScheduleVisitInput{
		CompanyID:    companyID,
		PoolID:       req.PoolID,
		TechnicianID: req.TechnicianID,
		ScheduledFor: req.ScheduledFor,
		Notes:        req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"visit": newVisitResponse(visit)})
}

type skipVisitRequest struct {
	Reason string `json:"reason"`
}

func (h HandlerSet) SkipVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req skipVisitRequest
	_ = c.ShouldBindJSON(&req)

	visit, err := h.visitService.Skip(c.Request.Context(), companyID, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visit": newVisitResponse(visit)})
}
