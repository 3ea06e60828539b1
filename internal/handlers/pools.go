package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
)

type poolResponse struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"clientId"`
	Label          string    `json:"label"`
	Address        string    `json:"address"`
	Type           string    `json:"type"`
	Sanitizer      string    `json:"sanitizer"`
	VolumeGallons  int       `json:"volumeGallons"`
	ServiceWeekday int       `json:"serviceWeekday"`
	Notes          string    `json:"notes"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newPoolResponse(pool models.Pool) poolResponse {
	return poolResponse{
		ID:             pool.ID,
		ClientID:       pool.ClientID,
		Label:          pool.Label,
		Address:        pool.Address,
		Type:           string(pool.Type),
		Sanitizer:      string(pool.Sanitizer),
		VolumeGallons:  pool.VolumeGallons,
		ServiceWeekday: int(pool.ServiceWeekday),
		Notes:          pool.Notes,
		Active:         pool.Active,
		CreatedAt:      pool.CreatedAt,
	}
}

func (h HandlerSet) ListPools(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var (
		pools []models.Pool
		err   error
	)
	if clientID := c.Query("clientId"); clientID != "" {
		pools, err = h.pools.ListByClient(c.Request.Context(), companyID, clientID)
	} else {
		pools, err = h.pools.ListByCompany(c.Request.Context(), companyID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]poolResponse, 0, len(pools))
	for _, pool := range pools {
		resp = append(resp, newPoolResponse(pool))
	}
	c.JSON(http.StatusOK, gin.H{"pools": resp})
}

func (h HandlerSet) GetPool(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	pool, err := h.pools.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": newPoolResponse(pool)})
}

type poolRequest struct {
	ClientID       string `json:"clientId" binding:"required"`
	Label          string `json:"label" binding:"required"`
	Address        string `json:"address"`
	Type           string `json:"type" binding:"required,oneof=in_ground above_ground spa"`
	Sanitizer      string `json:"sanitizer" binding:"required,oneof=chlorine salt bromine"`
	VolumeGallons  int    `json:"volumeGallons" binding:"required,min=1"`
	ServiceWeekday int    `json:"serviceWeekday" binding:"min=0,max=6"`
	Notes          string `json:"notes"`
	Active         *bool  `json:"active"`
}

func (h HandlerSet) CreatePool(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req poolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), req.ClientID)
	if err != nil || client.CompanyID != companyID {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	pool := models.Pool{
		ID:             ids.New(),
		CompanyID:      companyID,
		ClientID:       req.ClientID,
		Label:          req.Label,
		Address:        req.Address,
		Type:           models.PoolType(req.Type),
		Sanitizer:      models.Sanitizer(req.Sanitizer),
		VolumeGallons:  req.VolumeGallons,
		ServiceWeekday: time.Weekday(req.ServiceWeekday),
		Notes:          req.Notes,
		Active:         true,
	}

	if err := h.pools.Create(c.Request.Context(), pool); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pool": newPoolResponse(pool)})
}

func (h HandlerSet) UpdatePool(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req poolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pool, err := h.pools.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	pool.Label = req.Label
	pool.Address = req.Address
	pool.Type = models.PoolType(req.Type)
	pool.Sanitizer = models.Sanitizer(req.Sanitizer)
	pool.VolumeGallons = req.VolumeGallons
	pool.ServiceWeekday = time.Weekday(req.ServiceWeekday)
	pool.Notes = req.Notes
	if req.Active != nil {
		pool.Active = *req.Active
	}

	if err := h.pools.Update(c.Request.Context(), pool); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pool": newPoolResponse(pool)})
}
