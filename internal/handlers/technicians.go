package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
	"poolcare/api/internal/security"
)

type technicianResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	HasPin    bool      `json:"hasPin"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func newTechnicianResponse(tech models.Technician) technicianResponse {
	return technicianResponse{
		ID:        tech.ID,
		Email:     tech.Email,
		FirstName: tech.FirstName,
		LastName:  tech.LastName,
		Phone:     tech.Phone,
		HasPin:    len(tech.PinHash) > 0,
		Active:    tech.Active,
		CreatedAt: tech.CreatedAt,
	}
}

func (h HandlerSet) ListTechnicians(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	techs, err := h.technicians.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]technicianResponse, 0, len(techs))
	for _, tech := range techs {
		resp = append(resp, newTechnicianResponse(tech))
	}
	c.JSON(http.StatusOK, gin.H{"technicians": resp})
}

type createTechnicianRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Pin       string `json:"pin" binding:"omitempty,numeric,min=4,max=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
}

func (h HandlerSet) CreateTechnician(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req createTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	var pinHash []byte
	if req.Pin != "" {
		pinHash, err = security.HashPin(req.Pin)
		if err != nil {
			writeError(c, err)
			return
		}
	}

	tech := models.Technician{
		ID:           ids.New(),
		CompanyID:    companyID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		PinHash:      pinHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Active:       true,
	}

	if err := h.technicians.Create(c.Request.Context(), tech); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"technician": newTechnicianResponse(tech)})
}

type updateTechnicianRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
	Active    *bool  `json:"active"`
}

func (h HandlerSet) UpdateTechnician(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req updateTechnicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tech, err := h.technicians.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || tech.CompanyID != companyID {
		c.JSON(http.StatusNotFound, gin.H{"error": "technician not found"})
		return
	}

	tech.Email = strings.ToLower(strings.TrimSpace(req.Email))
	tech.FirstName = req.FirstName
	tech.LastName = req.LastName
	tech.Phone = req.Phone
	if req.Active != nil {
		tech.Active = *req.Active
	}

	if err := h.technicians.Update(c.Request.Context(), tech); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"technician": newTechnicianResponse(tech)})
}

type setPinRequest struct {
	Pin string `json:"pin" binding:"required,numeric,min=4,max=8"`
}

func (h HandlerSet) SetTechnicianPin(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req setPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pinHash, err := security.HashPin(req.Pin)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.technicians.SetPin(c.Request.Context(), c.Param("id"), companyID, pinHash); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
