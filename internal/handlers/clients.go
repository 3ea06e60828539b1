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

type clientResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func newClientResponse(client models.ClientUser) clientResponse {
	return clientResponse{
		ID:        client.ID,
		Email:     client.Email,
		FirstName: client.FirstName,
		LastName:  client.LastName,
		Phone:     client.Phone,
		Address:   client.Address,
		Active:    client.Active,
		CreatedAt: client.CreatedAt,
	}
}

func (h HandlerSet) ListClients(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	clients, err := h.clients.ListByCompany(c.Request.Context(), companyID, c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]clientResponse, 0, len(clients))
	for _, client := range clients {
		resp = append(resp, newClientResponse(client))
	}
	c.JSON(http.StatusOK, gin.H{"clients": resp})
}

func (h HandlerSet) GetClient(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || client.CompanyID != companyID {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": newClientResponse(client)})
}

type createClientRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

func (h HandlerSet) CreateClient(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	client := models.ClientUser{
		ID:           ids.New(),
		CompanyID:    companyID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Address:      req.Address,
		Active:       true,
	}

	if err := h.clients.Create(c.Request.Context(), client); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": newClientResponse(client)})
}

type updateClientRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Active    *bool  `json:"active"`
}

func (h HandlerSet) UpdateClient(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil || client.CompanyID != companyID {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	client.Email = strings.ToLower(strings.TrimSpace(req.Email))
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Phone = req.Phone
	client.Address = req.Address
	if req.Active != nil {
		client.Active = *req.Active
	}

	if err := h.clients.Update(c.Request.Context(), client); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": newClientResponse(client)})
}
