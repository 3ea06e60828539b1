package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/ids"
	"poolcare/api/internal/models"
)

type itemResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	QuantityOnHand float64   `json:"quantityOnHand"`
	ReorderLevel   float64   `json:"reorderLevel"`
	UnitCostCents  int64     `json:"unitCostCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newItemResponse(item models.InventoryItem) itemResponse {
	return itemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Unit:           item.Unit,
		QuantityOnHand: item.QuantityOnHand,
		ReorderLevel:   item.ReorderLevel,
		UnitCostCents:  item.UnitCostCents,
		CreatedAt:      item.CreatedAt,
	}
}

func itemListResponse(items []models.InventoryItem) []itemResponse {
	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newItemResponse(item))
	}
	return resp
}

func (h HandlerSet) ListInventory(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	items, err := h.inventory.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": itemListResponse(items)})
}

func (h HandlerSet) ListLowStock(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	items, err := h.inventory.ListLowStock(c.Request.Context(), companyID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": itemListResponse(items)})
}

type itemRequest struct {
	Name          string  `json:"name" binding:"required"`
	Unit          string  `json:"unit" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"min=0"`
	ReorderLevel  float64 `json:"reorderLevel" binding:"min=0"`
	UnitCostCents int64   `json:"unitCostCents" binding:"min=0"`
}

func (h HandlerSet) CreateInventoryItem(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.InventoryItem{
		ID:             ids.New(),
		CompanyID:      companyID,
		Name:           req.Name,
		Unit:           req.Unit,
		QuantityOnHand: req.Quantity,
		ReorderLevel:   req.ReorderLevel,
		UnitCostCents:  req.UnitCostCents,
	}

	if err := h.inventory.Create(c.Request.Context(), item); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": newItemResponse(item)})
}

func (h HandlerSet) UpdateInventoryItem(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.inventory.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	item.Name = req.Name
	item.Unit = req.Unit
	item.ReorderLevel = req.ReorderLevel
	item.UnitCostCents = req.UnitCostCents

	if err := h.inventory.Update(c.Request.Context(), item); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": newItemResponse(item)})
}

type adjustRequest struct {
	Delta float64 `json:"delta" binding:"required"`
}

func (h HandlerSet) AdjustInventory(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.inventory.Adjust(c.Request.Context(), companyID, c.Param("id"), req.Delta); err != nil {
		writeError(c, err)
		return
	}

	item, err := h.inventory.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": newItemResponse(item)})
}
