package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/models"
	"poolcare/api/internal/service"
)

// Tech handlers serve the field experience. The technician ID comes from
// the token subject; a tech can only touch visits in their own company.

func (h HandlerSet) TechRoute(c *gin.Context) {
	techID, ok := principalID(c)
	if !ok {
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}

	visits, err := h.visits.ListByTechnicianOnDate(c.Request.Context(), techID, day)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visitListResponse(visits)})
}

func (h HandlerSet) TechStartVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	techID, ok := principalID(c)
	if !ok {
		return
	}

	visit, err := h.visitService.Start(c.Request.Context(), companyID, c.Param("id"), techID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visit": newVisitResponse(visit)})
}

type chemicalUseRequest struct {
	ItemID   string  `json:"itemId" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

type completeVisitRequest struct {
	PH            float64              `json:"ph" binding:"min=0,max=14"`
	ChlorinePPM   float64              `json:"chlorinePpm" binding:"min=0"`
	AlkalinityPPM float64              `json:"alkalinityPpm" binding:"min=0"`
	Notes         string               `json:"notes"`
	Chemicals     []chemicalUseRequest `json:"chemicals" binding:"dive"`
}

func (h HandlerSet) TechCompleteVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req completeVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.CompleteVisitInput{
		Readings: models.ChemReadings{
			PH:            req.PH,
			ChlorinePPM:   req.ChlorinePPM,
			AlkalinityPPM: req.AlkalinityPPM,
		},
		Notes: req.Notes,
	}
	for _, chem := range req.Chemicals {
		input.Chemicals = append(input.Chemicals, service.ChemicalUseInput{
			ItemID:   chem.ItemID,
			Quantity: chem.Quantity,
		})
	}

	visit, err := h.visitService.Complete(c.Request.Context(), companyID, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visit": newVisitResponse(visit)})
}

func (h HandlerSet) TechAttachPhoto(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	key, err := h.visitService.AttachPhoto(c.Request.Context(), companyID, c.Param("id"), file, header.Size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (h HandlerSet) TechPhotoURL(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	// Stored keys are <company>/<visit>/<file>; the route carries the file
	// segment only.
	key := fmt.Sprintf("%s/%s/%s", companyID, c.Param("id"), c.Param("key"))
	url, err := h.visitService.PhotoURL(c.Request.Context(), companyID, c.Param("id"), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
