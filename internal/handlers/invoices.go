package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/models"
	"poolcare/api/internal/service"
)

type invoiceLineResponse struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	AmountCents int64   `json:"amountCents"`
}

type invoiceResponse struct {
	ID         string                `json:"id"`
	ClientID   string                `json:"clientId"`
	Number     string                `json:"number"`
	Status     string                `json:"status"`
	IssuedAt   *time.Time            `json:"issuedAt,omitempty"`
	DueAt      *time.Time            `json:"dueAt,omitempty"`
	TotalCents int64                 `json:"totalCents"`
	Lines      []invoiceLineResponse `json:"lines,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
}

func newInvoiceResponse(invoice models.Invoice) invoiceResponse {
	resp := invoiceResponse{
		ID:         invoice.ID,
		ClientID:   invoice.ClientID,
		Number:     invoice.Number,
		Status:     string(invoice.Status),
		IssuedAt:   invoice.IssuedAt,
		DueAt:      invoice.DueAt,
		TotalCents: invoice.TotalCents,
		CreatedAt:  invoice.CreatedAt,
	}
	for _, line := range invoice.Lines {
		resp.Lines = append(resp.Lines, invoiceLineResponse{
			ID:          line.ID,
			Description: line.Description,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
	}
	return resp
}

func (h HandlerSet) ListInvoices(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	invoices, err := h.invoices.ListByCompany(c.Request.Context(), companyID, models.InvoiceStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]invoiceResponse, 0, len(invoices))
	for _, invoice := range invoices {
		resp = append(resp, newInvoiceResponse(invoice))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": resp})
}

func (h HandlerSet) GetInvoice(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	invoice, err := h.invoices.GetByID(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": newInvoiceResponse(invoice)})
}

type invoiceLineRequest struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	AmountCents int64   `json:"amountCents" binding:"required"`
}

type createInvoiceRequest struct {
	ClientID string               `json:"clientId" binding:"required"`
	DueAt    *time.Time           `json:"dueAt"`
	Lines    []invoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (h HandlerSet) CreateInvoice(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client, err := h.clients.GetByID(c.Request.Context(), req.ClientID)
	if err != nil || client.CompanyID != companyID {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	input := service.CreateInvoiceInput{
		CompanyID: companyID,
		ClientID:  req.ClientID,
		DueAt:     req.DueAt,
	}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, service.InvoiceLineInput{
			Description: line.Description,
			Quantity:    line.Quantity,
			AmountCents: line.AmountCents,
		})
	}

	invoice, err := h.billingService.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": newInvoiceResponse(invoice)})
}

type invoiceFromVisitRequest struct {
	ServiceRateCents int64 `json:"serviceRateCents" binding:"required,gt=0"`
}

func (h HandlerSet) InvoiceFromVisit(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}

	var req invoiceFromVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.billingService.InvoiceFromVisit(c.Request.Context(), companyID, c.Param("visitId"), req.ServiceRateCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invoice": newInvoiceResponse(invoice)})
}

func (h HandlerSet) SendInvoice(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	if err := h.billingService.MarkSent(c.Request.Context(), companyID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) PayInvoice(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	if err := h.billingService.MarkPaid(c.Request.Context(), companyID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) VoidInvoice(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	if err := h.billingService.Void(c.Request.Context(), companyID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
