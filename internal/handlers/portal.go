package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const portalHistoryLimit = 50

// Portal handlers serve the client's own data only. The client ID comes
// from the token subject, never from a request parameter.

func (h HandlerSet) PortalPools(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	clientID, ok := principalID(c)
	if !ok {
		return
	}

	pools, err := h.pools.ListByClient(c.Request.Context(), companyID, clientID)
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

func (h HandlerSet) PortalVisits(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	clientID, ok := principalID(c)
	if !ok {
		return
	}

	visits, err := h.visits.ListByClient(c.Request.Context(), companyID, clientID, portalHistoryLimit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visits": visitListResponse(visits)})
}

func (h HandlerSet) PortalInvoices(c *gin.Context) {
	companyID, ok := companyScope(c)
	if !ok {
		return
	}
	clientID, ok := principalID(c)
	if !ok {
		return
	}

	invoices, err := h.invoices.ListByClient(c.Request.Context(), companyID, clientID)
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
