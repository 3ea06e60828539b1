package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/middleware"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/service"
)

// companyScope pulls the tenant out of the access claims. Every staff,
// portal, and tech route is scoped through this; there is no query path
// that crosses tenants.
func companyScope(c *gin.Context) (string, bool) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.CompanyID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return claims.CompanyID, true
}

func principalID(c *gin.Context) (string, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return claims.Subject, true
}

var notFoundErrs = []error{
	repository.ErrCompanyNotFound,
	repository.ErrStaffNotFound,
	repository.ErrClientNotFound,
	repository.ErrTechnicianNotFound,
	repository.ErrPoolNotFound,
	repository.ErrVisitNotFound,
	repository.ErrItemNotFound,
	repository.ErrInvoiceNotFound,
	repository.ErrSubscriptionNotFound,
}

func writeError(c *gin.Context, err error) {
	for _, sentinel := range notFoundErrs {
		if errors.Is(err, sentinel) {
			c.JSON(http.StatusNotFound, gin.H{"error": sentinel.Error()})
			return
		}
	}
	switch {
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvalidInvoiceState),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, service.ErrUnsupportedPhoto):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
