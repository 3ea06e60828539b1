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

type companyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCompanyResponse(company models.Company) companyResponse {
	return companyResponse{
		ID:        company.ID,
		Name:      company.Name,
		Email:     company.Email,
		Phone:     company.Phone,
		Status:    string(company.Status),
		CreatedAt: company.CreatedAt,
	}
}

func (h HandlerSet) PlatformListCompanies(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]companyResponse, 0, len(companies))
	for _, company := range companies {
		resp = append(resp, newCompanyResponse(company))
	}
	c.JSON(http.StatusOK, gin.H{"companies": resp})
}

type createCompanyRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone"`
	OwnerEmail     string `json:"ownerEmail" binding:"required,email"`
	OwnerPassword  string `json:"ownerPassword" binding:"required,min=8"`
	OwnerFirstName string `json:"ownerFirstName" binding:"required"`
	OwnerLastName  string `json:"ownerLastName" binding:"required"`
}

// PlatformCreateCompany onboards a tenant: the company record plus its
// first owner staff account, in one call.
func (h HandlerSet) PlatformCreateCompany(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	passwordHash, err := security.HashPassword(req.OwnerPassword)
	if err != nil {
		writeError(c, err)
		return
	}

	company := models.Company{
		ID:     ids.New(),
		Name:   req.Name,
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  req.Phone,
		Status: models.CompanyStatusActive,
	}
	if err := h.companies.Create(c.Request.Context(), company); err != nil {
		writeError(c, err)
		return
	}

	owner := models.StaffUser{
		ID:           ids.New(),
		CompanyID:    company.ID,
		Email:        strings.ToLower(strings.TrimSpace(req.OwnerEmail)),
		PasswordHash: passwordHash,
		FirstName:    req.OwnerFirstName,
		LastName:     req.OwnerLastName,
		Role:         models.StaffRoleOwner,
		Active:       true,
	}
	if err := h.staff.Create(c.Request.Context(), owner); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"company": newCompanyResponse(company),
		"ownerId": owner.ID,
	})
}

type subscriptionResponse struct {
	CompanyID        string    `json:"companyId"`
	Plan             string    `json:"plan"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
}

func newSubscriptionResponse(sub models.Subscription) subscriptionResponse {
	return subscriptionResponse{
		CompanyID:        sub.CompanyID,
		Plan:             string(sub.Plan),
		Status:           string(sub.Status),
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}
}

func (h HandlerSet) PlatformListSubscriptions(c *gin.Context) {
	subs, err := h.subscriptions.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, newSubscriptionResponse(sub))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": resp})
}

type setSubscriptionRequest struct {
	Plan             string    `json:"plan" binding:"required,oneof=starter pro enterprise"`
	Status           string    `json:"status" binding:"required,oneof=trial active past_due canceled"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd" binding:"required"`
}

func (h HandlerSet) PlatformSetSubscription(c *gin.Context) {
	var req setSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	companyID := c.Param("id")
	if _, err := h.companies.GetByID(c.Request.Context(), companyID); err != nil {
		writeError(c, err)
		return
	}

	sub := models.Subscription{
		ID:               ids.New(),
		CompanyID:        companyID,
		Plan:             models.SubscriptionPlan(req.Plan),
		Status:           models.SubscriptionStatus(req.Status),
		CurrentPeriodEnd: req.CurrentPeriodEnd,
	}
	if err := h.subscriptions.Upsert(c.Request.Context(), sub); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": newSubscriptionResponse(sub)})
}

// PlatformSuspendCompany flips the tenant to suspended. Existing access
// tokens keep working until expiry but refresh fails closed, so every
// session in the tenant dies within one access window.
func (h HandlerSet) PlatformSuspendCompany(c *gin.Context) {
	if err := h.setCompanyStatus(c, models.CompanyStatusSuspended); err != nil {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) PlatformReactivateCompany(c *gin.Context) {
	if err := h.setCompanyStatus(c, models.CompanyStatusActive); err != nil {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) setCompanyStatus(c *gin.Context, status models.CompanyStatus) error {
	companyID := c.Param("id")
	if _, err := h.companies.GetByID(c.Request.Context(), companyID); err != nil {
		writeError(c, err)
		return err
	}
	if err := h.companies.UpdateStatus(c.Request.Context(), companyID, status); err != nil {
		writeError(c, err)
		return err
	}
	return nil
}
