package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"poolcare/api/internal/middleware"
	"poolcare/api/internal/models"
	"poolcare/api/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type pinLoginRequest struct {
	Email string `json:"email" binding:"required,email"`
	Pin   string `json:"pin" binding:"required,numeric,min=4,max=8"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type staffPrincipal struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Role        string `json:"role"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
}

type serviceCompany struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type clientPrincipal struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	CompanyName    string         `json:"companyName"`
	ServiceCompany serviceCompany `json:"serviceCompany"`
}

type technicianPrincipal struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	CompanyID   string `json:"companyId"`
	CompanyName string `json:"companyName"`
}

type platformAdminPrincipal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func newStaffPrincipal(staff models.StaffUser, company models.Company) staffPrincipal {
	return staffPrincipal{
		ID:          staff.ID,
		Email:       staff.Email,
		FirstName:   staff.FirstName,
		LastName:    staff.LastName,
		Role:        string(staff.Role),
		CompanyID:   staff.CompanyID,
		CompanyName: company.Name,
	}
}

func newClientPrincipal(client models.ClientUser, company models.Company) clientPrincipal {
	return clientPrincipal{
		ID:          client.ID,
		FirstName:   client.FirstName,
		LastName:    client.LastName,
		Email:       client.Email,
		CompanyName: company.Name,
		ServiceCompany: serviceCompany{
			ID:    company.ID,
			Name:  company.Name,
			Email: company.Email,
			Phone: company.Phone,
		},
	}
}

func newTechnicianPrincipal(tech models.Technician, company models.Company) technicianPrincipal {
	return technicianPrincipal{
		ID:          tech.ID,
		FirstName:   tech.FirstName,
		LastName:    tech.LastName,
		Email:       tech.Email,
		Phone:       tech.Phone,
		CompanyID:   tech.CompanyID,
		CompanyName: company.Name,
	}
}

func newPlatformAdminPrincipal(admin models.PlatformAdmin) platformAdminPrincipal {
	return platformAdminPrincipal{
		ID:        admin.ID,
		Email:     admin.Email,
		FirstName: admin.FirstName,
		LastName:  admin.LastName,
	}
}

// authError maps auth-service failures to responses. The message field is
// the user-displayable text clients surface on the login form.
func authError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials", "message": "Invalid email or credentials."})
	case errors.Is(err, service.ErrAccountSuspended):
		c.JSON(http.StatusForbidden, gin.H{"error": "account_suspended", "message": "This account is suspended. Contact support."})
	case errors.Is(err, service.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session_expired", "message": "Your session has expired. Please sign in again."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}

func (h HandlerSet) meta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

func (h HandlerSet) refresh(c *gin.Context, domain models.AuthDomain) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, rotated, err := h.authService.Refresh(c.Request.Context(), domain, req.RefreshToken, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	resp := gin.H{"accessToken": pair.AccessToken}
	if rotated {
		resp["refreshToken"] = pair.RefreshToken
	}
	c.JSON(http.StatusOK, resp)
}

// Logout is best effort by contract: an unknown or missing refresh token
// still yields 204 so clients can always clear local state.
func (h HandlerSet) logout(c *gin.Context, domain models.AuthDomain) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), domain, req.RefreshToken); err != nil {
		h.log.Warn().Err(err).Str("domain", string(domain)).Msg("logout revoke failed")
	}
	c.Status(http.StatusNoContent)
}

// --- staff domain ---

func (h HandlerSet) StaffLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.LoginStaff(c.Request.Context(), req.Email, req.Password, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"principal":    newStaffPrincipal(result.Staff, result.Company),
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h HandlerSet) StaffMe(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	staff, company, err := h.authService.StaffProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"principal": newStaffPrincipal(staff, company)})
}

func (h HandlerSet) StaffRefresh(c *gin.Context) { h.refresh(c, models.AuthDomainStaff) }
func (h HandlerSet) StaffLogout(c *gin.Context)  { h.logout(c, models.AuthDomainStaff) }

// --- client portal domain ---

func (h HandlerSet) PortalLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.LoginClient(c.Request.Context(), req.Email, req.Password, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"principal":    newClientPrincipal(result.Client, result.Company),
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h HandlerSet) PortalMe(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	client, company, err := h.authService.ClientProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"principal": newClientPrincipal(client, company)})
}

func (h HandlerSet) PortalRefresh(c *gin.Context) { h.refresh(c, models.AuthDomainPortal) }
func (h HandlerSet) PortalLogout(c *gin.Context)  { h.logout(c, models.AuthDomainPortal) }

// --- technician portal domain ---

func (h HandlerSet) TechLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.LoginTechnician(c.Request.Context(), req.Email, req.Password, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"principal":    newTechnicianPrincipal(result.Technician, result.Company),
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h HandlerSet) TechLoginPIN(c *gin.Context) {
	var req pinLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.LoginTechnicianPIN(c.Request.Context(), req.Email, req.Pin, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"principal":    newTechnicianPrincipal(result.Technician, result.Company),
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h HandlerSet) TechMe(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tech, company, err := h.authService.TechnicianProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"principal": newTechnicianPrincipal(tech, company)})
}

func (h HandlerSet) TechRefresh(c *gin.Context) { h.refresh(c, models.AuthDomainTech) }
func (h HandlerSet) TechLogout(c *gin.Context)  { h.logout(c, models.AuthDomainTech) }

// --- platform admin domain ---

func (h HandlerSet) PlatformLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authService.LoginPlatformAdmin(c.Request.Context(), req.Email, req.Password, h.meta(c))
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"principal":    newPlatformAdminPrincipal(result.Admin),
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	})
}

func (h HandlerSet) PlatformMe(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	admin, err := h.authService.PlatformProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		authError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"principal": newPlatformAdminPrincipal(admin)})
}

func (h HandlerSet) PlatformRefresh(c *gin.Context) { h.refresh(c, models.AuthDomainPlatform) }
func (h HandlerSet) PlatformLogout(c *gin.Context)  { h.logout(c, models.AuthDomainPlatform) }
