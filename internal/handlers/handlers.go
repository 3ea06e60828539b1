package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"poolcare/api/internal/config"
	"poolcare/api/internal/middleware"
	"poolcare/api/internal/models"
	"poolcare/api/internal/repository"
	"poolcare/api/internal/service"
	"poolcare/api/internal/storage"
)

type HandlerSet struct {
	log   zerolog.Logger
	cfg   *config.AppConfig
	db    *pgxpool.Pool
	cache *redis.Client

	authService      *service.AuthService
	visitService     *service.VisitService
	billingService   *service.BillingService
	dashboardService *service.DashboardService

	companies     *repository.CompanyRepository
	staff         *repository.StaffRepository
	clients       *repository.ClientRepository
	technicians   *repository.TechnicianRepository
	sessions      *repository.SessionRepository
	pools         *repository.PoolRepository
	visits        *repository.VisitRepository
	inventory     *repository.InventoryRepository
	invoices      *repository.InvoiceRepository
	subscriptions *repository.SubscriptionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	companyRepo := repository.NewCompanyRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	clientRepo := repository.NewClientRepository(db)
	techRepo := repository.NewTechnicianRepository(db)
	platformRepo := repository.NewPlatformAdminRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	auth := service.NewAuthService(staffRepo, clientRepo, techRepo, platformRepo, companyRepo, sessionRepo, cache, cfg, log)
	visitSvc := service.NewVisitService(visitRepo, poolRepo, inventoryRepo, store, cfg, log)
	billing := service.NewBillingService(invoiceRepo, visitRepo, poolRepo, inventoryRepo, log)
	dashboard := service.NewDashboardService(visitRepo, invoiceRepo, inventoryRepo, cache, log)

	return HandlerSet{
		log:              log,
		cfg:              cfg,
		db:               db,
		cache:            cache,
		authService:      auth,
		visitService:     visitSvc,
		billingService:   billing,
		dashboardService: dashboard,
		companies:        companyRepo,
		staff:            staffRepo,
		clients:          clientRepo,
		technicians:      techRepo,
		sessions:         sessionRepo,
		pools:            poolRepo,
		visits:           visitRepo,
		inventory:        inventoryRepo,
		invoices:         invoiceRepo,
		subscriptions:    subscriptionRepo,
	}
}

// VisitService exposes the visit workflow for the job scheduler.
func (h HandlerSet) VisitService() *service.VisitService {
	return h.visitService
}

// SessionRepository exposes the session store for the job scheduler.
func (h HandlerSet) SessionRepository() *repository.SessionRepository {
	return h.sessions
}

// DashboardService exposes the dashboard cache for the job scheduler.
func (h HandlerSet) DashboardService() *service.DashboardService {
	return h.dashboardService
}

// CompanyRepository exposes the tenant directory for the job scheduler.
func (h HandlerSet) CompanyRepository() *repository.CompanyRepository {
	return h.companies
}

// Mount wires all routes. Each identity domain gets its own auth group and
// its own protected namespace; the Auth middleware instances are
// domain-bound and do not overlap.
func (h HandlerSet) Mount(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")

	staffAuth := middleware.Auth(models.AuthDomainStaff, h.cfg.Auth.Staff, h.sessions)
	portalAuth := middleware.Auth(models.AuthDomainPortal, h.cfg.Auth.Portal, h.sessions)
	techAuth := middleware.Auth(models.AuthDomainTech, h.cfg.Auth.Tech, h.sessions)
	platformAuth := middleware.Auth(models.AuthDomainPlatform, h.cfg.Auth.Platform, h.sessions)
	officeOnly := middleware.RequireRoles(models.StaffRoleOwner, models.StaffRoleAdmin)

	{
		auth := v1.Group("/auth")
		auth.POST("/login", h.StaffLogin)
		auth.POST("/refresh", h.StaffRefresh)
		auth.POST("/logout", h.StaffLogout)
		auth.GET("/me", staffAuth, h.StaffMe)
	}

	{
		auth := v1.Group("/portal/auth")
		auth.POST("/login", h.PortalLogin)
		auth.POST("/refresh", h.PortalRefresh)
		auth.POST("/logout", h.PortalLogout)
		auth.GET("/me", portalAuth, h.PortalMe)
	}

	{
		auth := v1.Group("/tech/auth")
		auth.POST("/login", h.TechLogin)
		auth.POST("/login/pin", h.TechLoginPIN)
		auth.POST("/refresh", h.TechRefresh)
		auth.POST("/logout", h.TechLogout)
		auth.GET("/me", techAuth, h.TechMe)
	}

	{
		auth := v1.Group("/platform/auth")
		auth.POST("/login", h.PlatformLogin)
		auth.POST("/refresh", h.PlatformRefresh)
		auth.POST("/logout", h.PlatformLogout)
		auth.GET("/me", platformAuth, h.PlatformMe)
	}

	office := v1.Group("", staffAuth)
	{
		office.GET("/dashboard", h.DashboardStats)

		office.GET("/clients", h.ListClients)
		office.GET("/clients/:id", h.GetClient)
		office.POST("/clients", officeOnly, h.CreateClient)
		office.PUT("/clients/:id", officeOnly, h.UpdateClient)

		office.GET("/pools", h.ListPools)
		office.GET("/pools/:id", h.GetPool)
		office.POST("/pools", officeOnly, h.CreatePool)
		office.PUT("/pools/:id", officeOnly, h.UpdatePool)

		office.GET("/technicians", h.ListTechnicians)
		office.POST("/technicians", officeOnly, h.CreateTechnician)
		office.PUT("/technicians/:id", officeOnly, h.UpdateTechnician)
		office.PUT("/technicians/:id/pin", officeOnly, h.SetTechnicianPin)

		office.GET("/visits", h.ListVisits)
		office.GET("/visits/:id", h.GetVisit)
		office.POST("/visits", officeOnly, h.ScheduleVisit)
		office.POST("/visits/:id/skip", officeOnly, h.SkipVisit)

		office.GET("/inventory", h.ListInventory)
		office.GET("/inventory/low-stock", h.ListLowStock)
		office.POST("/inventory", officeOnly, h.CreateInventoryItem)
		office.PUT("/inventory/:id", officeOnly, h.UpdateInventoryItem)
		office.POST("/inventory/:id/adjust", officeOnly, h.AdjustInventory)

		office.GET("/invoices", h.ListInvoices)
		office.GET("/invoices/:id", h.GetInvoice)
		office.POST("/invoices", officeOnly, h.CreateInvoice)
		office.POST("/invoices/from-visit/:visitId", officeOnly, h.InvoiceFromVisit)
		office.POST("/invoices/:id/send", officeOnly, h.SendInvoice)
		office.POST("/invoices/:id/pay", officeOnly, h.PayInvoice)
		office.POST("/invoices/:id/void", officeOnly, h.VoidInvoice)
	}

	portal := v1.Group("/portal", portalAuth)
	{
		portal.GET("/pools", h.PortalPools)
		portal.GET("/visits", h.PortalVisits)
		portal.GET("/invoices", h.PortalInvoices)
	}

	tech := v1.Group("/tech", techAuth)
	{
		tech.GET("/route", h.TechRoute)
		tech.POST("/visits/:id/start", h.TechStartVisit)
		tech.POST("/visits/:id/complete", h.TechCompleteVisit)
		tech.POST("/visits/:id/photos", h.TechAttachPhoto)
		tech.GET("/visits/:id/photos/:key", h.TechPhotoURL)
	}

	platform := v1.Group("/platform", platformAuth)
	{
		platform.GET("/companies", h.PlatformListCompanies)
		platform.POST("/companies", h.PlatformCreateCompany)
		platform.GET("/subscriptions", h.PlatformListSubscriptions)
		platform.PUT("/companies/:id/subscription", h.PlatformSetSubscription)
		platform.POST("/companies/:id/suspend", h.PlatformSuspendCompany)
		platform.POST("/companies/:id/reactivate", h.PlatformReactivateCompany)
	}
}
