package router

import (
	"net/http"
	"time"

	"zalama/config"
	"zalama/internal/docstore"
	"zalama/internal/domain"
	"zalama/internal/handler"
	"zalama/internal/lock"
	"zalama/internal/middleware"
	"zalama/internal/repository"
	"zalama/internal/service"
	"zalama/internal/ws"
	"zalama/pkg/email"
	"zalama/pkg/payment"
	"zalama/pkg/sms"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers. docs may be nil when no document store
// is configured; message logs and campaign history are then disabled.
func Setup(cfg *config.Config, db *gorm.DB, docs *mongo.Database, locker lock.Locker, log *logrus.Logger) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-api-key"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	advanceRepo := repository.NewAdvanceRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	reimbursementRepo := repository.NewReimbursementRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	hub := ws.NewHub()

	// Providers
	gateway := payment.NewLengoProvider(cfg.Lengo.BaseURL, cfg.Lengo.LicenseKey, cfg.Lengo.SiteID, cfg.Lengo.Currency, cfg.Lengo.Timeout, log)
	smsClient := sms.NewNimbaClient(cfg.SMS.BaseURL, cfg.SMS.ServiceID, cfg.SMS.SecretKey, cfg.SMS.SenderName, cfg.SMS.MaxLength, log)
	emailClient := email.NewResendClient(cfg.Email.BaseURL, cfg.Email.APIKey, cfg.Email.From, log)
	var push service.PushSender
	if fcm := service.NewFCMService(cfg.Firebase.ServiceAccountPath, log); fcm != nil {
		push = fcm
	}
	var messageLogs service.MessageLogger
	var campaigns service.CampaignStore
	if docs != nil {
		messageLogs = docstore.NewMessageLogStore(docs)
		campaigns = docstore.NewCampaignStore(docs)
	}

	// Services
	feeRate := domain.ParseFeeRate(cfg.Reimbursement.FeeRate)
	channels := service.NewChannels(smsClient, emailClient, push, messageLogs, cfg.SMS.DefaultRegion, log)
	notifier := service.NewNotificationService(notificationRepo, userRepo, hub, log)
	dispatcher := service.NewDispatcher(advanceRepo, transactionRepo, channels, feeRate, log)
	authSvc := service.NewAuthService(&cfg.JWT, userRepo)
	reimbursementSvc := service.NewReimbursementService(transactionRepo, reimbursementRepo, gateway, locker, cfg, log)
	reconcileSvc := service.NewReconcileService(transactionRepo, reimbursementRepo, gateway, dispatcher, notifier, cfg.Lengo.Currency, cfg.Lengo.WebhookSecret, log)
	advanceSvc := service.NewAdvanceService(advanceRepo, employeeRepo, transactionRepo, gateway, dispatcher, notifier, cfg.Lengo, log)
	syncSvc := service.NewEmployeeSyncService(employeeRepo, userRepo, channels, log)
	templateSvc := service.NewTemplateService(channels, log)
	marketingSvc := service.NewMarketingService(channels, employeeRepo, campaigns, log)

	// Handlers
	authH := handler.NewAuthHandler(authSvc, auditRepo, log)
	reimbursementH := handler.NewReimbursementHandler(reimbursementSvc, auditRepo, log)
	paymentH := handler.NewPaymentHandler(reconcileSvc, log)
	advanceH := handler.NewAdvanceHandler(advanceSvc, advanceRepo, auditRepo, log)
	notificationH := handler.NewNotificationHandler(notificationRepo, dispatcher, log)
	marketingH := handler.NewMarketingHandler(marketingSvc, log)
	partnerH := handler.NewPartnerHandler(partnerRepo, auditRepo, log)
	employeeH := handler.NewEmployeeHandler(employeeRepo, partnerRepo, syncSvc, cfg.SMS.DefaultRegion, auditRepo, log)
	dashboardH := handler.NewDashboardHandler(dashboardRepo, log)
	externalH := handler.NewExternalHandler(templateSvc, log)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/login", authH.Login)
		// Lengo posts here without a token; the optional signature is checked by the handler.
		api.POST("/payments/lengo-callback", paymentH.Callback)
	}

	signedIn := api.Group("")
	signedIn.Use(middleware.AuthRequired(&cfg.JWT))
	{
		signedIn.GET("/auth/me", authH.Me)
		signedIn.POST("/auth/logout", authH.Logout)
		signedIn.POST("/me/fcm-token", employeeH.RegisterFCMToken)
	}

	dash := api.Group("")
	dash.Use(middleware.AuthRequired(&cfg.JWT), middleware.RequireRole(domain.RoleAdmin, domain.RoleRH))
	{
		dash.GET("/dashboard", dashboardH.Stats)

		dash.POST("/remboursements", reimbursementH.Create)
		dash.GET("/remboursements", reimbursementH.List)
		dash.GET("/remboursements/eligible", reimbursementH.Eligible)
		dash.GET("/remboursements/export", reimbursementH.Export)
		dash.POST("/remboursements/simple-paiement-lot", reimbursementH.InitiateBatch)
		dash.GET("/remboursements/:id", reimbursementH.Get)
		dash.POST("/remboursements/:id/paiement", reimbursementH.InitiateSingle)
		dash.PATCH("/remboursements/:id/statut", middleware.RequireRole(domain.RoleAdmin), reimbursementH.Correct)

		dash.GET("/payments/lengo-status/transactions/:id", paymentH.TransactionStatus)
		dash.GET("/payments/lengo-status/:payment_id", paymentH.ReimbursementStatus)

		dash.GET("/demandes-avance", advanceH.List)
		dash.POST("/demandes-avance", advanceH.Submit)
		dash.GET("/demandes-avance/:id", advanceH.Get)
		dash.POST("/demandes-avance/:id/approuver", advanceH.Approve)
		dash.POST("/demandes-avance/:id/rejeter", advanceH.Reject)

		dash.GET("/notifications", notificationH.List)
		dash.GET("/notifications/unread-count", notificationH.UnreadCount)
		dash.PUT("/notifications/read-all", notificationH.MarkAllRead)
		dash.PUT("/notifications/:id/read", notificationH.MarkRead)
		dash.DELETE("/notifications/:id", notificationH.Delete)
		dash.POST("/notifications/dispatch", notificationH.Dispatch)

		dash.POST("/marketing/sms", marketingH.SendSMS)
		dash.POST("/marketing/email", marketingH.SendEmail)
		dash.GET("/marketing/campaigns", marketingH.Campaigns)

		dash.GET("/partenaires", partnerH.List)
		dash.POST("/partenaires", partnerH.Create)
		dash.GET("/partenaires/:id", partnerH.Get)
		dash.PATCH("/partenaires/:id", partnerH.Update)

		dash.GET("/employes", employeeH.List)
		dash.POST("/employes", employeeH.Create)
		dash.GET("/employes/:id", employeeH.Get)
		dash.PATCH("/employes/:id", employeeH.Update)
		dash.POST("/employees/sync", middleware.RequireRole(domain.RoleAdmin), employeeH.Sync)
	}

	external := api.Group("/external")
	external.Use(
		middleware.APIKeyRequired(cfg.External.APIKeys),
		middleware.RateLimitBy(middleware.NewInMemoryRateLimiter(300, time.Minute), func(c *gin.Context) string { return c.GetString("api_client") }),
	)
	{
		external.GET("/notifications/templates", externalH.ListTemplates)
		external.POST("/notifications/templates", externalH.SendTemplate)
	}

	r.GET("/ws/notifications", ws.UpgradeNotificationsWS(&cfg.JWT, hub, cfg.Server.AllowedOrigins))

	return r
}
