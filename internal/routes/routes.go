package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/abic-consultancy/abic_backend/internal/booking"
	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/controllers"
	"github.com/abic-consultancy/abic_backend/internal/middleware"
	"github.com/abic-consultancy/abic_backend/internal/models"
	"github.com/abic-consultancy/abic_backend/internal/notify"
	"github.com/abic-consultancy/abic_backend/internal/upload"
	"github.com/abic-consultancy/abic_backend/internal/ws"
)

// Deps are the long-lived services the HTTP layer is built from.
type Deps struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Uploads  *upload.Manager
	Planner  *booking.Planner
	Notifier *notify.Dispatcher
	Hub      *ws.AdminHub
	Clock    clockwork.Clock
	Redis    controllers.PingFunc
}

// NewRouter builds the engine with the global middleware chain and all routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(d.Cfg.AllowedOrigins()),
	)
	Register(r, d)
	return r
}

func Register(r *gin.Engine, d Deps) {
	db, cfg := d.DB, d.Cfg

	healthCtrl := &controllers.HealthController{DB: db, Redis: d.Redis}
	authCtrl := &controllers.AuthController{
		DB:            db,
		AccessSecret:  cfg.JWTSecret,
		RefreshSecret: cfg.RefreshJWTSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	}
	userCtrl := &controllers.UserController{DB: db}
	settingsCtrl := &controllers.SettingsController{DB: db, Cfg: cfg}
	announcementCtrl := &controllers.AnnouncementController{DB: db, Clock: d.Clock}
	blogCtrl := &controllers.BlogController{DB: db}
	consultationCtrl := &controllers.ConsultationController{DB: db, Planner: d.Planner, Notifier: d.Notifier}
	contactCtrl := &controllers.ContactController{DB: db, Notifier: d.Notifier}
	eventCtrl := &controllers.EventController{DB: db, Clock: d.Clock}
	hrCtrl := &controllers.HRConsultationController{DB: db, Notifier: d.Notifier}
	quoteCtrl := &controllers.QuoteController{DB: db, Notifier: d.Notifier}
	testimonialCtrl := &controllers.TestimonialController{DB: db, Notifier: d.Notifier}
	uploadCtrl := &controllers.UploadController{DB: db, Uploads: d.Uploads, MediaBaseURL: cfg.MediaBaseURL}

	r.GET("/healthz", healthCtrl.Live)
	r.GET("/readyz", healthCtrl.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.Uploads != nil {
		r.Static("/media", d.Uploads.MediaDir())
	}

	publicLimit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.PublicRatePerSecond, cfg.PublicRateBurst))
	loginLimit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.PublicRatePerSecond, cfg.PublicRateBurst*2))

	api := r.Group("/api")

	// Public
	api.GET("/config", settingsCtrl.ClientConfig)
	api.GET("/settings", settingsCtrl.PublicSettings)
	api.POST("/auth/login", loginLimit, authCtrl.Login)
	api.POST("/auth/refresh", loginLimit, authCtrl.Refresh)

	api.GET("/announcements", announcementCtrl.PublicList)
	api.GET("/announcements/:id", announcementCtrl.PublicGet)
	api.GET("/blog", blogCtrl.PublicList)
	api.GET("/blog/:id", blogCtrl.PublicGet)
	api.GET("/events", eventCtrl.PublicList)
	api.GET("/events/:id", eventCtrl.PublicGet)
	api.GET("/testimonials", testimonialCtrl.PublicList)
	api.GET("/consultations/calendar", consultationCtrl.Calendar)
	api.GET("/consultations/availability", consultationCtrl.Availability)

	submit := api.Group("", publicLimit)
	{
		submit.POST("/contact", contactCtrl.Submit)
		submit.POST("/quote", quoteCtrl.Submit)
		submit.POST("/consultations", consultationCtrl.Book)
		submit.POST("/hr-consultation", hrCtrl.Submit)
		submit.POST("/testimonials", testimonialCtrl.Submit)
	}

	// Protected
	authMW := middleware.AuthMiddleware(db, middleware.AuthConfig{JWTSecret: cfg.JWTSecret})
	protected := api.Group("", authMW, middleware.RequireRoles(models.RoleEditor))
	{
		protected.GET("/auth/me", authCtrl.Me)
		protected.POST("/auth/logout", authCtrl.Logout)

		chunked := protected.Group("/blog/chunked-upload")
		chunked.POST("/init", uploadCtrl.Init)
		chunked.POST("/chunk", uploadCtrl.Chunk)
		chunked.POST("/complete", uploadCtrl.Complete)
		chunked.DELETE("/:id", uploadCtrl.Abort)
	}

	admin := protected.Group("/admin")
	{
		if d.Hub != nil {
			admin.GET("/ws", ws.Handler(d.Hub, cfg.AllowedOrigins()))
		}

		admin.GET("/announcements", announcementCtrl.List)
		admin.POST("/announcements", announcementCtrl.Create)
		admin.POST("/announcements/bulk-delete", announcementCtrl.BulkDelete)
		admin.GET("/announcements/:id", announcementCtrl.Get)
		admin.PUT("/announcements/:id", announcementCtrl.Update)
		admin.DELETE("/announcements/:id", announcementCtrl.Delete)

		admin.GET("/blog", blogCtrl.List)
		admin.POST("/blog", blogCtrl.Create)
		admin.POST("/blog/bulk-delete", blogCtrl.BulkDelete)
		admin.GET("/blog/:id", blogCtrl.Get)
		admin.PUT("/blog/:id", blogCtrl.Update)
		admin.PATCH("/blog/:id/status", blogCtrl.UpdateStatus)
		admin.DELETE("/blog/:id", blogCtrl.Delete)

		admin.GET("/consultations", consultationCtrl.List)
		admin.POST("/consultations/bulk-delete", consultationCtrl.BulkDelete)
		admin.GET("/consultations/:id", consultationCtrl.Get)
		admin.PUT("/consultations/:id", consultationCtrl.Update)
		admin.PATCH("/consultations/:id/status", consultationCtrl.UpdateStatus)
		admin.DELETE("/consultations/:id", consultationCtrl.Delete)

		admin.GET("/contact", contactCtrl.List)
		admin.POST("/contact/bulk-delete", contactCtrl.BulkDelete)
		admin.GET("/contact/:id", contactCtrl.Get)
		admin.PUT("/contact/:id", contactCtrl.Update)
		admin.PATCH("/contact/:id/status", contactCtrl.UpdateStatus)
		admin.DELETE("/contact/:id", contactCtrl.Delete)

		admin.GET("/events", eventCtrl.List)
		admin.POST("/events", eventCtrl.Create)
		admin.POST("/events/bulk-delete", eventCtrl.BulkDelete)
		admin.GET("/events/:id", eventCtrl.Get)
		admin.PUT("/events/:id", eventCtrl.Update)
		admin.DELETE("/events/:id", eventCtrl.Delete)

		admin.GET("/hr-consultation", hrCtrl.List)
		admin.POST("/hr-consultation/bulk-delete", hrCtrl.BulkDelete)
		admin.GET("/hr-consultation/:id", hrCtrl.Get)
		admin.PUT("/hr-consultation/:id", hrCtrl.Update)
		admin.PATCH("/hr-consultation/:id/status", hrCtrl.UpdateStatus)
		admin.DELETE("/hr-consultation/:id", hrCtrl.Delete)

		admin.GET("/quote", quoteCtrl.List)
		admin.POST("/quote/bulk-delete", quoteCtrl.BulkDelete)
		admin.GET("/quote/:id", quoteCtrl.Get)
		admin.PUT("/quote/:id", quoteCtrl.Update)
		admin.PATCH("/quote/:id/status", quoteCtrl.UpdateStatus)
		admin.DELETE("/quote/:id", quoteCtrl.Delete)

		admin.GET("/testimonials", testimonialCtrl.List)
		admin.POST("/testimonials", testimonialCtrl.Create)
		admin.POST("/testimonials/bulk-delete", testimonialCtrl.BulkDelete)
		admin.GET("/testimonials/:id", testimonialCtrl.Get)
		admin.PUT("/testimonials/:id", testimonialCtrl.Update)
		admin.DELETE("/testimonials/:id", testimonialCtrl.Delete)

		admin.GET("/media", uploadCtrl.ListMedia)
		admin.DELETE("/media/:id", uploadCtrl.DeleteMedia)

		// Admin-only
		owner := admin.Group("", middleware.RequireRoles(models.RoleAdmin))
		{
			owner.GET("/users", userCtrl.ListUsers)
			owner.POST("/users", userCtrl.CreateUser)
			owner.POST("/users/import", userCtrl.ImportUsers)
			owner.GET("/users/:id", userCtrl.GetUser)
			owner.PUT("/users/:id", userCtrl.UpdateUser)
			owner.DELETE("/users/:id", userCtrl.DeleteUser)

			owner.GET("/settings", settingsCtrl.List)
			owner.PUT("/settings/:key", settingsCtrl.Put)
			owner.DELETE("/settings/:key", settingsCtrl.Delete)
		}
	}
}
