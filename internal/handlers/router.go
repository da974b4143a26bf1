package handlers

import (
	"log/slog"
	"time"

	"conecta-ongs/internal/middleware"
	"conecta-ongs/internal/service"
	ws "conecta-ongs/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Donations      service.DonationService
	Volunteers     service.VolunteerService
	Directory      service.DirectoryService
	Hub            *ws.Hub
	DB             HealthChecker
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(d.AllowedOrigins) == 0 || containsWildcard(d.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	r.Use(cors.New(corsConfig))

	health := NewHealthHandler(d.DB)
	r.GET("/liveness", health.Liveness)
	r.GET("/health", health.Health)
	r.GET("/metrics", health.Metrics)

	donations := NewDonationHandler(d.Donations)
	volunteers := NewVolunteerHandler(d.Volunteers)
	directory := NewDirectoryHandler(d.Directory)
	websocket := NewWebSocketHandler(d.Donations, d.Hub, d.Logger)

	api := r.Group("/api")
	{
		sessions := api.Group("/donations/sessions")
		{
			sessions.POST("", donations.CreateSession)
			sessions.GET("/:id", donations.GetSession)
			sessions.POST("/:id/events", donations.PostEvent)
			sessions.DELETE("/:id", donations.CloseSession)
			sessions.GET("/:id/ws", websocket.ServeWs)
		}

		api.POST("/volunteers", volunteers.Signup)
		api.GET("/address/:cep", volunteers.LookupAddress)

		api.GET("/ngos", directory.ListNGOs)
		api.GET("/states", directory.ListStates)
		api.GET("/locate", directory.Locate)

		api.POST("/display/theme", ResolveTheme)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(d.JWTSecret, d.Logger))
		{
			admin.GET("/volunteers", volunteers.List)
			admin.GET("/receipts", donations.ListReceipts)
		}
	}

	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
