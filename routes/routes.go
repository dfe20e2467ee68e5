package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pabloERSH/nutrition-service/config"
	"github.com/pabloERSH/nutrition-service/controllers"
	"github.com/pabloERSH/nutrition-service/middlewares"
	"github.com/pabloERSH/nutrition-service/services"
	"github.com/pabloERSH/nutrition-service/utils"
)

// SetupRouter wires services, controllers and middleware onto a gin engine.
func SetupRouter(db *gorm.DB, cfg *config.Config, limiter middlewares.LimiterStore, logger *slog.Logger) *gin.Engine {
	users := services.NewUserService(db)
	authSvc := services.NewAuthService(users, utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL))
	fatSecret := services.NewFatSecretService(services.FatSecretConfig{
		ClientID:     cfg.FatSecretClientID,
		ClientSecret: cfg.FatSecretClientSecret,
	})

	authCtl := controllers.NewAuthController(authSvc, users)
	savedCtl := controllers.NewSavedFoodController(services.NewSavedFoodService(db))
	eatenCtl := controllers.NewEatenFoodController(services.NewEatenFoodService(db, cfg.Location))
	searchCtl := controllers.NewFoodSearchController(fatSecret)

	policy := middlewares.LimitPolicy{RPM: cfg.RateLimitRPM, Burst: cfg.RateLimitBurst}
	throttle := middlewares.RateLimit(limiter, policy)

	r := gin.New()
	r.Use(middlewares.RequestID(), middlewares.RequestLogger(logger), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")

	// Public auth routes
	public := v1.Group("")
	public.Use(throttle)
	{
		public.POST("/register", authCtl.Register)
		public.POST("/login", authCtl.Login)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(middlewares.AuthMiddleware(authSvc), throttle)
	{
		protected.POST("/logout", authCtl.Logout)
		protected.GET("/user", authCtl.Me)

		saved := protected.Group("/saved-foods")
		saved.POST("", savedCtl.Create)
		saved.GET("", savedCtl.List)
		saved.GET("/search", savedCtl.Search)
		saved.PATCH("/:id", savedCtl.Update)
		saved.DELETE("/:id", savedCtl.Delete)

		eaten := protected.Group("/eaten-foods")
		eaten.POST("", eatenCtl.Create)
		eaten.GET("", eatenCtl.List)
		eaten.GET("/show-by-date", eatenCtl.ShowByDate)
		eaten.GET("/:id", eatenCtl.Show)
		eaten.PATCH("/:id", eatenCtl.Update)
		eaten.DELETE("/:id", eatenCtl.Delete)

		protected.GET("/nutrition-service/foods/search", searchCtl.Search)
	}

	return r
}
