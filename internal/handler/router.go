package handler

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "LinkHub_Backend/docs"
	"LinkHub_Backend/internal/middleware"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	AllowedOrigins []string
	InviteCode     string
	MaxUploadBytes int64
	// AvatarDir and AvatarPrefix are set when avatars are served from local disk.
	AvatarDir    string
	AvatarPrefix string

	Auth   *AuthHandler
	Users  *UserHandler
	Gate   gin.HandlerFunc
	Health Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.InviteCodeHeader}
	router.Use(cors.New(corsConfig))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "welcome to linkhub backend")
	})
	router.GET("/healthz", healthHandler(cfg.Health))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if cfg.AvatarDir != "" && cfg.AvatarPrefix != "" {
		router.Static(cfg.AvatarPrefix, cfg.AvatarDir)
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.InviteCodeMiddleware(cfg.InviteCode), cfg.Auth.Register)
		authGroup.POST("/login", cfg.Auth.Login)
		authGroup.POST("/change-password", cfg.Gate, cfg.Auth.ChangePassword)
	}

	users := api.Group("/users")
	{
		users.GET("/me/profile", cfg.Gate, cfg.Users.GetMyProfile)
		users.POST("/upload-avatar", cfg.Gate, cfg.Users.UploadAvatar)
		users.POST("/update", cfg.Gate, cfg.Users.UpdateProfile)
		users.DELETE("/me", cfg.Gate, cfg.Users.DeleteAccount)

		users.GET("/:username", cfg.Users.GetPublicProfile)
		users.POST("/:username/links/:index/click", cfg.Users.IncrementLinkClick)
	}

	return router
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := db.PingContext(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
