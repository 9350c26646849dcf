package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spynet-dev/spynet/internal/handlers"
	"github.com/spynet-dev/spynet/internal/middleware"
)

func NewRouter(allowedOrigins []string) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", handlers.Signup)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.GET("/detectives", handlers.ListDetectives)
			users.GET("/my-detectives", handlers.MyDetectives)
			users.POST("/assignments", handlers.AssignDetective)
			users.DELETE("/assignments/:detective_id", handlers.UnassignDetective)
			users.GET("/:id", handlers.GetUser)
			users.PUT("/:id", handlers.UpdateUser)
		}

		cases := api.Group("/cases", middleware.AuthMiddleware())
		{
			cases.POST("", handlers.CreateCase)
			cases.GET("", handlers.ListCases)
			cases.GET("/:id", handlers.GetCase)
			cases.PUT("/:id", handlers.UpdateCase)
			cases.DELETE("/:id", handlers.DeleteCase)
		}
	}

	return r
}
