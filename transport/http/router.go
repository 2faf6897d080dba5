package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolbook/schoolbook/service"
)

// SetupRouter wires the Gin router.
func SetupRouter(auth *service.AuthService, schools *service.SchoolService) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandlers := NewAuthHandlers(auth)
	schoolHandlers := NewSchoolHandlers(schools)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/request-otp", authHandlers.RequestOTP)
		authGroup.POST("/verify-otp", authHandlers.VerifyOTP)
		authGroup.GET("/session", authHandlers.Session)
		authGroup.POST("/logout", authHandlers.Logout)
	}

	api := router.Group("/api")
	{
		// Browsing is public; registration requires a live session.
		api.GET("/schools", schoolHandlers.List)
		api.POST("/schools", AuthMiddleware(auth), schoolHandlers.Create)
	}

	return router
}
