// router/router.go

package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asinfra/adconsole/auth"
	"github.com/asinfra/adconsole/controller"
	"github.com/asinfra/adconsole/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	authService *auth.Service,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	api := router.Group("/api")

	// Login is the only route reachable without a session.
	controllers.Auth.RegisterPublicRoutes(api)

	protected := api.Group("", middleware.SessionAuth(authService))
	controllers.Auth.RegisterRoutes(protected)
	controllers.Directory.RegisterRoutes(protected)

	ad := protected.Group("/ad")
	controllers.User.RegisterRoutes(ad)
	controllers.Group.RegisterRoutes(ad)
	controllers.Device.RegisterRoutes(ad)

	return router
}
