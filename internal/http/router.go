// Package http registers the API routes and delegates to module services.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"twende/internal/http/handlers"
	"twende/internal/http/middleware"
	"twende/internal/infra"
	"twende/internal/modules/directory"
	"twende/internal/modules/notify"
	"twende/internal/modules/pricing"
	"twende/internal/modules/ride"
)

type RouterDeps struct {
	Rides     *ride.Service
	Directory *directory.Service
	Pricing   *pricing.Service
	Notify    *notify.Service
	Verifier  infra.TokenVerifier
	Log       *logrus.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rides := handlers.NewRideHandler(deps.Rides)
	dir := handlers.NewDirectoryHandler(deps.Directory)
	pricingH := handlers.NewPricingHandler(deps.Pricing)
	notifications := handlers.NewNotificationHandler(deps.Notify)

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	api.POST("/rides", rides.Create)
	// Not under /rides/: a static segment there would collide with the
	// :id wildcard in gin's routing tree.
	api.POST("/estimate", rides.Estimate)
	api.GET("/rides", rides.History)
	api.GET("/rides/:id", rides.Get)
	api.POST("/rides/:id/cancel", rides.Cancel)
	api.POST("/rides/:id/reviews", rides.CreateReview)
	api.GET("/reviews/received", rides.ReviewsReceived)

	api.POST("/vehicles", dir.AddVehicle)
	api.GET("/vehicles", dir.ListVehicles)
	api.GET("/vehicles/:id/qualified-drivers", rides.QualifiedDrivers)

	api.GET("/drivers/:id", dir.GetDriver)

	driver := api.Group("", middleware.RequireRole("driver"))
	driver.GET("/driver/open-rides", rides.OpenRides)
	driver.POST("/rides/:id/accept", rides.Accept)
	driver.PUT("/rides/:id/status", rides.UpdateStatus)
	driver.PUT("/driver/status", dir.SetStatus)
	driver.PUT("/driver/location", dir.UpdateLocation)

	admin := api.Group("/pricing", middleware.RequireRole("admin"))
	admin.POST("/configs", pricingH.Create)
	admin.POST("/configs/:id/activate", pricingH.Activate)
	admin.GET("/configs", pricingH.List)
	admin.GET("/configs/active", pricingH.GetActive)

	api.GET("/notifications", notifications.List)
	api.POST("/notifications/:id/read", notifications.MarkRead)

	return r
}
