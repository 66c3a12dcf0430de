package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"placesmap/internal/api/controllers"
	"placesmap/internal/config"
	"placesmap/pkg/middleware"
	"placesmap/pkg/whop"
)

// Auth bundles what the access gate needs.
type Auth struct {
	Verifier middleware.UserTokenVerifier
	Checker  middleware.AccessChecker
}

type Controllers struct {
	Places      *controllers.PlacesController
	Experiences *controllers.ExperienceController
	Media       *controllers.MediaController
	Generator   *controllers.GeneratorController
	Geocode     *controllers.GeocodeController
}

func NewRouter(cfg config.ServerConfig, auth Auth, ctrl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigin))

	RegisterRoutes(r, auth, ctrl)
	return r
}

func RegisterRoutes(r *gin.Engine, auth Auth, ctrl Controllers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	anyAccess := middleware.AccessMiddleware(auth.Checker, whop.AccessCustomer)
	admin := middleware.AccessMiddleware(auth.Checker, whop.AccessAdmin)

	experienceGroup := r.Group("/experiences/:experienceId", middleware.WhopAuthMiddleware(auth.Verifier))
	experienceGroup.GET("", anyAccess, ctrl.Experiences.GetExperience)
	experienceGroup.PUT("", admin, ctrl.Experiences.UpdatePrompt)

	experienceGroup.GET("/places", anyAccess, ctrl.Places.ListPlaces)
	experienceGroup.POST("/places", admin, ctrl.Places.CreatePlace)
	experienceGroup.PATCH("/places/:placeId", admin, ctrl.Places.UpdatePlace)
	experienceGroup.DELETE("/places/:placeId", admin, ctrl.Places.DeletePlace)

	experienceGroup.POST("/upload-image", admin, ctrl.Media.UploadImage)
	experienceGroup.POST("/create-forum-post", admin, ctrl.Media.CreateForumPost)

	experienceGroup.POST("/generate", anyAccess, ctrl.Generator.Generate)
	experienceGroup.GET("/geocode", admin, ctrl.Geocode.Geocode)
}
