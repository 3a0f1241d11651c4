// Package router assembles the gin engine: middleware, health checks and
// the contact routes.
package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/contact-manager/internal/http/handlers/contact"
	"github.com/aanand-mishra/contact-manager/internal/http/middleware"
	"github.com/aanand-mishra/contact-manager/internal/storage"
)

// Deps is everything the router needs.
type Deps struct {
	ServiceName string
	Version     string
	Store       storage.Storage
	Validator   *validator.Validate
	Log         *slog.Logger

	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string
	RateLimit   float64
	Burst       int
}

// Build returns the engine with every route registered.
//
//	POST   /api/contacts          batch create
//	POST   /api/contact/add       create one
//	GET    /api/contact/all       list
//	GET    /api/contact/export    list as CSV
//	GET    /api/contact/:id       get one
//	PUT    /api/contact/:id       update one
//	DELETE /api/contact/:id       delete one
//	GET    /health, /healthz
func Build(dep Deps) *gin.Engine {
	if dep.Log == nil {
		dep.Log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(dep.Log))
	r.Use(cors.New(corsConfig(dep.CORSOrigins)))

	NewHealthHandler(dep.ServiceName, dep.Version, dep.Store).RegisterRoutes(r)

	api := r.Group("/api")
	api.Use(middleware.RateLimit(dep.RateLimit, dep.Burst))

	api.POST("/contacts", contact.CreateBatch(dep.Store, dep.Validator))

	c := api.Group("/contact")
	c.POST("/add", contact.New(dep.Store, dep.Validator))
	c.GET("/all", contact.GetList(dep.Store))
	c.GET("/export", contact.Export(dep.Store))
	c.GET("/:id", contact.GetByID(dep.Store))
	c.PUT("/:id", contact.Update(dep.Store, dep.Validator))
	c.DELETE("/:id", contact.Delete(dep.Store))

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, middleware.HeaderRequestID)
	cfg.ExposeHeaders = []string{middleware.HeaderRequestID}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}
