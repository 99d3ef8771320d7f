// Package badgeapi serves a read-only HTTP API exposing builds together with
// their badges and summaries, for UIs to render.
package badgeapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iver-wharf/wharf-core/pkg/ginutil"
	"github.com/iver-wharf/wharf-core/pkg/logger"
	"github.com/iver-wharf/wharf-postbuild/pkg/badgeapi/docs"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/gin-swagger/swaggerFiles"
)

var log = logger.NewScoped("BADGE-API")

// Config holds settings for the HTTP server.
type Config struct {
	// BindAddress is the IP-address and port, separated by a colon, to bind
	// the HTTP server to. An IP-address of 0.0.0.0 will bind to all
	// IP-addresses.
	BindAddress string
	CORS        CORSConfig
}

// CORSConfig holds settings for the HTTP server's CORS settings.
type CORSConfig struct {
	// AllowAllOrigins enables CORS and allows all hostnames and URLs in the
	// HTTP request origins when set to true. Practically speaking, this
	// results in the HTTP header "Access-Control-Allow-Origin" set to "*".
	AllowAllOrigins bool
	// AllowOrigins enables CORS and allows the list of origins in the
	// HTTP request origins when set.
	AllowOrigins []string
}

type module interface {
	register(g *gin.RouterGroup)
}

// NewRouter creates the HTTP handler of the API.
//
// @title Wharf post-build badge API
// @version v0.1.0
// @description Read-only REST API exporting builds, badges and summaries added by post-build scripts.
// @license.name MIT
// @license.url https://github.com/iver-wharf/wharf-postbuild/blob/master/LICENSE
// @contact.name Iver wharf-postbuild support
// @contact.url https://github.com/iver-wharf/wharf-postbuild/issues
// @contact.email wharf@iver.se
func NewRouter(store buildstore.Store, cfg CORSConfig) *gin.Engine {
	gin.DefaultWriter = ginutil.DefaultLoggerWriter
	gin.DefaultErrorWriter = ginutil.DefaultLoggerWriter

	r := gin.New()
	// Matrix child job names contain slashes, which clients escape.
	r.UseRawPath = true
	r.Use(
		ginutil.DefaultLoggerHandler,
		ginutil.RecoverProblem,
	)
	applyCORS(r, cfg)

	g := r.Group("/api")
	g.GET("/", pingHandler)
	g.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, func(c *ginSwagger.Config) {
		c.InstanceName = docs.SwaggerInfobadgeapi.InstanceName()
	}))
	modules := []module{
		buildModule{store: store},
	}
	for _, m := range modules {
		m.register(g)
	}
	return r
}

// Serve runs the HTTP server until the context is cancelled.
func Serve(ctx context.Context, store buildstore.Store, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.BindAddress,
		Handler:           NewRouter(store, cfg.CORS),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().WithError(err).Message("Failed to shut down web server gracefully.")
		}
	}()
	log.Info().WithString("address", cfg.BindAddress).Message("Serving badge API.")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().
			WithError(err).
			WithString("address", cfg.BindAddress).
			Message("Failed to start web server.")
		return err
	}
	return nil
}

func applyCORS(r *gin.Engine, cfg CORSConfig) {
	if cfg.AllowAllOrigins {
		log.Info().Message("Allowing all origins in CORS.")
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		r.Use(cors.New(corsConfig))
	} else if len(cfg.AllowOrigins) > 0 {
		log.Info().
			WithStringf("origin", "%v", cfg.AllowOrigins).
			Message("Allowing origins in CORS.")
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowOrigins
		corsConfig.AddAllowHeaders("Authorization")
		corsConfig.AllowCredentials = true
		r.Use(cors.New(corsConfig))
	}
}

// Ping is the response from a GET /api/ request.
type Ping struct {
	Message string `json:"message" example:"pong"`
}

// pingHandler godoc
// @id ping
// @summary Ping
// @tags meta
// @produce json
// @success 200 {object} Ping
// @router /api/ [get]
func pingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, Ping{Message: "pong"})
}
