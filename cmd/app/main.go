package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"placesmap/cmd/fx/config_fx"
	"placesmap/cmd/fx/controllers_fx"
	"placesmap/cmd/fx/db_fx"
	"placesmap/cmd/fx/generator_fx"
	"placesmap/cmd/fx/geocode_fx"
	"placesmap/cmd/fx/memcache_fx"
	"placesmap/cmd/fx/pipeline_fx"
	"placesmap/cmd/fx/places_fx"
	"placesmap/cmd/fx/whop_fx"
	"placesmap/internal/api"
	"placesmap/internal/config"
	"placesmap/pkg/logging"
)

func main() {
	app := fx.New(
		fx.NopLogger,
		config_fx.Module,
		db_fx.Module,
		whop_fx.Module,
		memcache_fx.Module,
		places_fx.Module,
		pipeline_fx.Module,
		geocode_fx.Module,
		generator_fx.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg config.ServerConfig, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				logging.Info().Str("addr", srv.Addr).Msg("starting HTTP server")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logging.Fatal().Err(err).Msg("HTTP server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logging.Info().Msg("stopping HTTP server")
			ctx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(cfg config.ServerConfig, auth api.Auth, ctrl api.Controllers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	return api.NewRouter(cfg, auth, ctrl)
}
