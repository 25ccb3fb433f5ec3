package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/gin-swagger/swaggerFiles"
	"go.elastic.co/apm/module/apmgin"

	// Generated API docs
	_ "github.com/openappconfig/openappconfig/docs"

	configurationController "github.com/openappconfig/openappconfig/internal/api/controllers/configuration"
	healthController "github.com/openappconfig/openappconfig/internal/api/controllers/health"
	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
	"github.com/openappconfig/openappconfig/internal/domain/configuration"
	"github.com/openappconfig/openappconfig/internal/domain/tracing"
	apmTracing "github.com/openappconfig/openappconfig/internal/infra/apm/tracing"
	"github.com/openappconfig/openappconfig/internal/infra/blobstore/backend"
	"github.com/openappconfig/openappconfig/internal/infra/jsonschema"
	"github.com/openappconfig/openappconfig/internal/infra/server/binding/validation"
	"github.com/openappconfig/openappconfig/internal/infra/server/routing"
	"github.com/openappconfig/openappconfig/internal/infra/server/routing/configs"
	healthRouting "github.com/openappconfig/openappconfig/internal/infra/server/routing/health"
	"github.com/openappconfig/openappconfig/internal/infra/storage"
)

const defaultShutdownTimeout = 10 * time.Second

// Components holds everything that makes up a running server
type Components struct {
	config *config.App
	store  blobstore.Store
	setup  Setup
	tracer tracing.Tracer
	server *http.Server
}

// NewComponents wires up the storage backend, the engine on top of it and the HTTP API
func NewComponents(conf *config.App) (*Components, error) {
	store, backendSetup, err := backend.New(context.Background(), conf.Storage)
	if err != nil {
		return nil, err
	}

	service := storage.NewService(store, conf.Engine)
	writer := configuration.NewWriter(service, jsonschema.NewValidator())

	engine := NewEngine(
		configurationController.New(service, writer, conf.ListConcurrency),
		healthController.New(),
	)

	return &Components{
		config: conf,
		store:  store,
		setup:  NewSetup(backendSetup),
		tracer: apmTracing.NewTracer(),
		server: &http.Server{
			Addr:    conf.BindAddress,
			Handler: engine,
		},
	}, nil
}

// NewEngine builds the gin engine serving the API
func NewEngine(configsController configurationController.Controller, health healthController.Controller) *gin.Engine {
	validation.SetUpValidators()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.SetLogger(logger.Config{
		Logger: &log.Logger,
		UTC:    true,
	}))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(apmgin.Middleware(engine))
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(routing.NoRoute)
	engine.NoMethod(routing.NoMethod)

	topLevelRouterGroup := routing.NewTopLevelRoutesGroup(engine)

	configsHandler := configs.RoutesHandler{Controller: configsController}
	configsHandler.RegisterRoutes(topLevelRouterGroup)

	healthHandler := healthRouting.RoutesHandler{Controller: health}
	healthHandler.RegisterRoutes(topLevelRouterGroup)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return engine
}

// Run sets up the backend if needed, then serves until SIGINT or SIGTERM
func (c *Components) Run() {
	if err := tracing.Traced(c.tracer, "storage-setup", c.setup.RunIfNeeded); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up storage backend")
	}

	go func() {
		log.Info().Str("bind_address", c.config.BindAddress).Msg("Starting server")
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownTimeout := c.config.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := c.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := c.store.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close storage backend")
	}
	log.Info().Msg("Server exiting")
}
