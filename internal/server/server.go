package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rkilchmn/openrouter-free-scanner/internal/catalog"
	"github.com/rkilchmn/openrouter-free-scanner/internal/config"
	"github.com/rkilchmn/openrouter-free-scanner/internal/health"
	"github.com/rkilchmn/openrouter-free-scanner/internal/proxy"
	"github.com/rkilchmn/openrouter-free-scanner/internal/server/middleware"
	"github.com/rkilchmn/openrouter-free-scanner/internal/store/sqlite"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	engine  *proxy.Router
	cache   *catalog.Cache
	tracker *health.Tracker
	journal *sqlite.Journal // may be nil
}

func New(cfg *config.Config, logger *zap.Logger, engine *proxy.Router, cache *catalog.Cache, tracker *health.Tracker, journal *sqlite.Journal) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	s := &Server{
		router:  r,
		config:  cfg,
		logger:  logger,
		engine:  engine,
		cache:   cache,
		tracker: tracker,
		journal: journal,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
