package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	v1 "templatecheck/internal/api/v1"
	"templatecheck/internal/checker"
	"templatecheck/internal/classifier"
	"templatecheck/internal/config"
	"templatecheck/internal/store"
	"templatecheck/internal/templates"
	"templatecheck/internal/validator"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	v1      *v1.Handler
	logger  *zap.Logger
	httpSrv *http.Server
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ranking, err := classifier.ParseRanking(cfg.Classifier.Ranking)
	if err != nil {
		return nil, err
	}

	var sqliteStore *store.Store
	if cfg.Data.RecordUploads {
		dataDir, err := config.EnsureDataDir(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		sqliteStore, err = store.New(config.DatabasePath(dataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	registry := templates.NewRegistry(NewAssetSource(cfg.Templates), logger.Named("templates"))
	var (
		loader validator.ReferenceLoader = registry
		cache  *templates.CachedLoader
	)
	if cfg.Templates.Cache {
		cache = templates.NewCachedLoader(registry)
		loader = cache
	}

	opts := []checker.Option{checker.WithLogger(logger.Named("checker"))}
	var uploadStore v1.UploadStore
	if sqliteStore != nil {
		opts = append(opts, checker.WithRecorder(sqliteStore))
		uploadStore = sqliteStore
	}
	chk := checker.New(
		classifier.New(classifier.WithRanking(ranking)),
		validator.New(loader, logger.Named("validator")),
		opts...,
	)

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		logger: logger,
		v1: v1.NewHandler(v1.Options{
			Checker:        chk,
			Registry:       registry,
			Cache:          cache,
			Store:          uploadStore,
			Ranking:        ranking,
			MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
			Logger:         logger.Named("api"),
		}),
	}
	s.setupRoutes()

	return s, nil
}

// NewAssetSource picks the reference asset source: directory, then base URL,
// then the master files compiled into the binary.
func NewAssetSource(cfg config.TemplatesConfig) templates.AssetSource {
	switch {
	case cfg.Dir != "":
		return templates.NewDirSource(cfg.Dir)
	case cfg.BaseURL != "":
		return templates.NewHTTPSource(cfg.BaseURL, cfg.FetchTimeout())
	default:
		return templates.NewEmbeddedSource()
	}
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.router.Use(recovery(s.logger), requestLogger(s.logger))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", s.healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}
}

func (s *Server) healthz(c *gin.Context) {
	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Handler 返回路由（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器, blocking until Shutdown.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 停止服务并关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}
	if s.store != nil {
		err = errors.Join(err, s.store.Close())
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
