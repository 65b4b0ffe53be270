package v1

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"templatecheck/internal/checker"
	"templatecheck/internal/classifier"
	"templatecheck/internal/model"
	"templatecheck/internal/templates"
)

// UploadStore 上传记录存储; *store.Store implements it.
type UploadStore interface {
	ListUploads(ctx context.Context, limit int) ([]*model.UploadRecord, error)
	CountUploadsByTemplate(ctx context.Context) (map[model.TemplateID]int, error)
	GetSettingTime(key string) (time.Time, error)
	SetSettingTime(key string, t time.Time) error
}

// Options 处理器依赖
type Options struct {
	Checker        *checker.Checker
	Registry       *templates.Registry
	Cache          *templates.CachedLoader // nil when caching is disabled
	Store          UploadStore             // nil when uploads are not recorded
	Ranking        classifier.Ranking
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// Handler V1 API 处理器
type Handler struct {
	checker        *checker.Checker
	registry       *templates.Registry
	cache          *templates.CachedLoader
	store          UploadStore
	ranking        classifier.Ranking
	maxUploadBytes int64
	logger         *zap.Logger
	startedAt      time.Time

	reloading atomic.Bool
}

// NewHandler 创建 V1 API 处理器
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	ranking := opts.Ranking
	if ranking == "" {
		ranking = classifier.RankFirstMatch
	}
	return &Handler{
		checker:        opts.Checker,
		registry:       opts.Registry,
		cache:          opts.Cache,
		store:          opts.Store,
		ranking:        ranking,
		maxUploadBytes: maxBytes,
		logger:         logger,
		startedAt:      time.Now(),
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 模板
	router.GET("/templates", h.ListTemplates)
	router.GET("/templates/:id/download", h.DownloadTemplate)
	router.POST("/templates/detect", h.DetectTemplate)
	router.POST("/templates/validate", h.ValidateUpload)
	router.POST("/templates/validate/batch", h.ValidateBatch)
	router.POST("/templates/reload", h.ReloadTemplates)

	// 上传记录
	router.GET("/uploads", h.ListUploads)
}
