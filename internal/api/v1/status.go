package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"templatecheck/internal/model"
	"templatecheck/internal/store"
	"templatecheck/internal/templates"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Templates         int                      `json:"templates"`
	Ranking           string                   `json:"ranking"`
	CacheEnabled      bool                     `json:"cacheEnabled"`
	CachedTemplates   int                      `json:"cachedTemplates"`
	Reloading         bool                     `json:"reloading"`
	LastReloadAt      *time.Time               `json:"lastReloadAt,omitempty"`
	UploadsByTemplate map[model.TemplateID]int `json:"uploadsByTemplate,omitempty"`
	UptimeSeconds     int64                    `json:"uptimeSeconds"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Templates:     len(templates.List()),
		Ranking:       string(h.ranking),
		CacheEnabled:  h.cache != nil,
		Reloading:     h.reloading.Load(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.cache != nil {
		resp.CachedTemplates = h.cache.Len()
	}

	if h.store != nil {
		if t, err := h.store.GetSettingTime(store.SettingLastReload); err == nil {
			resp.LastReloadAt = &t
		}
		if counts, err := h.store.CountUploadsByTemplate(c.Request.Context()); err == nil {
			resp.UploadsByTemplate = counts
		}
	}

	success(c, resp)
}
