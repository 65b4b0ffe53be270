package v1

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"templatecheck/internal/checker"
	"templatecheck/internal/exporter"
	"templatecheck/internal/model"
	"templatecheck/internal/parser"
	"templatecheck/internal/store"
	"templatecheck/internal/templates"
)

var errFileTooLarge = errors.New("file too large")

// ListTemplates 模板列表
// GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	success(c, templates.List())
}

// DownloadTemplate 下载模板母版文件
// GET /api/templates/:id/download
func (h *Handler) DownloadTemplate(c *gin.Context) {
	def, data, err := h.registry.ReadReference(c.Request.Context(), model.TemplateID(c.Param("id")))
	if err != nil {
		h.pipelineError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", def.FileName))
	c.Data(http.StatusOK, parser.MIMETypeXLSX, data)
}

// DetectTemplate 识别上传文件的模板类型
// POST /api/templates/detect
func (h *Handler) DetectTemplate(c *gin.Context) {
	upload, ok := h.readUpload(c)
	if !ok {
		return
	}
	result, err := h.checker.Detect(c.Request.Context(), upload)
	if err != nil {
		h.pipelineError(c, err)
		return
	}
	success(c, result)
}

// ValidateUpload 校验上传文件; the optional "template" form field skips detection.
// ?format=xlsx returns the report as a workbook instead of JSON.
// POST /api/templates/validate
func (h *Handler) ValidateUpload(c *gin.Context) {
	upload, ok := h.readUpload(c)
	if !ok {
		return
	}
	opts := checker.CheckOptions{
		TemplateID: model.TemplateID(strings.TrimSpace(c.PostForm("template"))),
	}

	result, err := h.checker.Check(c.Request.Context(), upload, opts)
	if err != nil {
		h.pipelineError(c, err)
		return
	}

	if c.Query("format") == "xlsx" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exporter.FileName(upload.FileName)))
		c.Header("Content-Type", parser.MIMETypeXLSX)
		c.Status(http.StatusOK)
		if err := exporter.Write(c.Writer, result.Report, exporter.ExportOptions{
			Classification: &result.Classification,
			UploadMode:     result.UploadMode,
		}); err != nil {
			h.logger.Error("report export failed", zap.Error(err))
		}
		return
	}

	success(c, gin.H{
		"classification":   result.Classification,
		"validationReport": result.Report,
		"uploadMode":       result.UploadMode,
		"summary":          result.Report.Summary(),
		"record":           result.Record,
	})
}

// ReloadTemplates 清空参考模板缓存并重新加载; one reload at a time.
// POST /api/templates/reload
func (h *Handler) ReloadTemplates(c *gin.Context) {
	if !h.reloading.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, Response{
			Code:    CodeReloadRunning,
			Message: "template reload already in progress",
		})
		return
	}
	defer h.reloading.Store(false)

	started := time.Now()
	ctx := c.Request.Context()

	loaded := 0
	if h.cache != nil {
		h.cache.Invalidate()
		if err := h.cache.Warm(ctx); err != nil {
			h.pipelineError(c, err)
			return
		}
		loaded = h.cache.Len()
	} else {
		for _, d := range templates.List() {
			if _, err := h.registry.LoadReferenceStructure(ctx, d.ID); err != nil {
				h.pipelineError(c, err)
				return
			}
			loaded++
		}
	}

	if h.store != nil {
		if err := h.store.SetSettingTime(store.SettingLastReload, started); err != nil {
			h.logger.Warn("failed to persist reload time", zap.Error(err))
		}
	}

	h.logger.Info("reference templates reloaded",
		zap.Int("templates", loaded),
		zap.Duration("elapsed", time.Since(started)),
	)
	success(c, gin.H{
		"templates":  loaded,
		"reloadedAt": started.UTC(),
	})
}

// readUpload reads the multipart "file" field, writing the error response itself.
func (h *Handler) readUpload(c *gin.Context) (checker.Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, CodeMissingFile, "未找到上传文件")
		return checker.Upload{}, false
	}
	if fh.Size > h.maxUploadBytes {
		errorResponse(c, CodeFileTooLarge, errFileTooLarge.Error())
		return checker.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		errorResponse(c, CodeBadRequest, "无效的表单数据")
		return checker.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		errorResponse(c, CodeBadRequest, "读取文件失败")
		return checker.Upload{}, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		errorResponse(c, CodeFileTooLarge, errFileTooLarge.Error())
		return checker.Upload{}, false
	}

	return checker.Upload{
		FileName: fh.Filename,
		MIMEType: normalizeMIME(fh.Header.Get("Content-Type")),
		Data:     data,
	}, true
}

// normalizeMIME drops the generic type clients send for every file.
func normalizeMIME(mimeType string) string {
	if strings.HasPrefix(mimeType, "application/octet-stream") {
		return ""
	}
	return mimeType
}
