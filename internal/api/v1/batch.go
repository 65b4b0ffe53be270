package v1

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"templatecheck/internal/checker"
	"templatecheck/internal/importer"
	"templatecheck/internal/model"
)

// ValidateBatch 批量校验 (SSE 流式响应)
// POST /api/templates/validate/batch
func (h *Handler) ValidateBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		errorResponse(c, CodeBadRequest, "无效的表单数据")
		return
	}
	files := form.File["file"]
	if len(files) == 0 {
		errorResponse(c, CodeMissingFile, "未找到上传文件")
		return
	}

	items := make([]importer.Item, 0, len(files))
	for _, fh := range files {
		items = append(items, importer.Item{
			Name: fh.Filename,
			Load: func() (checker.Upload, error) {
				if fh.Size > h.maxUploadBytes {
					return checker.Upload{}, errFileTooLarge
				}
				f, err := fh.Open()
				if err != nil {
					return checker.Upload{}, err
				}
				defer f.Close()
				data, err := io.ReadAll(f)
				if err != nil {
					return checker.Upload{}, err
				}
				return checker.Upload{
					FileName: fh.Filename,
					MIMEType: normalizeMIME(fh.Header.Get("Content-Type")),
					Data:     data,
				}, nil
			},
		})
	}

	opts := importer.Options{
		TemplateID: model.TemplateID(strings.TrimSpace(c.PostForm("template"))),
	}
	if v := c.PostForm("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorResponse(c, CodeBadRequest, "参数错误")
			return
		}
		opts.Workers = n
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, CodeInternal, "不支持流式响应")
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	coordinator := importer.NewCoordinator(h.checker)
	for event := range coordinator.Run(c.Request.Context(), items, opts) {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
