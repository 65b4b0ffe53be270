package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"templatecheck/internal/checker"
	"templatecheck/internal/parser"
	"templatecheck/internal/templates"
)

// 业务错误码
const (
	CodeOK              = 0
	CodeBadRequest      = 1001
	CodeMissingFile     = 1002
	CodeFileTooLarge    = 1003
	CodeUnsupportedType = 2001
	CodeParseFailed     = 2002
	CodeUndetectable    = 2003
	CodeNotFound        = 4004
	CodeReloadRunning   = 4009
	CodeReferenceLoad   = 5001
	CodeStoreFailed     = 5002
	CodeStoreDisabled   = 5003
	CodeInternal        = 5000
)

// Response 通用响应
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// pipelineError maps checker, parser and registry errors to envelope codes.
func (h *Handler) pipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, checker.ErrUnsupportedType):
		errorResponse(c, CodeUnsupportedType, checker.ErrUnsupportedType.Error())
	case errors.Is(err, parser.ErrParse):
		errorResponse(c, CodeParseFailed, "Unable to read file: "+err.Error())
	case errors.Is(err, checker.ErrUndetectable):
		errorResponse(c, CodeUndetectable, "Could not detect template type. Please select a template manually.")
	case errors.Is(err, templates.ErrTemplateNotFound):
		errorResponse(c, CodeNotFound, err.Error())
	case errors.Is(err, templates.ErrReferenceLoad):
		h.logger.Error("reference template unavailable", zap.Error(err))
		errorResponse(c, CodeReferenceLoad, "Template validation failed: "+err.Error())
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		errorResponse(c, CodeInternal, err.Error())
	}
}
