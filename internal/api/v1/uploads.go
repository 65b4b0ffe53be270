package v1

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListUploads 最近的上传记录
// GET /api/uploads?limit=n
func (h *Handler) ListUploads(c *gin.Context) {
	if h.store == nil {
		errorResponse(c, CodeStoreDisabled, "upload records are disabled")
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(c, CodeBadRequest, "参数错误")
			return
		}
		limit = n
	}

	records, err := h.store.ListUploads(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, CodeStoreFailed, err.Error())
		return
	}
	success(c, records)
}
