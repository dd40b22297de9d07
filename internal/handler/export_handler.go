package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promptvault/promptvault/internal/pkg/errcode"
	"github.com/promptvault/promptvault/internal/pkg/response"
	"github.com/promptvault/promptvault/internal/service"
)

type ExportHandler struct {
	export *service.ExportService
}

func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "md")
	switch format {
	case "html":
		name, body, err := h.export.ExportHTML(c.Request.Context(), c.Param("id"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".html"))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
	case "md":
		name, body, err := h.export.ExportMarkdown(c.Request.Context(), c.Param("id"))
		if err != nil {
			handleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".md"))
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
	default:
		response.Error(c, errcode.ErrInvalid, "unsupported format: "+format)
	}
}
