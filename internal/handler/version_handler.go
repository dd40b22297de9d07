package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptvault/promptvault/internal/pkg/errcode"
	"github.com/promptvault/promptvault/internal/pkg/response"
	"github.com/promptvault/promptvault/internal/service"
)

type VersionHandler struct {
	prompts *service.PromptService
}

func NewVersionHandler(prompts *service.PromptService) *VersionHandler {
	return &VersionHandler{prompts: prompts}
}

func (h *VersionHandler) List(c *gin.Context) {
	versions, err := h.prompts.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"versions": versions})
}

func (h *VersionHandler) Get(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		response.Error(c, errcode.ErrInvalid, "invalid version")
		return
	}
	entry, err := h.prompts.GetVersion(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entry)
}

func (h *VersionHandler) Restore(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		response.Error(c, errcode.ErrInvalid, "invalid version")
		return
	}
	prompt, err := h.prompts.Restore(c.Request.Context(), c.Param("id"), version)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prompt)
}
