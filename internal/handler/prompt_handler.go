package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptvault/promptvault/internal/pkg/errcode"
	"github.com/promptvault/promptvault/internal/pkg/response"
	"github.com/promptvault/promptvault/internal/repo"
	"github.com/promptvault/promptvault/internal/service"
)

type PromptHandler struct {
	prompts *service.PromptService
}

func NewPromptHandler(prompts *service.PromptService) *PromptHandler {
	return &PromptHandler{prompts: prompts}
}

type promptCreateRequest struct {
	Name       string          `json:"name"`
	Title      string          `json:"title"`
	Category   string          `json:"category"`
	Tags       []string        `json:"tags"`
	Content    string          `json:"content"`
	Variables  json.RawMessage `json:"variables"`
	ChangeNote string          `json:"change_note"`
}

type promptUpdateRequest struct {
	Title      *string          `json:"title"`
	Category   *string          `json:"category"`
	Tags       *[]string        `json:"tags"`
	Content    *string          `json:"content"`
	Variables  *json.RawMessage `json:"variables"`
	ChangeNote string           `json:"change_note"`
}

func (h *PromptHandler) Create(c *gin.Context) {
	var req promptCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	prompt, err := h.prompts.Create(c.Request.Context(), service.PromptCreateInput{
		Name:       req.Name,
		Title:      req.Title,
		Category:   req.Category,
		Tags:       req.Tags,
		Content:    req.Content,
		Variables:  req.Variables,
		ChangeNote: req.ChangeNote,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prompt)
}

func (h *PromptHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	prompts, err := h.prompts.List(c.Request.Context(), repo.PromptListFilter{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		Limit:    limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"prompts": prompts})
}

func (h *PromptHandler) Get(c *gin.Context) {
	prompt, err := h.prompts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prompt)
}

func (h *PromptHandler) GetByName(c *gin.Context) {
	prompt, err := h.prompts.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prompt)
}

func (h *PromptHandler) Update(c *gin.Context) {
	var req promptUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	prompt, err := h.prompts.Update(c.Request.Context(), c.Param("id"), service.PromptUpdateInput{
		Title:      req.Title,
		Category:   req.Category,
		Tags:       req.Tags,
		Content:    req.Content,
		Variables:  req.Variables,
		ChangeNote: req.ChangeNote,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prompt)
}

func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.prompts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *PromptHandler) Categories(c *gin.Context) {
	categories, err := h.prompts.ListCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}
