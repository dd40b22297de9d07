package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/promptvault/promptvault/internal/pkg/errcode"
	"github.com/promptvault/promptvault/internal/pkg/response"
	"github.com/promptvault/promptvault/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query    string  `json:"query"`
	Limit    int     `json:"limit"`
	MinScore float64 `json:"min_score"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Query == "" {
		response.Error(c, errcode.ErrInvalid, "query required")
		return
	}
	results, err := h.search.Search(c.Request.Context(), req.Query, req.Limit, req.MinScore)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"results": results})
}

func (h *SearchHandler) Rebuild(c *gin.Context) {
	stats, err := h.search.RebuildAll(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, stats)
}
