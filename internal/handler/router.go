package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptvault/promptvault/internal/middleware"
	"github.com/promptvault/promptvault/internal/pkg/response"
)

type RouterDeps struct {
	Prompts         *PromptHandler
	Versions        *VersionHandler
	Search          *SearchHandler
	Export          *ExportHandler
	RebuildCooldown time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.POST("/prompts", deps.Prompts.Create)
	api.GET("/prompts", deps.Prompts.List)
	api.GET("/prompts/:id", deps.Prompts.Get)
	// gin's route tree cannot mix a static "by-name" segment with the
	// ":id" wildcard under /prompts, so name lookup lives at the top level.
	api.GET("/by-name/:name", deps.Prompts.GetByName)
	api.PUT("/prompts/:id", deps.Prompts.Update)
	api.DELETE("/prompts/:id", deps.Prompts.Delete)
	api.GET("/categories", deps.Prompts.Categories)

	api.GET("/prompts/:id/versions", deps.Versions.List)
	api.GET("/prompts/:id/versions/:version", deps.Versions.Get)
	api.POST("/prompts/:id/restore/:version", deps.Versions.Restore)

	api.GET("/prompts/:id/export", deps.Export.Export)

	api.POST("/search", deps.Search.Search)
	api.POST("/embeddings/rebuild", middleware.RateLimit(deps.RebuildCooldown), deps.Search.Rebuild)
}
