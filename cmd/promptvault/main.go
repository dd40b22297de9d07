package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/promptvault/promptvault/internal/ai"
	"github.com/promptvault/promptvault/internal/config"
	"github.com/promptvault/promptvault/internal/db"
	"github.com/promptvault/promptvault/internal/embedcache"
	"github.com/promptvault/promptvault/internal/handler"
	"github.com/promptvault/promptvault/internal/job"
	"github.com/promptvault/promptvault/internal/middleware"
	"github.com/promptvault/promptvault/internal/repo"
	"github.com/promptvault/promptvault/internal/schedule"
	"github.com/promptvault/promptvault/internal/seed"
	"github.com/promptvault/promptvault/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "promptvault",
		Short: "promptvault backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run promptvault server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			return runServer(cfg, conn)
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "insert demo prompts into an empty store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			svcs, err := buildServices(cfg, conn)
			if err != nil {
				return err
			}
			n, err := seed.Apply(context.Background(), svcs.prompts)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			logutil.GetLogger(context.Background()).Info("seed finished", zap.Int("inserted", n))
			return nil
		},
	}

	resyncCmd := &cobra.Command{
		Use:   "resync",
		Short: "rebuild embeddings for every active prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, conn, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			svcs, err := buildServices(cfg, conn)
			if err != nil {
				return err
			}
			stats, err := svcs.search.RebuildAll(context.Background())
			if err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}
			logutil.GetLogger(context.Background()).Info("rebuild finished",
				zap.Int("embedded", stats.Embedded),
				zap.Int("failed", stats.Failed),
				zap.Int("total", stats.Total),
			)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, seedCmd, resyncCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return cfg, conn, nil
}

type services struct {
	prompts *service.PromptService
	search  *service.SearchService
	export  *service.ExportService
}

func buildServices(cfg *config.Config, conn *sql.DB) (*services, error) {
	promptRepo := repo.NewPromptRepo(conn)
	versionRepo := repo.NewVersionRepo(conn)
	embeddingRepo := repo.NewEmbeddingRepo(conn)

	var providerArgs interface{} = cfg.AI.Data
	if cfg.AI.Data == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return nil, fmt.Errorf("init ai provider: %w", err)
	}
	docEmbedder := ai.NewEmbedder(provider, cfg.AI.Model)
	// Query embeddings are cacheable; document embeddings are always
	// computed fresh so the index never lags behind content.
	queryEmbedder := embedcache.WrapLruCacheToEmbedder(
		docEmbedder,
		cfg.AI.CacheSize,
		time.Duration(cfg.AI.CacheTTLHours)*time.Hour,
	)

	searchService := service.NewSearchService(
		promptRepo,
		embeddingRepo,
		docEmbedder,
		queryEmbedder,
		cfg.AI.Dimension,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
	)
	promptService := service.NewPromptService(conn, promptRepo, versionRepo, searchService)
	exportService := service.NewExportService(promptRepo)

	return &services{
		prompts: promptService,
		search:  searchService,
		export:  exportService,
	}, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	defer conn.Close()
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("ai_model", cfg.AI.Model),
	)

	svcs, err := buildServices(cfg, conn)
	if err != nil {
		return err
	}

	deps := handler.RouterDeps{
		Prompts:         handler.NewPromptHandler(svcs.prompts),
		Versions:        handler.NewVersionHandler(svcs.prompts),
		Search:          handler.NewSearchHandler(svcs.search),
		Export:          handler.NewExportHandler(svcs.export),
		RebuildCooldown: time.Duration(cfg.RateLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingRefreshJob(svcs.search), cfg.RefreshCron); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
