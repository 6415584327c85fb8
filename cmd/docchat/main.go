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

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/chunk"
	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/handler"
	"github.com/xxxsen/docchat/internal/ingest"
	"github.com/xxxsen/docchat/internal/job"
	"github.com/xxxsen/docchat/internal/kb"
	"github.com/xxxsen/docchat/internal/member"
	"github.com/xxxsen/docchat/internal/middleware"
	"github.com/xxxsen/docchat/internal/pkg/jwt"
	"github.com/xxxsen/docchat/internal/ratelimit"
	"github.com/xxxsen/docchat/internal/report"
	"github.com/xxxsen/docchat/internal/retrieval"
	"github.com/xxxsen/docchat/internal/schedule"
	"github.com/xxxsen/docchat/internal/segment"
	"github.com/xxxsen/docchat/internal/service"
	"github.com/xxxsen/docchat/internal/session"
	"github.com/xxxsen/docchat/internal/source"
	"github.com/xxxsen/docchat/internal/vector"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "document chat assistant server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
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
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")

	var tokenSubject string
	var tokenTTLHours int
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "mint an admin bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ttl := cfg.AdminTTLHours
			if tokenTTLHours > 0 {
				ttl = tokenTTLHours
			}
			token, err := jwt.GenerateToken(tokenSubject, []byte(cfg.AdminSecret), time.Duration(ttl)*time.Hour)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	tokenCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().IntVar(&tokenTTLHours, "ttl-hours", 0, "token lifetime, defaults to admin_ttl_hours")

	rootCmd.AddCommand(runCmd, tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("source", cfg.Source.Type),
		zap.String("vector", cfg.Vector.Type),
	)

	sessions, err := session.Open(cfg.SessionPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	src, err := source.New(cfg.Source.Type, cfg.Source.Data)
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}
	vstore, err := vector.New(cfg.Vector.Type, cfg.Vector.Data)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	kbstore := kb.NewMemory()
	if pg, ok := vstore.(interface{ DB() *sql.DB }); ok {
		kbstore, err = kb.NewPG(ctx, pg.DB())
		if err != nil {
			return fmt.Errorf("init kb store: %w", err)
		}
	}
	checker, err := member.New(cfg.Member.Mode, map[string]interface{}{"users": cfg.Member.Allow})
	if err != nil {
		return fmt.Errorf("init member checker: %w", err)
	}

	provider, err := ai.NewProvider(cfg.AI.Provider, nil)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	ring, err := ai.NewRing(cfg.AI.Keys)
	if err != nil {
		return fmt.Errorf("init key ring: %w", err)
	}
	reporter := report.NewLogReporter()
	orch := ai.NewOrchestrator(provider, ring, ai.OrchestratorConfig{
		Model:       cfg.AI.GenerateModel,
		MaxAttempts: cfg.AI.MaxAttempts,
		Timeout:     time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}, reporter)
	embedder := ai.WrapQueryCache(
		ai.NewEmbedder(provider, ring, cfg.AI.EmbedModel),
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTLMin)*time.Minute,
	)

	splitter, err := chunk.NewSplitter(cfg.Index.WindowWords, cfg.Index.OverlapWords)
	if err != nil {
		return fmt.Errorf("init splitter: %w", err)
	}
	loader := ingest.NewTextLoader(src, cfg.AI.TextCacheSize, time.Duration(cfg.AI.TextCacheTTLMin)*time.Minute)
	kbgen := ai.NewKBGenerator(orch, cfg.AI.KBSampleChars, reporter)
	indexer := ingest.NewIndexer(loader, splitter, embedder, vstore, kbgen, kbstore, reporter)
	engine := retrieval.NewEngine(kb.NewMatcher(kbstore, cfg.AI.KBMatchThreshold), embedder, vstore, cfg.Index.TopK, reporter)

	cooldown := ratelimit.New(time.Duration(cfg.Chat.CooldownSeconds) * time.Second)
	chat := service.NewChat(service.ChatOptions{
		Sessions:   sessions,
		Cooldown:   cooldown,
		Checker:    checker,
		Source:     src,
		Indexer:    indexer,
		Engine:     engine,
		Orch:       orch,
		Emitter:    segment.NewEmitter(cfg.Chat.MaxMessageLen, time.Duration(cfg.Chat.PartDelayMS)*time.Millisecond),
		Reporter:   reporter,
		HistoryMax: cfg.Chat.MaxHistoryTurns,
	})

	deps := handler.RouterDeps{
		Chat:          handler.NewChatHandler(chat),
		Admin:         handler.NewAdminHandler(src, vstore, kbstore, indexer, chat),
		AdminSecret:   []byte(cfg.AdminSecret),
		ChatRateLimit: time.Second,
	}

	engineWeb, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.New()
	if cfg.Jobs.IndexWarmupSpec != "" {
		if err := scheduler.Add(cfg.Jobs.IndexWarmupSpec, job.NewIndexWarmup(src, indexer)); err != nil {
			return err
		}
	}
	if cfg.Jobs.CooldownSweepSpec != "" {
		if err := scheduler.Add(cfg.Jobs.CooldownSweepSpec, job.NewCooldownSweep(cooldown)); err != nil {
			return err
		}
	}
	scheduler.Start(sigCtx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engineWeb.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	return nil
}
