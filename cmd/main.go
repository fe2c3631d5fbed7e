package main

import (
	"context"
	"errors"
	"fmt"
	"gemini-gateway/config"
	"gemini-gateway/core"
	"gemini-gateway/core/adapter"
	"gemini-gateway/core/security"
	"gemini-gateway/models"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	cfgPath string
	isDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Gemini generation gateway",
	Long:  `Gateway forwards generation requests to Gemini, rotating through a pool of API keys with retry and failover.`,
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("GATEWAY_CONFIG"), "config file (default is ./config.yaml if present)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newKeysCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if isDebug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 创建日志器
	log, closeLog, err := setupLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	defer closeLog()

	// 🔇 关闭 Gin Debug 模式输出
	gin.SetMode(gin.ReleaseMode)

	// 密钥池为空时拒绝启动
	pool, err := buildCredentialPool(cfg, log)
	if err != nil {
		log.Errorf("💀 Failed to load credentials: %v", err)
		return err
	}

	geminiAdapter := adapter.NewGeminiAdapter(cfg.Gemini.Endpoint, cfg.Gemini.Model, cfg.Gemini.CredentialParam)
	attempter := core.NewHTTPAttempter(core.NewHTTPClient(core.HTTPClientOptions{
		ResponseHeaderTimeout: cfg.Dispatch.RequestTimeout,
	}), geminiAdapter)

	dispatcher := core.NewDispatcher(pool, attempter, log, core.DispatchConfig{
		MaxRetriesPerCredential: cfg.Dispatch.MaxRetriesPerCredential,
		BaseDelay:               cfg.Dispatch.BaseDelay,
		MaxDelay:                cfg.Dispatch.MaxDelay,
		Multiplier:              cfg.Dispatch.Multiplier,
	})

	handler := NewGatewayHandler(dispatcher, log, geminiAdapter.Model(), cfg.Prompt.DefaultSystem, cfg.Dispatch.RequestTimeout)
	engine := newEngine(cfg.Server, handler, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engine,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting Gemini Gateway on port %d (model: %s, credentials: %d)",
			cfg.Server.Port, geminiAdapter.Model(), pool.Len())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		log.Errorf("Failed to start server: %v", err)
		return err
	case <-quit:
	}
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
		return err
	}

	log.Info("Server exited")
	return nil
}

// newEngine 注册中间件与路由
func newEngine(cfg config.ServerConfig, h *GatewayHandler, log *logrus.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(gin.RecoveryWithWriter(log.Writer()))
	engine.Use(requestIDMiddleware())
	engine.Use(corsMiddleware(cfg.CORSOrigin))

	// 公开路由 - 无访问日志
	engine.GET("/", h.handleRoot)
	engine.GET("/health", h.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.Use(requestLoggerMiddleware(log), bodyLimitMiddleware(cfg.MaxBodyBytes))
	{
		api.POST("/generate", h.handleGenerate)
		api.POST("/extract", h.handleExtract)
	}

	return engine
}

// setupLogger 配置了 log.file 时同时写入 stdout 和轮转文件
func setupLogger(cfg config.LogConfig) (*logrus.Logger, func(), error) {
	out := io.Writer(os.Stdout)
	closeFn := func() {}

	if cfg.File != "" {
		rotator, err := core.NewLogRotator(cfg.File, cfg.MaxSizeMB)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	log, err := core.NewLogger(cfg.Level, cfg.Format, out)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return log, closeFn, nil
}

// buildCredentialPool 按 credentials.source 构建只读密钥池
func buildCredentialPool(cfg *config.Config, log *logrus.Logger) (*core.CredentialPool, error) {
	switch cfg.Credentials.Source {
	case "sqlite":
		sp, err := secretProvider(cfg.Credentials.EncryptionKey)
		if err != nil {
			return nil, err
		}
		db, err := openDatabase(cfg.Credentials.DBPath)
		if err != nil {
			return nil, err
		}
		// 密钥池加载后只读，不再需要数据库连接
		defer closeDatabase(db)
		return core.LoadCredentialPoolFromStore(db, sp, log)
	default:
		pool, err := core.LoadCredentialPool(cfg.Credentials.Raw)
		if err != nil {
			return nil, err
		}
		log.Infof("Loaded %d credentials from environment", pool.Len())
		return pool, nil
	}
}

// openDatabase 打开 SQLite 并迁移 - 只记录错误，不打印 SQL 语句
func openDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		closeDatabase(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// closeDatabase 关闭底层连接池
func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// secretProvider 未配置加密密钥时按明文存储
func secretProvider(key string) (core.SecretProvider, error) {
	if key == "" {
		return core.NewPlaintextProvider(), nil
	}
	sp, err := security.NewAESSecretProvider(key)
	if err != nil {
		return nil, err
	}
	return sp, nil
}
