package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"webformular/internal/config"
	"webformular/internal/database"
	"webformular/internal/domain/formtoken"
	"webformular/internal/domain/submission"
	"webformular/internal/domain/upload"
	"webformular/internal/logger"
	"webformular/internal/mailer"
	"webformular/internal/middleware"
	jwtsvc "webformular/internal/pkg/jwt"
	"webformular/internal/pkg/metrics"
	"webformular/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.AppEnv,
			Debug:       cfg.SentryDebug,
		}); err != nil {
			zlog.Fatal("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db, &submission.Submission{}, &formtoken.Use{}); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	var sender mailer.Sender
	if cfg.SMTPHost != "" {
		sender = mailer.NewSMTPSender(cfg.SMTPAddr(), cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
		zlog.Info("mail via SMTP", zap.String("addr", cfg.SMTPAddr()))
	} else {
		sender = mailer.NewLogSender(zlog)
		zlog.Warn("SMTP_HOST is empty, notification emails are only logged")
	}

	r, err := newRouter(cfg, db, sender, zlog)
	if err != nil {
		zlog.Fatal("router setup failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("form_mode", cfg.FormMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newRouter wires services and routes on an already migrated database.
func newRouter(cfg *config.Config, db *gorm.DB, sender mailer.Sender, zlog *zap.Logger) (*gin.Engine, error) {
	tokenSecret := cfg.FormTokenSecret
	if tokenSecret == "" {
		tokenSecret = cfg.JWTSecret
	}
	tokens, err := formtoken.NewService(formtoken.NewRepository(db), tokenSecret, cfg.FormTokenTTL, zlog)
	if err != nil {
		return nil, err
	}

	uploads, err := upload.NewService(cfg.UploadDir, cfg.UploadURLBase, cfg.UploadMaxSize)
	if err != nil {
		return nil, err
	}

	submissionService := submission.NewService(
		submission.NewRepository(db),
		uploads,
		tokens,
		sender,
		submission.SettingsFromConfig(cfg),
		zlog,
	)
	submissionHandler := submission.NewHandler(submissionService, zlog)

	j := jwtsvc.New(cfg.JWTSecret, cfg.AdminTokenTTL)

	r := gin.New()
	r.Use(middleware.RequestLogger(zlog))
	r.Use(sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: 5 * time.Second,
	}))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.SetHTMLTemplate(web.Templates())
	r.MaxMultipartMemory = cfg.UploadMaxSize

	r.Static(cfg.UploadURLBase, uploads.BaseDir())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	metrics.RegisterHandler(r)

	submission.RegisterPublicRoutes(r, submissionHandler)

	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())
	{
		submission.RegisterAdminRoutes(admin, submissionHandler)
	}

	return r, nil
}
