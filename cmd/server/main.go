package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/auth"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/logger"
	"github.com/inkpress/internal/ratelimit"
	"github.com/inkpress/internal/router"
	"github.com/inkpress/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := cobra.Command{
		Use:   "inkpress",
		Short: "blog backend with analytics and newsletter",
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
		createUserCommand(),
		seedCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap 读取配置、初始化日志并打开数据库。
func bootstrap() (config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		return cfg, fmt.Errorf("init logger: %w", err)
	}
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		return cfg, fmt.Errorf("init database: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cfg)
		},
	}
}

func serve(cfg config.AppConfig) error {
	if err := db.EnsureUser(db.DB, "Admin", cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	warnInsecureDefaults(cfg)

	limiter, closeLimiter := ratelimit.New(cfg.RedisAddr, cfg.TrackRatePerMinute)
	defer closeLimiter()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	api := handler.NewAPI(db.DB, handler.Options{
		UploadDir:      cfg.UploadDir,
		UploadURL:      cfg.UploadURLPath,
		CountryHeaders: cfg.CountryHeaders,
		ContactEmail:   cfg.ContactEmail,
		Site: service.EmailSite{
			Name:        cfg.SiteName,
			URL:         cfg.SiteURL,
			Description: cfg.SiteDescription,
		},
		Resend: service.ResendConfig{
			APIKey:    cfg.ResendAPIKey,
			FromEmail: cfg.ResendFromEmail,
			FromName:  cfg.SiteName,
			BaseURL:   cfg.ResendBaseURL,
		},
		Newsletter: service.NewsletterOptions{
			BatchSize:   cfg.NewsletterBatchSize,
			AutoConfirm: cfg.NewsletterAutoConfirm,
		},
		Tokens:  auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Limiter: limiter,
	})

	engine := router.SetupRouter(api, router.Options{
		SessionSecret:  cfg.SessionSecret,
		SecureCookies:  strings.HasPrefix(cfg.SiteURL, "https://"),
		UploadDir:      cfg.UploadDir,
		UploadURL:      cfg.UploadURLPath,
		TrustedProxies: cfg.TrustedProxies,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}
			defer logger.Sync()
			logger.Info("database migrated")
			return nil
		},
	}
}

func createUserCommand() *cobra.Command {
	var input service.UserInput
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "create an admin or author account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}
			defer logger.Sync()

			user, err := service.NewUserService(db.DB).Create(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) with role %s\n", user.Name, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "password (min 8 characters)")
	cmd.Flags().StringVar(&input.Role, "role", "AUTHOR", "ADMIN or AUTHOR")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// warnInsecureDefaults 在仍使用开发默认密钥时提醒运维。
func warnInsecureDefaults(cfg config.AppConfig) {
	if cfg.UsesDefaultJWTSecret() {
		logger.Warn("JWT_SECRET is the development default, API tokens can be forged", zap.String("env", "JWT_SECRET"))
	}
}
