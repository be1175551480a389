package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/telegram-auth-portal/internal/api"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/auth"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/biz"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/conf"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/data"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/logger"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/server"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/service"
	"github.com/pr-poehali-dev/telegram-auth-portal/internal/widget"
)

var flagconf string

var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "Telegram login portal",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context(), flagconf)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: --conf config.yaml")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	// load config
	cfg, err := conf.Load(path)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log := logger.New(level)
	defer func() { _ = log.Sync() }()

	// 手动依赖注入
	// data 层
	storage, err := data.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer storage.Close()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	// biz 层
	sessions := biz.NewSessionStore(storage)
	prefs := biz.NewPreferenceStore(storage)
	board := biz.NewStatusBoard(cfg.Widget.MaxMounts)
	exchanger := auth.NewExchangeClient(cfg.Backend.ExchangeURL, cfg.Backend.Timeout)
	callbacks := biz.NewCallbackHandler(exchanger, sessions, log.Named("callback"))
	demo := biz.NewDemoFallback(sessions, cfg.Demo.Delay, log.Named("demo"))

	widgetCfg := cfg.Widget.WidgetConfig()
	loader, err := widget.NewLoader(cfg.Widget.MaxMounts, log.Named("widget"))
	if err != nil {
		return err
	}
	if !widgetCfg.Configured() {
		log.Info("telegram widget not configured, demo login only")
	}

	// service 层
	authSvc := service.NewAuthService(service.AuthDeps{
		Loader:      loader,
		Widget:      widgetCfg,
		Callbacks:   callbacks,
		Demo:        demo,
		DemoEnabled: cfg.Demo.Enabled,
		Sessions:    sessions,
		Board:       board,
	})
	portalSvc := service.NewPortalService(prefs)

	// api 层
	scopes := auth.Scopes{Secure: cfg.Server.SecureCookies}
	router := api.NewRouter(api.RouterDeps{
		Auth:    api.NewAuthHandler(authSvc, log.Named("api")),
		Portal:  api.NewPortalHandler(portalSvc, log.Named("api")),
		Scopes:  scopes,
		Guard:   auth.NewGuard(sessions, scopes, "/", log.Named("guard")),
		Limiter: api.NewRateLimiter(cfg.RateLimit.RequestsPerMinute),
		Health:  api.NewHealthHandler(time.Now(), loader.Len),
		Logger:  log.Named("http"),
	})

	srv := server.NewHTTPServer(cfg.Server.Addr, router, cfg.Server.ShutdownTimeout, log)
	return srv.Run(ctx)
}
