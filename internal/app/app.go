package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"

	"github.com/fitclub-ch/fitclub-server/internal/api"
	"github.com/fitclub-ch/fitclub-server/internal/config"
	"github.com/fitclub-ch/fitclub-server/internal/metrics"
	"github.com/fitclub-ch/fitclub-server/internal/notification"
	"github.com/fitclub-ch/fitclub-server/internal/repository"
	"github.com/fitclub-ch/fitclub-server/internal/scheduler"
	"github.com/fitclub-ch/fitclub-server/internal/service"
)

const migrationsDir = "migrations"

// App owns the wired-up server and its background workers
type App struct {
	cfg        *config.Config
	log        *slog.Logger
	closeDB    func() error
	httpServer *http.Server
	scheduler  *scheduler.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		cfg: cfg,
		log: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	metrics.Register()

	repo, err := app.initRepository()
	if err != nil {
		return nil, err
	}

	if err := app.initServices(repo); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) initRepository() (repository.Repository, error) {
	switch a.cfg.Storage.Driver {
	case "memory":
		repo := repository.NewMemoryRepository()
		if a.cfg.Storage.SeedDemo {
			if err := seedDemoData(context.Background(), repo); err != nil {
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
			a.log.Info("demo data seeded")
		}
		a.closeDB = func() error { return nil }
		return repo, nil

	case "postgres":
		if err := a.runMigrations(); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}

		db, err := config.SetupDatabase(a.cfg)
		if err != nil {
			return nil, fmt.Errorf("init db: %w", err)
		}

		a.log.Info("database connected",
			slog.String("host", a.cfg.Database.Host),
			slog.Int("port", a.cfg.Database.Port),
			slog.String("database", a.cfg.Database.DBName),
		)

		a.closeDB = db.Close
		return repository.NewPostgresRepository(db), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

func (a *App) initServices(repo repository.Repository) error {
	notifier, err := notification.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.log)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}

	svc := service.NewDefaultService(repo, notifier, a.log, service.Options{
		JWTSecret:            a.cfg.Auth.JWTSecret,
		TokenTTL:             a.cfg.Auth.TokenTTL,
		ReferralBonusCredits: a.cfg.Club.ReferralBonusCredits,
		PhotoGrantTTL:        a.cfg.Club.PhotoGrantTTL,
	})

	a.scheduler = scheduler.New(svc, a.cfg.Scheduler.Interval, a.log)

	gin.SetMode(a.cfg.Server.GinMode)
	router := gin.New()
	router.Use(
		api.RequestLogger(a.log),
		api.Recovery(a.log),
		api.Metrics(),
	)
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(a.cfg.Auth.JWTSecret))
		c.Next()
	})

	handler := api.NewHandler(svc)
	handler.SetupRoutes(router)

	a.httpServer = &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	return nil
}

// Run starts the server and blocks until a shutdown signal arrives
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.scheduler.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server starting", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.shutdown()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.WriteTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	a.log.Info("HTTP server stopped")

	if err := a.closeDB(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	a.log.Info("app stopped")
	return nil
}

func (a *App) runMigrations() error {
	db, err := sql.Open("postgres", a.cfg.Database.GetDSN())
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer db.Close()

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	a.log.Info("migrations applied")
	return nil
}
