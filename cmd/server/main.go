package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/abic-consultancy/abic_backend/internal/booking"
	"github.com/abic-consultancy/abic_backend/internal/config"
	"github.com/abic-consultancy/abic_backend/internal/controllers"
	"github.com/abic-consultancy/abic_backend/internal/database"
	"github.com/abic-consultancy/abic_backend/internal/logging"
	"github.com/abic-consultancy/abic_backend/internal/notify"
	"github.com/abic-consultancy/abic_backend/internal/routes"
	"github.com/abic-consultancy/abic_backend/internal/upload"
	"github.com/abic-consultancy/abic_backend/internal/ws"
)

func main() {
	// Load .env (non-fatal if missing in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Logger = logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if err := database.SeedAdmin(db, cfg); err != nil {
		return err
	}
	if err := controllers.RegisterValidators(); err != nil {
		return err
	}

	clock := clockwork.NewRealClock()

	var (
		store     upload.SessionStore
		redisPing controllers.PingFunc
	)
	if cfg.RedisURL != "" {
		rdb, err := upload.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = upload.NewRedisStore(rdb)
		redisPing = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		slog.Warn("REDIS_URL not set, upload sessions are kept in memory")
		store = upload.NewMemoryStore(clock)
	}
	uploads, err := upload.NewManager(store, upload.Options{
		Dir:        cfg.UploadDir,
		ChunkSize:  cfg.UploadChunkSize,
		MaxSize:    cfg.UploadMaxSize,
		SessionTTL: cfg.UploadSessionTTL,
		Clock:      clock,
	})
	if err != nil {
		return err
	}
	go uploads.RunSweeper(ctx, cfg.UploadSessionTTL/4)

	hub := ws.NewAdminHub()
	go hub.Run(ctx)

	publisher, closePublisher, err := newPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	planner := booking.NewPlanner(clock, cfg.BookingLocation(), booking.Hours{
		Open:        cfg.BookingOpenHour,
		Close:       cfg.BookingCloseHour,
		SlotMinutes: cfg.BookingSlotMinutes,
	})

	r := routes.NewRouter(routes.Deps{
		DB:       db,
		Cfg:      cfg,
		Uploads:  uploads,
		Planner:  planner,
		Notifier: &notify.Dispatcher{Publisher: publisher, Broadcaster: hub},
		Hub:      hub,
		Clock:    clock,
		Redis:    redisPing,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newPublisher connects to RabbitMQ when configured. Without a broker, events
// are mailed in-process in the background so notifications still go out.
func newPublisher(ctx context.Context, cfg *config.Config) (notify.Publisher, func(), error) {
	if cfg.RabbitMQURL != "" {
		mq, err := notify.NewRabbitMQ(cfg.RabbitMQURL, cfg.NotifyQueue)
		if err != nil {
			return nil, nil, err
		}
		return mq, func() { _ = mq.Close() }, nil
	}

	slog.Warn("RABBITMQ_URL not set, notifications are sent in-process")
	worker := &notify.Worker{
		Mailer:     notify.NewMailer(cfg.SendgridAPIKey, mail.Address{Name: cfg.MailFromName, Address: cfg.MailFrom}, cfg.MailFromName),
		StaffEmail: mail.Address{Name: cfg.MailFromName, Address: cfg.NotifyEmail},
		AdminURL:   cfg.AdminURL,
	}
	pub := notify.FuncPublisher(func(reqCtx context.Context, ev notify.Event) error {
		go func() {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), 30*time.Second)
			defer cancel()
			if err := worker.Handle(sendCtx, ev); err != nil {
				slog.ErrorContext(sendCtx, "notification failed", "kind", ev.Kind, "id", ev.ID, "error", err)
			}
		}()
		return nil
	})
	return pub, func() {}, nil
}
