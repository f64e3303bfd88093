package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wodbooker-go/internal/analytics"
	"wodbooker-go/internal/cache/boxcache"
	"wodbooker-go/internal/clock"
	"wodbooker-go/internal/config"
	"wodbooker-go/internal/domain/reservation"
	"wodbooker-go/internal/domain/user"
	"wodbooker-go/internal/eventbus"
	"wodbooker-go/internal/eventlog"
	"wodbooker-go/internal/httpapi"
	"wodbooker-go/internal/logging"
	"wodbooker-go/internal/notify/dispatcher"
	"wodbooker-go/internal/notify/mail"
	"wodbooker-go/internal/notify/mailqueue"
	"wodbooker-go/internal/notify/push"
	"wodbooker-go/internal/portal"
	"wodbooker-go/internal/ratelimit"
	"wodbooker-go/internal/retention"
	"wodbooker-go/internal/shutdown"
	"wodbooker-go/internal/store"
	"wodbooker-go/internal/store/postgres"
	"wodbooker-go/internal/supervisor"
	wbsync "wodbooker-go/internal/sync"
	"wodbooker-go/internal/tracing"
	"wodbooker-go/internal/worker"
)

// repos bundles every database connection the worker process owns, so
// shutdown.ShutdownableRepos has a single place to close them all.
type repos struct {
	db    *sqlx.DB
	redis *redis.Client
}

func (r repos) Close() {
	if r.redis != nil {
		r.redis.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
}

func main() {
	// Best-effort: a .env file is a local-dev convenience, never a
	// requirement, so a missing file is not an error.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to a YAML config file (optional, env vars override)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer logging.Sync(logger)

	logger.Info("starting wodbooker worker",
		zap.String("env", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	tracingShutdown, err := tracing.Setup(context.Background(), cfg.Tracing, cfg.App.Name, logger)
	if err != nil {
		logger.Warn("tracing setup failed, continuing without spans", zap.Error(err))
		tracingShutdown = func(context.Context) error { return nil }
	}

	if cfg.Database.EnableMigration {
		if err := store.RunMigrations(logger, cfg.Database.GetDSN(), cfg.Database.MigrationPath); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, box cache is running local-only", zap.Error(err))
			redisClient = nil
		}
	}

	connections := repos{db: db, redis: redisClient}

	users := postgres.NewUserRepository(db)
	reservations := postgres.NewReservationRepository(db)
	events := postgres.NewEventRepository(db)
	portalBookings := postgres.NewPortalBookingRepository(db)
	notifications := postgres.NewNotificationRepository(db)
	pushSubs := postgres.NewPushRepository(db)

	var mirror *analytics.Mirror
	if cfg.ClickHouse.Enabled {
		mirror, err = analytics.Connect(context.Background(), cfg.ClickHouse, logger)
		if err != nil {
			logger.Warn("clickhouse unreachable, event mirroring disabled", zap.Error(err))
			mirror = nil
		}
	}
	eventWriter := eventlog.New(events)
	if mirror != nil {
		eventWriter = eventWriter.WithMirror(mirror)
	}

	boxes := boxcache.New(redisClient)

	newClient := func(ctx context.Context, u user.User) (*portal.Client, error) {
		creds := portal.Credentials{Email: u.Email}
		if u.Cookie != "" {
			creds.Cookie = []byte(u.Cookie)
		}
		return portal.New(creds, boxes, logger)
	}

	limiter := ratelimit.New(cfg.RateLimit.MinInterval, cfg.RateLimit.PriorityUserIDs, cfg.RateLimit.WhitelistUserIDs)

	mailSender := mail.New(cfg.SMTP, logger)

	var mailQueue *mailqueue.Queue
	if cfg.RabbitMQ.Enabled {
		mailQueue, err = mailqueue.Connect(cfg.RabbitMQ, logger)
		if err != nil {
			logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
		}
	}

	pushSender, err := push.New(pushSubs, cfg.Push, logger)
	if err != nil {
		logger.Fatal("failed to initialize push sender", zap.Error(err))
	}

	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(context.Background(), cfg.NATS)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDeps := worker.Deps{
		Reservations: reservations,
		Users:        users,
		Events:       eventWriter,
		Limiter:      limiter,
		NewClient:    newClient,
		Clock:        clock.Real{},
		Logger:       logger,
	}
	if bus != nil {
		workerDeps.Notifier = eventbus.WorkerNotifier{Bus: bus}
	}

	sup := supervisor.New(workerDeps, limiter, users, eventWriter, logger)

	active, err := reservations.ListActive(ctx)
	if err != nil {
		logger.Fatal("failed to list active reservations", zap.Error(err))
	}
	emailByUser := loadUserEmails(ctx, users, active)
	sup.StartAll(ctx, active, emailByUser)
	logger.Info("supervisor started", zap.Int("active_reservations", len(active)))

	synchronizer := &wbsync.Synchronizer{
		Users:          users,
		Reservations:   reservations,
		PortalBookings: portalBookings,
		Events:         eventWriter,
		NewClient:      newClient,
		Clock:          clock.Real{},
		Logger:         logger,
	}

	disp := &dispatcher.Dispatcher{
		Users:          users,
		PortalBookings: portalBookings,
		Notifications:  notifications,
		Push:           pushSender,
		Mail:           mailSender,
		Clock:          clock.Real{},
		Logger:         logger,
	}

	if bus != nil {
		go func() {
			if err := bus.Subscribe(ctx, "wodbooker-dispatcher", logger, disp.HandleOutcome); err != nil && ctx.Err() == nil {
				logger.Error("event bus subscription ended", zap.Error(err))
			}
		}()
	}
	if cfg.Features.EnableReminders {
		go disp.RunReminderScanner(ctx)
	}
	if mailQueue != nil {
		go func() {
			if err := mailQueue.Consume(ctx, mailSender); err != nil && ctx.Err() == nil {
				logger.Error("mail queue consumer ended", zap.Error(err))
			}
		}()
	}

	sweeper := &retention.Sweeper{
		Reservations:  reservations,
		Events:        events,
		Notifications: notifications,
		Clock:         clock.Real{},
		Config:        cfg.Retention,
		Logger:        logger,
	}
	go sweeper.Run(ctx)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Config:        cfg.Server,
		Users:         users,
		PushSubs:      pushSubs,
		Push:          pushSender,
		Synchronizer:  synchronizer,
		Logger:        logger,
		EnableSwagger: cfg.Features.EnableSwagger,
	})
	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	go func() {
		logger.Info("admin http api listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped unexpectedly", zap.Error(err))
		}
	}()

	shutdownMgr := shutdown.NewManager(logger)
	shutdownMgr.RegisterDefaultHooks(connections)
	shutdownMgr.RegisterHook(shutdown.PhaseStopAcceptingRequests, "http_server", func(ctx context.Context) error {
		return httpServer.Shutdown(ctx)
	})
	shutdownMgr.RegisterHook(shutdown.PhaseDrainConnections, "supervisor", func(ctx context.Context) error {
		sup.ShutdownAll()
		return nil
	})
	if bus != nil {
		shutdownMgr.RegisterHook(shutdown.PhaseCleanup, "event_bus", func(ctx context.Context) error {
			bus.Close()
			return nil
		})
	}
	if mailQueue != nil {
		shutdownMgr.RegisterHook(shutdown.PhaseCleanup, "mail_queue", func(ctx context.Context) error {
			mailQueue.Close()
			return nil
		})
	}
	if mirror != nil {
		shutdownMgr.RegisterHook(shutdown.PhaseCleanup, "analytics_mirror", func(ctx context.Context) error {
			return mirror.Close()
		})
	}
	shutdownMgr.RegisterHook(shutdown.PhasePostShutdown, "tracing", tracingShutdown)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+10*time.Second)
	defer shutdownCancel()
	if err := shutdownMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown finished with errors", zap.Error(err))
	}

	logger.Info("wodbooker worker stopped")
}

// loadUserEmails resolves the email address behind every active
// reservation's UserID, the map StartAll uses for the whitelist check.
func loadUserEmails(ctx context.Context, users *postgres.UserRepository, active []reservation.Reservation) map[string]string {
	emails := make(map[string]string, len(active))
	seen := make(map[string]struct{})
	for _, res := range active {
		if _, ok := seen[res.UserID]; ok {
			continue
		}
		seen[res.UserID] = struct{}{}
		u, err := users.Get(ctx, res.UserID)
		if err != nil {
			continue
		}
		emails[res.UserID] = u.Email
	}
	return emails
}

