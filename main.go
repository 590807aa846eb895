package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy_backend/internals/configs"
	database "academy_backend/internals/databases"
	attendanceController "academy_backend/internals/features/academy/attendance/controller"
	attendanceService "academy_backend/internals/features/academy/attendance/service"
	"academy_backend/internals/features/academy/occupancy/listener"
	occupancyController "academy_backend/internals/features/academy/occupancy/controller"
	occupancyService "academy_backend/internals/features/academy/occupancy/service"
	presenceController "academy_backend/internals/features/academy/presence/controller"
	presenceService "academy_backend/internals/features/academy/presence/service"
	scheduleController "academy_backend/internals/features/academy/schedules/controller"
	scheduleService "academy_backend/internals/features/academy/schedules/service"
	"academy_backend/internals/features/academy/store"
	helper "academy_backend/internals/helpers"
	"academy_backend/internals/helpers/logger"
	"academy_backend/internals/middlewares"
	accessLogger "academy_backend/internals/middlewares/logger"
	routes "academy_backend/internals/route"
	routeDetails "academy_backend/internals/route/details"
	"academy_backend/internals/scheduler"
)

// academyStore is what every backend provides: the transactional store
// plus the client/activity directory.
type academyStore interface {
	store.Store
	store.Directory
}

func main() {
	bootLog, _ := zap.NewProduction()
	if err := configs.LoadEnv(); err != nil {
		bootLog.Warn("env file not loaded", zap.Error(err))
	}
	cfg, err := configs.Load()
	if err != nil {
		bootLog.Fatal("invalid configuration", zap.Error(err))
	}

	log, err := logger.New(&cfg.Log, logger.DefaultServiceName)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	loc := cfg.Location()

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			if code >= 500 {
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return helper.JsonError(c, code, err.Error())
		},
	})

	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	// Request-ID + HTTP timeout guard (matches the DB statement_timeout)
	app.Use(func(c *fiber.Ctx) error {
		id := c.Get("X-Request-ID")
		if id == "" {
			id = utils.UUID()
		}
		c.Set("X-Request-ID", id)
		c.Locals("requestid", id)
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	app.Use(middlewares.RecoveryMiddleware(log))
	app.Use(middlewares.CorsMiddleware(cfg.CORSOrigins))
	app.Use(accessLogger.LoggerMiddleware(log, cfg.Timezone))

	// 🔌 store selection
	var (
		st       academyStore
		gdb      *gorm.DB
		fsClient *firestore.Client
		ping     routes.Pinger
	)
	switch cfg.StoreDriver {
	case configs.StoreDriverPostgres:
		gdb, err = database.ConnectDB(cfg.DB, log)
		if err != nil {
			log.Fatal("database connect failed", zap.Error(err))
		}
		database.TunePool(gdb, log)
		if err := database.RunMigrations(gdb, log); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
		database.WarmUp(gdb, log)
		st = store.NewGormStore(gdb)
		ping = func(ctx context.Context) error { return database.Ping(ctx, gdb) }
	case configs.StoreDriverFirestore:
		initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		fsClient, err = store.NewFirestoreClient(initCtx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		cancel()
		if err != nil {
			log.Fatal("firestore init failed", zap.Error(err))
		}
		st = store.NewFirestoreStore(fsClient)
	default:
		log.Warn("using in-memory store; data is lost on restart")
		st = store.NewMemoryStore()
	}
	log.Info("store ready", zap.String("driver", cfg.StoreDriver))

	// services
	engine := occupancyService.NewEngine(st, log, loc)
	reconciler := occupancyService.NewReconciler(st, log, loc)
	materializer := scheduleService.NewMaterializer(st, log)
	grid := scheduleService.NewGridLoader(st, st)
	manager := attendanceService.NewManager(st, st, engine, log)
	calc := presenceService.NewCalculator(st, st, log)

	// trigger delivery over LISTEN/NOTIFY
	bgCtx, stopBg := context.WithCancel(context.Background())
	listenerDone := make(chan struct{})
	if cfg.StoreDriver == configs.StoreDriverPostgres && cfg.TriggerListenerEnabled {
		l := listener.New(cfg.DB.ListenerDSN(), cfg.EnrollmentChannel, engine, log)
		go func() {
			defer close(listenerDone)
			if err := l.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("listener stopped", zap.Error(err))
			}
		}()
	} else {
		close(listenerDone)
	}

	// ⏱ background jobs once the store is ready
	cronJobs, err := scheduler.Start(scheduler.Config{
		ReconcileSpec:   cfg.ReconcileCron,
		MaterializeSpec: cfg.MaterializeCron,
		HorizonDays:     cfg.MaterializeHorizonDays,
		Loc:             loc,
	}, scheduler.Jobs{Reconciler: reconciler, Materializer: materializer}, log)
	if err != nil {
		log.Fatal("scheduler init failed", zap.Error(err))
	}

	routes.SetupRoutes(app, routes.Deps{
		Log:           log,
		Loc:           loc,
		StoreDriver:   cfg.StoreDriver,
		WebhookSecret: cfg.WebhookSecret,
		Ping:          ping,
		Controllers: routeDetails.AcademyControllers{
			Schedules:  scheduleController.New(grid, materializer, loc, log),
			Occupancy:  occupancyController.New(engine, reconciler, log),
			Attendance: attendanceController.New(manager, st, log),
			Presence:   presenceController.New(calc, loc, log),
		},
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	stopBg()
	<-listenerDone
	<-cronJobs.Stop().Done()

	if gdb != nil {
		if err := database.Close(gdb); err != nil {
			log.Warn("db close failed", zap.Error(err))
		}
	}
	if fsClient != nil {
		_ = fsClient.Close()
	}
}
