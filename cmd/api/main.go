package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/swaggo/swag"

	"github.com/jhoicas/pos-ledger/docs"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/application/sales"
	"github.com/jhoicas/pos-ledger/internal/application/usecase"
	domaininv "github.com/jhoicas/pos-ledger/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/notification"
	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/pos-ledger/internal/interfaces/http"
	"github.com/jhoicas/pos-ledger/internal/worker"
	"github.com/jhoicas/pos-ledger/migrations"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/jhoicas/pos-ledger/pkg/migrate"
)

// @title        POS Ledger API
// @version      1.0
// @description  Stock por sucursal, ventas, devoluciones, cambios y traslados con ledger auditable.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.Ledger.AutoMigrate {
		db := postgres.OpenDB(pool)
		if err := migrate.Up(ctx, db, migrations.FS); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		_ = db.Close()
		log.Info().Msg("migraciones aplicadas")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Notificaciones: cola Redis + workers si hay REDIS_URL; si no, inserción directa.
	var sink ports.NotificationSink = notification.NewStoreSink(notificationRepo)
	var notificationPool *worker.NotificationPool
	if cfg.Redis.Enabled() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("REDIS_URL inválida")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		sink = notification.NewQueueSink(rdb, cfg.Redis.Queue)
		notificationPool = worker.NewNotificationPool(rdb, cfg.Redis.Queue, notificationRepo, cfg.Redis.Workers, log, ledgerMetrics)
	}

	recorder := inventory.NewRecorder(ledgerMetrics)
	alerter := inventory.NewStockAlerter(stockRepo, productRepo, sink,
		domaininv.NewLowStockPolicy(cfg.Ledger.LowStockFloor), log, ledgerMetrics)

	stockUC := inventory.NewStockUseCase(txRunner, recorder, alerter, productRepo, branchRepo, ledgerMetrics)
	stockQueryUC := inventory.NewQueryUseCase(stockRepo, movementRepo)
	replenishmentUC := inventory.NewReplenishmentUseCase(stockRepo, movementRepo)
	saleUC := sales.NewSaleUseCase(txRunner, recorder, alerter, sink,
		saleRepo, productRepo, branchRepo, customerRepo, log, ledgerMetrics)
	saleQueryUC := sales.NewQueryUseCase(saleRepo)
	notificationUC := usecase.NewNotificationUseCase(notificationRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.HTTP.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.HTTP.RateLimit,
			Expiration: time.Minute,
		}))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})
	if _, err := os.Stat(cfg.HTTP.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "POS Ledger API",
		}))
	} else {
		log.Warn().Str("file", cfg.HTTP.SwaggerFile).Msg("swagger.json no encontrado, UI desactivada")
	}

	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:         stockUC,
		StockQueryUC:    stockQueryUC,
		ReplenishmentUC: replenishmentUC,
		SaleUC:          saleUC,
		SaleQueryUC:     saleQueryUC,
		NotificationUC:  notificationUC,
		BranchChecker:   branchRepo,
		HealthCheck: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		JWTSecret: cfg.JWT.Secret,
	})

	workerDone := make(chan struct{})
	if notificationPool != nil {
		go func() {
			defer close(workerDone)
			if err := notificationPool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("worker de notificaciones finalizado")
			}
		}()
	} else {
		close(workerDone)
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("workers de notificaciones no terminaron a tiempo")
	}

	log.Info().Msg("aplicación detenida")
}
