package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/opname-api/docs"
	"github.com/jhoicas/opname-api/internal/application/opname"
	"github.com/jhoicas/opname-api/internal/application/ports"
	"github.com/jhoicas/opname-api/internal/application/stock"
	"github.com/jhoicas/opname-api/internal/application/usecase"
	"github.com/jhoicas/opname-api/internal/domain/repository"
	"github.com/jhoicas/opname-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/opname-api/internal/infrastructure/pdf"
	"github.com/jhoicas/opname-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/opname-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/opname-api/internal/interfaces/http"
	"github.com/jhoicas/opname-api/pkg/config"
	"github.com/jhoicas/opname-api/pkg/logger"
)

// storage backend elegido por STORAGE_DRIVER.
type storage struct {
	txRunner ports.TxRunner
	repos    ports.Repositories
	outlets  repository.OutletRepository
	close    func()
}

// @title                       Opname API
// @version                     1.0
// @description                 Ledger de stock por outlet y conciliación de inventario físico (stock opname).
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo Bearer
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:    cfg.App.Env,
		Level:  cfg.App.LogLevel,
		Global: true,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Caché de stock por outlet: opcional, si Redis no responde se sigue sin caché.
	var cache ports.StockCache
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché deshabilitado")
		} else {
			defer rdb.Close()
			cache = infraredis.NewStockCache(rdb, cfg.Redis.TTL)
		}
	}

	ledgerUC := stock.NewLedgerUseCase(st.txRunner, st.repos.OutletStock, st.repos.Products, st.outlets, cache, log.Zerolog())
	outletUC := usecase.NewOutletUseCase(st.outlets)
	productUC := usecase.NewProductUseCase(st.repos.Products, ledgerUC, log.Component("product"))

	// PDF: acta de conciliación de la sesión
	reportGenerator := infrapdf.NewMarotoReportGenerator(cfg.App.Name)
	opts := []opname.Option{opname.WithReportGenerator(reportGenerator)}
	if cache != nil {
		opts = append(opts, opname.WithStockCache(cache))
	}
	opnameUC := opname.NewUseCase(st.txRunner, st.repos, st.outlets, opname.Config{
		StrictBaseline: cfg.Opname.StrictBaseline,
		NumberAttempts: cfg.Opname.NumberAttempts,
	}, log.Zerolog(), opts...)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Opname API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OutletUC:  outletUC,
		ProductUC: productUC,
		LedgerUC:  ledgerUC,
		OpnameUC:  opnameUC,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			txRunner: memory.NewTxRunner(store),
			repos:    store.Repositories(),
			outlets:  store.Outlets(),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		txRunner: postgres.NewTxRunner(pool),
		repos:    postgres.NewRepositories(pool),
		outlets:  postgres.NewOutletRepository(pool),
		close:    pool.Close,
	}, nil
}
