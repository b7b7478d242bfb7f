package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"

	_ "github.com/jhoicas/rescuebox-api/docs"
	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/cache"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/events"
	infrapdf "github.com/jhoicas/rescuebox-api/internal/infrastructure/pdf"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/postgres"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/rescuebox-api/internal/interfaces/http"
	"github.com/jhoicas/rescuebox-api/pkg/config"
	"github.com/jhoicas/rescuebox-api/pkg/logger"
)

// @title                       RescueBox API
// @version                     1.0
// @description                 Cajas de excedentes con descuento: catálogo, reservas y retiro en tienda.
// @BasePath                    /
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
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Int("aplicadas", len(applied)).Msg("migraciones al día")
	}

	userRepo := postgres.NewUserRepository(pool)
	storeRepo := postgres.NewStoreRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	boxRepo := postgres.NewBoxRepository(pool)
	reservationRepo := postgres.NewReservationRepository(pool)
	adminRepo := postgres.NewAdminReportRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, storeRepo, txRunner, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Afiliación de tienda: Redis opcional delante de la consulta a la DB
	var storeResolver auth.StoreResolver = authUC
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché")
		} else {
			defer rdb.Close()
			storeResolver = cache.NewStoreResolver(authUC, rdb, cfg.Redis.StoreCacheTTL)
			log.Info().Msg("caché de tiendas en redis habilitada")
		}
	}

	// Eventos de reservas: Kafka opcional
	var publisher reservation.EventPublisher = events.NopPublisher{}
	if cfg.Kafka.Enabled() {
		producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.App.Name, 256)
		defer func() {
			if err := producer.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar productor kafka")
			}
		}()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("eventos de reservas en kafka")
	}

	photos, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("directorio de uploads")
	}

	reservationUC := reservation.NewUseCase(reservationRepo, txRunner, publisher,
		infrapdf.NewVoucherGenerator(cfg.App.Name),
		reservation.Options{StrictPickup: cfg.Reservations.StrictPickup})
	boxUC := usecase.NewBoxUseCase(boxRepo, productRepo)
	productUC := usecase.NewProductUseCase(productRepo, photos)
	storeUC := usecase.NewStoreUseCase(reservationRepo)
	adminUC := usecase.NewAdminUseCase(adminRepo, authUC)

	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:         cfg.App.Name,
		BodyLimit:    cfg.Uploads.MaxBytes(),
		AllowOrigins: cfg.HTTP.AllowOrigins,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "RescueBox API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		ReservationUC: reservationUC,
		BoxUC:         boxUC,
		ProductUC:     productUC,
		StoreUC:       storeUC,
		AdminUC:       adminUC,
		StoreResolver: storeResolver,
		JWTSecret:     cfg.JWT.Secret,
		UploadsDir:    photos.Dir(),
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
