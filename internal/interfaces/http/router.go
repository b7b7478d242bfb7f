package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/rescuebox-api/internal/application/auth"
	"github.com/jhoicas/rescuebox-api/internal/application/reservation"
	"github.com/jhoicas/rescuebox-api/internal/application/usecase"
	"github.com/jhoicas/rescuebox-api/internal/domain/entity"
	"github.com/jhoicas/rescuebox-api/internal/infrastructure/storage"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	ReservationUC *reservation.UseCase
	BoxUC         *usecase.BoxUseCase
	ProductUC     *usecase.ProductUseCase
	StoreUC       *usecase.StoreUseCase
	AdminUC       *usecase.AdminUseCase
	// StoreResolver resuelve la tienda de tokens store sin store_id. Si es nil se usa AuthUC.
	StoreResolver auth.StoreResolver
	JWTSecret     string
	// UploadsDir directorio servido en /uploads. Vacío = sin archivos estáticos.
	UploadsDir string
}

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name         string
	BodyLimit    int // bytes; 0 = default de Fiber
	AllowOrigins string
}

// NewApp crea la aplicación Fiber con el manejador de errores y los middlewares comunes.
func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: ErrorHandler,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(RequestID())
	app.Use(RequestLogger())
	if cfg.AllowOrigins != "" {
		app.Use(CORS(cfg.AllowOrigins))
	}
	return app
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	resolver := deps.StoreResolver
	if resolver == nil && deps.AuthUC != nil {
		resolver = deps.AuthUC
	}
	authn := AuthMiddleware(deps.JWTSecret, resolver)
	asUser := RequireRole(entity.RoleUser)
	asStore := RequireRole(entity.RoleStore)
	asAdmin := RequireRole(entity.RoleAdmin)

	if deps.UploadsDir != "" {
		app.Static(strings.TrimSuffix(storage.PublicPrefix, "/"), deps.UploadsDir)
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", LoginRateLimiter(), authHandler.Login)

	// Reservas
	reservas := api.Group("/reservas", authn)
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservas.Post("/", asUser, reservationHandler.Create)
	reservas.Get("/mis", asUser, reservationHandler.ListMine)
	reservas.Get("/store", asStore, reservationHandler.ListForStore)
	reservas.Post("/:id/validar", asStore, reservationHandler.Validate)
	reservas.Patch("/:id/cancelar", asUser, reservationHandler.Cancel)
	reservas.Get("/:id/comprobante", asUser, reservationHandler.Voucher)

	// Cajas: listado público y detalle sin sesión; gestión para rol store
	boxes := api.Group("/boxes")
	boxHandler := NewBoxHandler(deps.BoxUC)
	boxes.Get("/public", boxHandler.ListPublic)
	boxes.Get("/", authn, asStore, boxHandler.List)
	boxes.Post("/", authn, asStore, boxHandler.Create)
	boxes.Get("/:id", boxHandler.Get)

	// Productos (rol store)
	products := api.Group("/products", authn, asStore)
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Post("/", productHandler.Create)

	// Autogestión de tienda
	store := api.Group("/store", authn, asStore)
	storeHandler := NewStoreHandler(deps.StoreUC)
	store.Get("/products", productHandler.List)
	store.Post("/products", productHandler.Create)
	store.Get("/boxes", boxHandler.List)
	store.Post("/boxes", boxHandler.Create)
	store.Get("/stats", storeHandler.Stats)

	// Admin
	admin := api.Group("/admin", authn, asAdmin)
	adminHandler := NewAdminHandler(deps.AdminUC)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/stores", adminHandler.ListStores)
	admin.Get("/stores-with-boxes", adminHandler.ListStoresWithBoxes)
	admin.Get("/stats", adminHandler.Stats)
	admin.Post("/stores", adminHandler.CreateStore)
}
