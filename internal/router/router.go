package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warung-pos/api/internal/config"
	"github.com/warung-pos/api/internal/database"
	"github.com/warung-pos/api/internal/enum"
	"github.com/warung-pos/api/internal/handler"
	mw "github.com/warung-pos/api/internal/middleware"
	"github.com/warung-pos/api/internal/service"
	"github.com/warung-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Customer-facing routes (table status, waiter call, bill request) live
// under /public and need no token; everything else sits behind JWT auth,
// with reports additionally gated to owner/manager.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, // SvelteKit dev server
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	tableService := service.NewTableService(queries)
	inventoryService := service.NewInventoryService(pool, func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	})
	reportService := service.NewReportService(queries)

	orderHandler := handler.NewOrderHandler(orderService, queries, hub)
	notificationHandler := handler.NewNotificationHandler(hub)

	// Customer-facing routes (QR code clients, no auth)
	r.Route("/public", func(r chi.Router) {
		orderHandler.RegisterPublicRoutes(r)
		notificationHandler.RegisterPublicRoutes(r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler.RegisterRoutes(r)

		tableHandler := handler.NewTableHandler(tableService, queries, hub)
		tableHandler.RegisterRoutes(r)

		inventoryHandler := handler.NewInventoryHandler(inventoryService, queries, hub)
		inventoryHandler.RegisterRoutes(r)

		menuHandler := handler.NewMenuHandler(queries)
		menuHandler.RegisterRoutes(r)

		// Reports are management-only
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleOwner, enum.UserRoleManager))
			reportHandler := handler.NewReportHandler(reportService)
			reportHandler.RegisterRoutes(r)
		})
	})

	return r
}
