package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tableside/pos-backend/api/controllers"
	analyticscontrollers "github.com/tableside/pos-backend/api/controllers/analytics"
	catalogcontrollers "github.com/tableside/pos-backend/api/controllers/catalog"
	inventorycontrollers "github.com/tableside/pos-backend/api/controllers/inventory"
	ordercontrollers "github.com/tableside/pos-backend/api/controllers/orders"
	"github.com/tableside/pos-backend/api/middleware"
	"github.com/tableside/pos-backend/internal/analytics"
	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/config"
	"github.com/tableside/pos-backend/pkg/db"
	"github.com/tableside/pos-backend/pkg/logger"
	"github.com/tableside/pos-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Catalog   catalog.Service
	Inventory inventory.Service
	Orders    orders.Service
	Analytics analytics.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsHandler http.Handler,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// A nil *redis.Client must not become a non-nil interface.
	var idempotencyStore redis.IdempotencyStore
	readiness := map[string]controllers.Pinger{"database": dbP, "redis": nil}
	if redisClient != nil {
		idempotencyStore = redisClient
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, readiness, logg))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(svc.Orders, logg))
				r.Post("/items", ordercontrollers.AddItems(svc.Orders, logg))
				r.Post("/items/{itemId}/serve", ordercontrollers.Serve(svc.Orders, logg))
				r.Post("/items/{itemId}/cancel", ordercontrollers.CancelItem(svc.Orders, logg))
				r.Delete("/items/{itemId}", ordercontrollers.RemoveItem(svc.Orders, logg))
				r.Post("/close", ordercontrollers.Close(svc.Orders, logg))
				r.Post("/cancel", ordercontrollers.Cancel(svc.Orders, logg))
				r.Post("/payment", ordercontrollers.TogglePayment(svc.Orders, logg))
			})
		})

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", catalogcontrollers.ListDishes(svc.Catalog, logg))
			r.Post("/", catalogcontrollers.CreateDish(svc.Catalog, logg))
			r.Get("/{dishId}", catalogcontrollers.GetDish(svc.Catalog, logg))
			r.Patch("/{dishId}", catalogcontrollers.UpdateDish(svc.Catalog, logg))
			r.Put("/{dishId}/recipe", catalogcontrollers.SetRecipe(svc.Catalog, logg))
		})
		r.Post("/ingredients", catalogcontrollers.CreateIngredient(svc.Catalog, logg))

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventorycontrollers.ListStock(svc.Inventory, logg))
			r.Get("/movements", inventorycontrollers.Movements(svc.Inventory, logg))
			r.Post("/{ingredientId}/restock", inventorycontrollers.Restock(svc.Inventory, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/sales", analyticscontrollers.Sales(svc.Analytics, logg))
			r.Get("/summary", analyticscontrollers.Summary(svc.Analytics, logg))
		})
	})

	return r
}
