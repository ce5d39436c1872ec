package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartside/cartside-backend/api/controllers"
	cartcontrollers "github.com/cartside/cartside-backend/api/controllers/cart"
	catalogcontrollers "github.com/cartside/cartside-backend/api/controllers/catalog"
	"github.com/cartside/cartside-backend/api/middleware"
	cartsvc "github.com/cartside/cartside-backend/internal/cart"
	catalogsvc "github.com/cartside/cartside-backend/internal/catalog"
	"github.com/cartside/cartside-backend/pkg/config"
	"github.com/cartside/cartside-backend/pkg/logger"
	"github.com/cartside/cartside-backend/pkg/metrics"
	pkgredis "github.com/cartside/cartside-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database controllers.Pinger,
	cache controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	cartService cartsvc.Service,
	catalogService catalogsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, database, cache, logg))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartcontrollers.CartItemAdd(cartService, logg))
				r.Patch("/{productId}", cartcontrollers.CartItemSet(cartService, logg))
				r.Delete("/{productId}", cartcontrollers.CartItemRemove(cartService, logg))
			})
		})

		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", catalogcontrollers.ProductList(catalogService, logg))
			r.Post("/", catalogcontrollers.ProductCreate(catalogService, logg))
			r.Get("/{productId}", catalogcontrollers.ProductFetch(catalogService, logg))
			r.Patch("/{productId}", catalogcontrollers.ProductUpdate(catalogService, logg))
			r.Delete("/{productId}", catalogcontrollers.ProductDelete(catalogService, logg))
		})
	})

	return r
}
