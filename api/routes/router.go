package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/auth"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reports"
	"github.com/angelmondragon/storefront-backend/internal/uploads"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Redis is the slice of the redis client the HTTP layer needs.
type Redis interface {
	pkgredis.IdempotencyStore
	middleware.RateLimiterStore
	controllers.Pinger
}

// Dependencies carries everything the router wires into handlers. Nil
// services make their handlers answer INTERNAL_ERROR instead of panicking.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    Redis
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Auth       auth.Service
	Users      users.Service
	Addresses  address.Service
	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Wishlist   wishlist.Service
	Coupons    coupons.Resolver
	Checkout   checkout.Service
	Orders     orders.Service
	Reports    reports.Service
	Uploads    uploads.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Metrics(deps.HTTP),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)
	idempotent := middleware.Idempotency(deps.Redis, middleware.DefaultIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(signupPolicy, deps.Redis, logg)).Post("/signup", authcontrollers.AuthSignup(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", authcontrollers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", authcontrollers.AuthRefresh(deps.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/slug/{slug}", controllers.ProductGetBySlug(deps.Products, logg))
			r.Get("/{productId}", controllers.ProductGet(deps.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(deps.Categories, logg))
			r.Get("/featured", controllers.CategoryFeatured(deps.Categories, logg))
			r.Get("/{categoryId}", controllers.CategoryGet(deps.Categories, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", authcontrollers.AuthLogout(deps.Auth, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Get("/summary", controllers.CartSummary(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistGet(deps.Wishlist, logg))
				r.Delete("/", controllers.WishlistClear(deps.Wishlist, logg))
				r.Get("/count", controllers.WishlistCount(deps.Wishlist, logg))
				r.Post("/items", controllers.WishlistAddItem(deps.Wishlist, logg))
				r.Delete("/items/{itemId}", controllers.WishlistRemoveItem(deps.Wishlist, logg))
				r.Get("/products/{productId}", controllers.WishlistContains(deps.Wishlist, logg))
				r.Delete("/products/{productId}", controllers.WishlistRemoveProduct(deps.Wishlist, logg))
			})

			r.Post("/coupons/validate", controllers.CouponValidate(deps.Coupons, logg))
			r.Post("/checkout/quote", controllers.CheckoutQuote(deps.Checkout, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderListMine(deps.Orders, logg))
				r.With(idempotent).Post("/", controllers.OrderCreate(deps.Checkout, logg))
				r.Get("/{orderId}", controllers.OrderGetMine(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			})

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.UserProfile(deps.Users, logg))
				r.Patch("/", controllers.UserUpdateProfile(deps.Users, logg))
				r.Get("/addresses", controllers.AddressList(deps.Addresses, logg))
				r.Post("/addresses", controllers.AddressCreate(deps.Addresses, logg))
				r.Patch("/addresses/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/addresses/{addressId}", controllers.AddressDelete(deps.Addresses, logg))
				r.Post("/addresses/{addressId}/default", controllers.AddressSetDefault(deps.Addresses, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.UserRoleAdmin)))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminProductList(deps.Products, logg))
					r.Post("/", controllers.AdminProductCreate(deps.Products, logg))
					r.Get("/{productId}", controllers.AdminProductGet(deps.Products, logg))
					r.Patch("/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
					r.Delete("/{productId}", controllers.AdminProductDelete(deps.Products, logg))
				})

				r.Route("/categories", func(r chi.Router) {
					r.Post("/", controllers.AdminCategoryCreate(deps.Categories, logg))
					r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(deps.Categories, logg))
					r.Delete("/{categoryId}", controllers.AdminCategoryDelete(deps.Categories, logg))
					r.Post("/{categoryId}/featured", controllers.AdminCategoryToggleFeatured(deps.Categories, logg))
				})

				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
					r.Get("/stats", controllers.AdminOrderStats(deps.Reports, logg))
					r.Get("/{orderId}", controllers.AdminOrderGet(deps.Orders, logg))
					r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))
				})

				r.Get("/reports/low-stock", controllers.AdminLowStockReport(deps.Reports, logg))

				r.Route("/users", func(r chi.Router) {
					r.Get("/", controllers.AdminUserList(deps.Users, logg))
					r.Post("/{userId}/block", controllers.AdminUserToggleBlock(deps.Users, logg))
				})

				r.Post("/uploads", controllers.AdminUpload(deps.Uploads, logg))
			})
		})
	})

	return r
}

func readinessChecks(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
