package main

import (
	"fmt"

	"github.com/angelmondragon/storefront-backend/api/routes"
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
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

func buildDependencies(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions *session.Manager,
	store *gcs.Client,
) (routes.Dependencies, error) {
	conn := dbClient.DB()

	userRepo := users.NewRepository(conn)
	addressRepo := address.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	categoryRepo := categories.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	wishlistRepo := wishlist.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	reportRepo := reports.NewRepository(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	deps := routes.Dependencies{
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessions,
	}

	var err error
	if deps.Auth, err = auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	}); err != nil {
		return deps, fmt.Errorf("auth service: %w", err)
	}
	if deps.Users, err = users.NewService(userRepo); err != nil {
		return deps, fmt.Errorf("users service: %w", err)
	}
	if deps.Addresses, err = address.NewService(dbClient, addressRepo); err != nil {
		return deps, fmt.Errorf("address service: %w", err)
	}
	if deps.Products, err = products.NewService(dbClient, productRepo); err != nil {
		return deps, fmt.Errorf("products service: %w", err)
	}
	if deps.Categories, err = categories.NewService(categoryRepo); err != nil {
		return deps, fmt.Errorf("categories service: %w", err)
	}
	if deps.Cart, err = cart.NewService(dbClient, cartRepo, productRepo); err != nil {
		return deps, fmt.Errorf("cart service: %w", err)
	}
	if deps.Wishlist, err = wishlist.NewService(wishlistRepo, productRepo); err != nil {
		return deps, fmt.Errorf("wishlist service: %w", err)
	}
	if deps.Coupons, err = coupons.NewResolver(couponRepo); err != nil {
		return deps, fmt.Errorf("coupon resolver: %w", err)
	}
	if deps.Checkout, err = checkout.NewService(checkout.ServiceParams{
		Tx:         dbClient,
		Products:   productRepo,
		Orders:     orderRepo,
		Cart:       cartRepo,
		Coupons:    deps.Coupons,
		Addresses:  deps.Addresses,
		Outbox:     outboxSvc,
		Calculator: pricing.NewCalculator(cfg.Pricing),
		Logger:     logg,
	}); err != nil {
		return deps, fmt.Errorf("checkout service: %w", err)
	}
	if deps.Orders, err = orders.NewService(orders.ServiceParams{
		Repository: orderRepo,
		Products:   productRepo,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Logger:     logg,
	}); err != nil {
		return deps, fmt.Errorf("orders service: %w", err)
	}
	if deps.Reports, err = reports.NewService(reportRepo, productRepo); err != nil {
		return deps, fmt.Errorf("reports service: %w", err)
	}
	if store != nil {
		if deps.Uploads, err = uploads.NewService(store, cfg.Uploads.MaxBytes(), logg); err != nil {
			return deps, fmt.Errorf("uploads service: %w", err)
		}
	}
	return deps, nil
}
