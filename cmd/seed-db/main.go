package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ekalkan/pazaryeri/internal/auth"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
	"github.com/ekalkan/pazaryeri/internal/repository"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or PAZAR_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PAZAR_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PAZAR_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PAZAR_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PAZAR_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedListings(ctx, repository.NewListingRepository(pool)); err != nil {
		return errors.Wrap(err, "seed listings")
	}
	if err := seedShippingConfigs(ctx, repository.NewShippingRepository(pool)); err != nil {
		return errors.Wrap(err, "seed shipping configs")
	}
	if err := seedCampaigns(ctx, repository.NewCampaignRepository(pool)); err != nil {
		return errors.Wrap(err, "seed campaigns")
	}
	if err := seedAddress(ctx, repository.NewAddressRepository(pool)); err != nil {
		return errors.Wrap(err, "seed address")
	}
	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pricePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func seedListings(ctx context.Context, repo *repository.ListingRepository) error {
	listings := []listing.Listing{
		{
			ID: "demo-board", SellerID: "demo-seller-1", SellerEmail: "atolye@example.com",
			Title: "Walnut cutting board", Description: "Hand-finished walnut, 40x25cm",
			Price: price("600"), Stock: 5, Category: "kitchen",
			Images: []string{"https://cdn.example.com/board.jpg"},
		},
		{
			ID: "demo-oil", SellerID: "demo-seller-1", SellerEmail: "atolye@example.com",
			Title: "Cold-pressed olive oil 2L", Price: price("300"),
			DiscountedPrice: pricePtr("270"), Stock: 40, Category: "food",
		},
		{
			ID: "demo-socks", SellerID: "demo-seller-2", SellerEmail: "triko@example.com",
			Title: "Wool socks", Price: price("200"), Stock: 100, Category: "clothing",
			Variants: map[string][]string{
				"size":  {"36-40", "41-45"},
				"color": {"gray", "navy"},
			},
		},
	}

	for i := range listings {
		l := &listings[i]
		if _, err := repo.GetByID(ctx, l.ID); err == nil {
			slog.Info("listing exists, skipping", slog.String("id", l.ID))
			continue
		} else if !errors.Is(err, listing.ErrNotFound) {
			return errors.Wrapf(err, "check listing %s", l.ID)
		}

		l.CreatedAt = time.Now()
		if err := repo.Create(ctx, l); err != nil {
			return errors.Wrapf(err, "create listing %s", l.ID)
		}
		slog.Info("created listing", slog.String("id", l.ID), slog.String("title", l.Title))
	}
	return nil
}

func seedShippingConfigs(ctx context.Context, repo *repository.ShippingRepository) error {
	configs := []shipping.SellerConfig{
		{SellerID: "demo-seller-1", FlatFee: price("50"), FreeShippingEnabled: true, FreeThreshold: price("1000")},
		{SellerID: "demo-seller-2", FlatFee: price("30")},
	}
	for _, cfg := range configs {
		if err := repo.Upsert(ctx, cfg); err != nil {
			return errors.Wrapf(err, "upsert shipping config %s", cfg.SellerID)
		}
		slog.Info("upserted shipping config", slog.String("seller", cfg.SellerID))
	}
	return nil
}

func seedCampaigns(ctx context.Context, repo *repository.CampaignRepository) error {
	campaigns := []coupon.Campaign{
		{
			Code: "ilkindirim", Percent: price("3"), MinSubtotal: price("1000"),
			Description: "3% off your first big order", Active: true,
		},
		{
			Code: "yaz10", Percent: price("10"), MinSubtotal: price("500"),
			Description: "Summer: 10% off orders over 500", Active: true,
		},
	}
	for _, c := range campaigns {
		if err := repo.Upsert(ctx, c); err != nil {
			return errors.Wrapf(err, "upsert campaign %s", c.Code)
		}
		slog.Info("upserted campaign", slog.String("code", c.Code))
	}
	return nil
}

func seedAddress(ctx context.Context, repo *repository.AddressRepository) error {
	err := repo.Upsert(ctx, "demo-address", "demo-buyer", order.Address{
		Name:     "Demo Alıcı",
		Phone:    "+90 555 000 0000",
		Line1:    "Bağdat Cd. 1",
		City:     "Istanbul",
		Postcode: "34000",
	})
	if err != nil {
		return errors.Wrap(err, "upsert demo address")
	}
	slog.Info("upserted demo address", slog.String("id", "demo-address"))
	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	info := auth.APIKeyInfo{
		ID:      "default",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Default admin key",
		Scopes:  []string{"admin"},
	}
	if err := repo.Upsert(ctx, info); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}
	slog.Info("upserted API key", slog.String("id", info.ID), slog.String("name", info.Name))
	return nil
}
