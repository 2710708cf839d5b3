package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekalkan/pazaryeri/internal/auth"
	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/chat"
	"github.com/ekalkan/pazaryeri/internal/domain/checkout"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/domain/seller"
	"github.com/ekalkan/pazaryeri/internal/email"
	"github.com/ekalkan/pazaryeri/internal/handler"
	"github.com/ekalkan/pazaryeri/internal/payment"
	"github.com/ekalkan/pazaryeri/internal/realtime"
	"github.com/ekalkan/pazaryeri/internal/repository"
	"github.com/ekalkan/pazaryeri/internal/tasks"
	"github.com/ekalkan/pazaryeri/pkg/health"
	"github.com/ekalkan/pazaryeri/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server and the background
// worker, and handles graceful shutdown. It is the single wiring point for the
// application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	boostPrice, err := decimal.NewFromString(cfg.Boost.Price)
	if err != nil {
		return errors.Wrap(err, "parse boost price")
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis backs chat realtime fan-out and the asynq task queue.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	taskClient := tasks.NewClient(redisOpt)
	defer func() { _ = taskClient.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	listingRepo := repository.NewListingRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	shippingRepo := repository.NewShippingRepository(pool)
	campaignRepo := repository.NewCampaignRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	sellerRepo := repository.NewSellerApplicationRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Payment gateways.
	gateways := payment.NewRouter(map[payment.Kind]payment.Gateway{
		payment.KindCard: payment.NewNetpay(payment.NetpayConfig{
			BaseURL: cfg.Netpay.BaseURL,
			APIKey:  cfg.Netpay.APIKey,
		}),
		payment.KindCardLegacy: payment.NewKartpos(payment.KartposConfig{
			BaseURL:    cfg.Kartpos.BaseURL,
			MerchantID: cfg.Kartpos.MerchantID,
			Secret:     cfg.Kartpos.Secret,
		}),
	})

	notifier := tasks.NewNotifier(taskClient)

	// Domain services.
	listingSvc := listing.NewService(listingRepo, gateways, listing.BoostConfig{
		Price:    boostPrice,
		Duration: cfg.Boost.Duration,
		Currency: checkout.Currency,
	})
	checkoutSvc := checkout.NewService(
		cartRepo,
		cart.NewMaterializer(listingRepo, shippingRepo),
		coupon.NewRepoValidator(campaignRepo, redemptionRepo),
		addressRepo,
		orderRepo,
		gateways,
		notifier,
	)
	orderSvc := order.NewService(orderRepo, notifier)
	chatSvc := chat.NewService(chatRepo, realtime.NewPublisher(rdb))
	sellerSvc := seller.NewService(sellerRepo, shippingRepo)

	// HTTP surface.
	h := handler.NewHandler(
		listingSvc,
		cartRepo,
		checkoutSvc,
		orderSvc,
		chatSvc,
		sellerSvc,
		shippingRepo,
		auth.NewTokenVerifier(cfg.TokenSecret),
		auth.NewKeychain(apikeyRepo, []byte(cfg.APIKeyPepper)),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(mux, "pazaryeri-api",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-Api-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Background worker: e-mail delivery plus the periodic sweeps.
	var sender email.Sender
	if cfg.Email.Endpoint != "" {
		sender = email.NewHTTPSender(email.HTTPConfig{
			Endpoint: cfg.Email.Endpoint,
			APIKey:   cfg.Email.APIKey,
		})
	} else {
		sender = email.NewLogSender(lg.Named("email"))
	}
	processor := tasks.NewProcessor(sender, orderSvc, listingSvc, lg.Named("tasks"))
	worker := tasks.NewServer(redisOpt, lg.Named("asynq"))
	scheduler, err := tasks.NewScheduler(redisOpt, lg.Named("scheduler"))
	if err != nil {
		return errors.Wrap(err, "create scheduler")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := worker.Run(processor.Mux()); err != nil {
			return errors.Wrap(err, "task worker")
		}
		return nil
	})
	g.Go(func() error {
		if err := scheduler.Run(); err != nil {
			return errors.Wrap(err, "task scheduler")
		}
		return nil
	})

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	// Graceful shutdown: flip readiness, drain, then stop everything.
	g.Go(func() error {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		scheduler.Shutdown()
		worker.Shutdown()
		healthSvc.Stop()
		return nil
	})

	return g.Wait()
}
