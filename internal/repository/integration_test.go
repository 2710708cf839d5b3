//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ekalkan/pazaryeri/internal/auth"
	"github.com/ekalkan/pazaryeri/internal/domain/cart"
	"github.com/ekalkan/pazaryeri/internal/domain/chat"
	"github.com/ekalkan/pazaryeri/internal/domain/coupon"
	"github.com/ekalkan/pazaryeri/internal/domain/listing"
	"github.com/ekalkan/pazaryeri/internal/domain/order"
	"github.com/ekalkan/pazaryeri/internal/domain/seller"
	"github.com/ekalkan/pazaryeri/internal/domain/shipping"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pgc, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("pazar"),
		tcpostgres.WithUsername("pazar"),
		tcpostgres.WithPassword("pazar"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(pgc); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	url, err := pgc.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("connection string: %v", err)
	}

	testPool, err = NewPool(ctx, url)
	if err != nil {
		log.Fatalf("create pool: %v", err)
	}
	defer testPool.Close()

	if err := RunMigrations(ctx, testPool); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	return m.Run()
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestListingRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(testPool)

	discounted := price("540")
	in := &listing.Listing{
		ID: "it-listing-1", SellerID: "it-seller-1", SellerEmail: "one@satici.example",
		Title: "Walnut cutting board", Description: "Hand-finished",
		Price: price("600"), DiscountedPrice: &discounted,
		Stock: 5, Category: "kitchen",
		Images:    []string{"a.jpg", "b.jpg"},
		Variants:  map[string][]string{"finish": {"oiled", "raw"}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.GetByID(ctx, "it-listing-1")
	require.NoError(t, err)
	assert.Equal(t, in.Title, got.Title)
	assert.True(t, got.Price.Equal(in.Price))
	require.NotNil(t, got.DiscountedPrice)
	assert.True(t, got.DiscountedPrice.Equal(discounted))
	assert.Equal(t, in.Images, got.Images)
	assert.Equal(t, in.Variants, got.Variants)

	_, err = repo.GetByID(ctx, "it-listing-missing")
	assert.ErrorIs(t, err, listing.ErrNotFound)

	out, err := repo.List(ctx, listing.Filter{SellerID: "it-seller-1"})
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = repo.List(ctx, listing.Filter{Category: "no-such-category"})
	require.NoError(t, err)
	assert.Empty(t, out)

	got.Title = "Walnut board, large"
	got.Stock = 4
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, "it-listing-1")
	require.NoError(t, err)
	assert.Equal(t, "Walnut board, large", got.Title)
	assert.Equal(t, 4, got.Stock)

	require.NoError(t, repo.Delete(ctx, "it-listing-1"))
	_, err = repo.GetByID(ctx, "it-listing-1")
	assert.ErrorIs(t, err, listing.ErrNotFound)
}

func TestListingBoostSweep(t *testing.T) {
	ctx := context.Background()
	repo := NewListingRepository(testPool)

	mk := func(id string) {
		require.NoError(t, repo.Create(ctx, &listing.Listing{
			ID: id, SellerID: "it-seller-boost", SellerEmail: "b@satici.example",
			Title: "x", Price: price("10"), CreatedAt: time.Now().UTC(),
		}))
	}
	mk("it-boost-live")
	mk("it-boost-stale")

	future := time.Now().Add(time.Hour).UTC()
	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, repo.SetBoost(ctx, "it-boost-live", true, &future))
	require.NoError(t, repo.SetBoost(ctx, "it-boost-stale", true, &past))

	n, err := repo.ClearExpiredBoosts(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	live, err := repo.GetByID(ctx, "it-boost-live")
	require.NoError(t, err)
	assert.True(t, live.Boosted)

	stale, err := repo.GetByID(ctx, "it-boost-stale")
	require.NoError(t, err)
	assert.False(t, stale.Boosted)
}

func TestCartUpsertSemantics(t *testing.T) {
	ctx := context.Background()
	repo := NewCartRepository(testPool)

	base := cart.Line{BuyerID: "it-buyer-cart", ListingID: "it-l-1", Quantity: 2,
		Selections: map[string]string{"size": "41-45"}}
	require.NoError(t, repo.Upsert(ctx, base))

	// Same listing + same selections replaces the quantity.
	base.Quantity = 3
	require.NoError(t, repo.Upsert(ctx, base))

	// Different selections is a distinct line.
	other := base
	other.Selections = map[string]string{"size": "36-40"}
	require.NoError(t, repo.Upsert(ctx, other))

	lines, err := repo.ListByBuyer(ctx, "it-buyer-cart")
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.NoError(t, repo.Delete(ctx, "it-buyer-cart", "it-l-1"))
	lines, err = repo.ListByBuyer(ctx, "it-buyer-cart")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestShippingConfigDefaults(t *testing.T) {
	ctx := context.Background()
	repo := NewShippingRepository(testPool)

	// No row yet: a zero config, not an error.
	cfg, err := repo.Get(ctx, "it-seller-noship")
	require.NoError(t, err)
	assert.Equal(t, "it-seller-noship", cfg.SellerID)
	assert.True(t, cfg.FlatFee.IsZero())

	require.NoError(t, repo.Upsert(ctx, shipping.SellerConfig{
		SellerID: "it-seller-ship", FlatFee: price("50"),
		FreeShippingEnabled: true, FreeThreshold: price("1000"),
	}))

	configs, err := repo.GetBySellerIDs(ctx, []string{"it-seller-ship", "it-seller-noship"})
	require.NoError(t, err)
	require.Contains(t, configs, "it-seller-ship")
	assert.NotContains(t, configs, "it-seller-noship")
	assert.True(t, configs["it-seller-ship"].FreeShippingEnabled)
}

func TestCampaignAndRedemption(t *testing.T) {
	ctx := context.Background()
	campaigns := NewCampaignRepository(testPool)
	redemptions := NewRedemptionRepository(testPool)

	require.NoError(t, campaigns.Upsert(ctx, coupon.Campaign{
		Code: "it-kampanya", Percent: price("3"), MinSubtotal: price("1000"),
		Description: "integration", Active: true,
	}))

	c, err := campaigns.FindByCode(ctx, "it-kampanya")
	require.NoError(t, err)
	assert.True(t, c.Percent.Equal(price("3")))

	_, err = campaigns.FindByCode(ctx, "it-unknown")
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	ok, err := redemptions.Exists(ctx, "it-buyer-red", "it-kampanya")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, redemptions.Create(ctx, coupon.Redemption{
		BuyerID: "it-buyer-red", Code: "it-kampanya",
		OrderTotal: price("1147"), RedeemedAt: time.Now().UTC(),
	}))

	ok, err = redemptions.Exists(ctx, "it-buyer-red", "it-kampanya")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckoutTransaction(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)
	carts := NewCartRepository(testPool)
	redemptions := NewRedemptionRepository(testPool)

	require.NoError(t, carts.Upsert(ctx, cart.Line{
		BuyerID: "it-buyer-co", ListingID: "it-l-co", Quantity: 1,
	}))

	now := time.Now().UTC().Truncate(time.Millisecond)
	addr := order.Address{Name: "Ayşe Yılmaz", Line1: "Bağdat Cd. 1", City: "Istanbul"}
	placed := []*order.Order{
		{
			ID: "it-order-1", CheckoutID: "it-co-1", BuyerID: "it-buyer-co",
			BuyerEmail: "ayse@alici.example", SellerID: "it-seller-co-1",
			Status: order.StatusPending,
			Items: []order.Item{{
				ListingID: "it-l-co", Title: "Walnut cutting board",
				UnitPrice: price("600"), Quantity: 1,
			}},
			Address:  addr,
			Subtotal: price("600"), Discount: price("18"), ShippingFee: price("50"),
			Total: price("632"), CouponCode: "it-co-code",
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "it-order-2", CheckoutID: "it-co-1", BuyerID: "it-buyer-co",
			BuyerEmail: "ayse@alici.example", SellerID: "it-seller-co-2",
			Status: order.StatusPending,
			Items: []order.Item{{
				ListingID: "it-l-co2", Title: "Wool socks",
				UnitPrice: price("200"), Quantity: 1,
				Selections: map[string]string{"size": "41-45"},
			}},
			Address:  addr,
			Subtotal: price("200"), Discount: price("6"), ShippingFee: price("30"),
			Total: price("224"), CouponCode: "it-co-code",
			CreatedAt: now, UpdatedAt: now,
		},
	}

	err := orders.CreateCheckout(ctx, placed, &coupon.Redemption{
		BuyerID: "it-buyer-co", Code: "it-co-code",
		OrderTotal: price("856"), RedeemedAt: now,
	}, "it-buyer-co")
	require.NoError(t, err)

	got, err := orders.GetByID(ctx, "it-order-1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, "it-co-1", got.CheckoutID)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].UnitPrice.Equal(price("600")))
	assert.Equal(t, addr, got.Address)

	byBuyer, err := orders.ListByBuyer(ctx, "it-buyer-co")
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	bySeller, err := orders.ListBySeller(ctx, "it-seller-co-2")
	require.NoError(t, err)
	require.Len(t, bySeller, 1)
	assert.Equal(t, "it-order-2", bySeller[0].ID)

	// The checkout transaction wiped the cart and wrote the redemption.
	lines, err := carts.ListByBuyer(ctx, "it-buyer-co")
	require.NoError(t, err)
	assert.Empty(t, lines)

	redeemed, err := redemptions.Exists(ctx, "it-buyer-co", "it-co-code")
	require.NoError(t, err)
	assert.True(t, redeemed)
}

func TestOrderSaveAndSweep(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderRepository(testPool)

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	seed := &order.Order{
		ID: "it-order-sweep", CheckoutID: "it-co-sweep", BuyerID: "it-buyer-sw",
		BuyerEmail: "sw@alici.example", SellerID: "it-seller-sw",
		Status:   order.StatusPending,
		Items:    []order.Item{{ListingID: "x", Title: "x", UnitPrice: price("10"), Quantity: 1}},
		Address:  order.Address{Name: "n", Line1: "l", City: "c"},
		Subtotal: price("10"), Total: price("10"),
		CreatedAt: old, UpdatedAt: old,
	}
	require.NoError(t, orders.CreateCheckout(ctx, []*order.Order{seed}, nil, "it-buyer-sw"))

	seed.Status = order.StatusCancelled
	seed.UpdatedAt = old
	require.NoError(t, orders.Save(ctx, seed))

	n, err := orders.DeleteTerminalBefore(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = orders.GetByID(ctx, "it-order-sweep")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestSellerApplicationReapplyAfterRejection(t *testing.T) {
	ctx := context.Background()
	repo := NewSellerApplicationRepository(testPool)

	first := &seller.Application{
		ID: "it-app-1", AccountID: "it-account-1", Email: "a@alici.example",
		ShopName: "Atölye", Status: seller.StatusPending, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, first))

	open, err := repo.FindOpenByAccount(ctx, "it-account-1")
	require.NoError(t, err)
	assert.Equal(t, "it-app-1", open.ID)

	// A second open application for the same account violates the partial
	// unique index.
	err = repo.Create(ctx, &seller.Application{
		ID: "it-app-dup", AccountID: "it-account-1", Email: "a@alici.example",
		ShopName: "Dup", Status: seller.StatusPending, CreatedAt: time.Now().UTC(),
	})
	require.Error(t, err)

	now := time.Now().UTC()
	first.Status = seller.StatusRejected
	first.DecidedAt = &now
	require.NoError(t, repo.Update(ctx, first))

	_, err = repo.FindOpenByAccount(ctx, "it-account-1")
	assert.ErrorIs(t, err, seller.ErrNotFound)

	// Rejected rows do not block a new attempt.
	require.NoError(t, repo.Create(ctx, &seller.Application{
		ID: "it-app-2", AccountID: "it-account-1", Email: "a@alici.example",
		ShopName: "Atölye 2", Status: seller.StatusPending, CreatedAt: time.Now().UTC(),
	}))
}

func TestChatPersistence(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository(testPool)

	now := time.Now().UTC().Truncate(time.Millisecond)
	conv := &chat.Conversation{
		ID: "it-conv-1", BuyerID: "it-buyer-chat", BuyerEmail: "c@alici.example",
		Status: chat.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, repo.CreateConversation(ctx, conv))

	open, err := repo.FindOpenByBuyer(ctx, "it-buyer-chat")
	require.NoError(t, err)
	assert.Equal(t, "it-conv-1", open.ID)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, pending)

	conv.Status = chat.StatusActive
	conv.AgentID = "agent-7"
	require.NoError(t, repo.UpdateConversation(ctx, conv))

	got, err := repo.GetConversation(ctx, "it-conv-1")
	require.NoError(t, err)
	assert.Equal(t, chat.StatusActive, got.Status)
	assert.Equal(t, "agent-7", got.AgentID)

	for i, body := range []string{"Siparişim nerede?", "Kargoya verildi."} {
		sender := chat.SenderBuyer
		if i == 1 {
			sender = chat.SenderSupport
		}
		require.NoError(t, repo.CreateMessage(ctx, &chat.Message{
			ID: "it-msg-" + body[:2], ConversationID: "it-conv-1",
			Sender: sender, Body: body, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := repo.ListMessages(ctx, "it-conv-1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.SenderBuyer, msgs[0].Sender)
	assert.Equal(t, chat.SenderSupport, msgs[1].Sender)
}

func TestAddressScoping(t *testing.T) {
	ctx := context.Background()
	repo := NewAddressRepository(testPool)

	require.NoError(t, repo.Upsert(ctx, "it-addr-1", "it-account-addr", order.Address{
		Name: "Ayşe Yılmaz", Line1: "Bağdat Cd. 1", City: "Istanbul",
	}))

	got, err := repo.GetByID(ctx, "it-account-addr", "it-addr-1")
	require.NoError(t, err)
	assert.Equal(t, "Istanbul", got.City)

	// Another account cannot resolve the same address id.
	_, err = repo.GetByID(ctx, "it-other-account", "it-addr-1")
	require.Error(t, err)
}

func TestAPIKeyLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewAPIKeyRepository(testPool)

	hash := auth.HashKey([]byte("it-pepper"), "it-raw-key")
	require.NoError(t, repo.Upsert(ctx, auth.APIKeyInfo{
		ID: "it-key-1", KeyHash: hash, Name: "integration", Scopes: []string{"admin"},
	}))

	info, err := repo.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "it-key-1", info.ID)

	_, err = repo.FindByHash(ctx, auth.HashKey([]byte("it-pepper"), "wrong"))
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}
