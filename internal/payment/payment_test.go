package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterSelectsByKind(t *testing.T) {
	card := NewNetpay(NetpayConfig{})
	legacy := NewKartpos(KartposConfig{})
	r := NewRouter(map[Kind]Gateway{
		KindCard:       card,
		KindCardLegacy: legacy,
	})

	got, err := r.For(KindCard)
	require.NoError(t, err)
	assert.Same(t, Gateway(card), got)

	got, err = r.For(KindCardLegacy)
	require.NoError(t, err)
	assert.Same(t, Gateway(legacy), got)

	_, err = r.For("wire")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
}

func chargeReq() ChargeRequest {
	return ChargeRequest{
		Amount:     decimal.RequireFromString("1164.00"),
		Currency:   "TRY",
		BuyerID:    "b-1",
		BuyerEmail: "b@example.com",
		CardToken:  "tok_abc",
	}
}

func TestNetpayCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charges", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1164.00", body["amount"])
		assert.Equal(t, "TRY", body["currency"])
		assert.Equal(t, "tok_abc", body["card_token"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    "approved",
			"reference": "np-001",
		})
	}))
	defer srv.Close()

	n := NewNetpay(NetpayConfig{BaseURL: srv.URL, APIKey: "secret-key"})

	res, err := n.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.Equal(t, "np-001", res.Reference)
}

func TestNetpayChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "declined",
			"message": "insufficient funds",
		})
	}))
	defer srv.Close()

	n := NewNetpay(NetpayConfig{BaseURL: srv.URL})

	_, err := n.Charge(context.Background(), chargeReq())

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "netpay", declined.Gateway)
	assert.Equal(t, "insufficient funds", declined.Message)
}

func TestNetpayServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNetpay(NetpayConfig{BaseURL: srv.URL})

	_, err := n.Charge(context.Background(), chargeReq())
	require.Error(t, err)

	// A 5xx is an upstream failure, not a decline.
	var declined *DeclinedError
	assert.False(t, errors.As(err, &declined))
}

func TestNetpayRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refunds", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "np-001", body["reference"])
		assert.Equal(t, "1164.00", body["amount"])
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "approved"})
	}))
	defer srv.Close()

	n := NewNetpay(NetpayConfig{BaseURL: srv.URL})
	err := n.Refund(context.Background(), "np-001", decimal.RequireFromString("1164.00"))
	assert.NoError(t, err)
}

func TestKartposChargeSignsForm(t *testing.T) {
	const secret = "legacy-secret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pay", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "m-1", r.PostForm.Get("merchant_id"))
		assert.Equal(t, "1164.00", r.PostForm.Get("amount"))

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write([]byte(strings.Join([]string{"m-1", "1164.00", "b-1"}, "|")))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), r.PostForm.Get("hash"))

		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok", "ref_no": "kp-001"})
	}))
	defer srv.Close()

	k := NewKartpos(KartposConfig{BaseURL: srv.URL, MerchantID: "m-1", Secret: secret})

	res, err := k.Charge(context.Background(), chargeReq())
	require.NoError(t, err)
	assert.Equal(t, "kp-001", res.Reference)
}

func TestKartposChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"result":   "fail",
			"err_code": "51",
			"err_msg":  "limit yetersiz",
		})
	}))
	defer srv.Close()

	k := NewKartpos(KartposConfig{BaseURL: srv.URL, MerchantID: "m-1", Secret: "s"})

	_, err := k.Charge(context.Background(), chargeReq())

	var declined *DeclinedError
	require.ErrorAs(t, err, &declined)
	assert.Equal(t, "kartpos", declined.Gateway)
	assert.Equal(t, "limit yetersiz", declined.Message)
}

func TestKartposRefund(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/refund", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "kp-001", r.PostForm.Get("ref_no"))
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))
	defer srv.Close()

	k := NewKartpos(KartposConfig{BaseURL: srv.URL, MerchantID: "m-1", Secret: "s"})
	err := k.Refund(context.Background(), "kp-001", decimal.RequireFromString("1164.00"))
	assert.NoError(t, err)
}

func TestDeclinedErrorMessage(t *testing.T) {
	err := &DeclinedError{Gateway: "netpay", Message: "card expired"}
	assert.Equal(t, "netpay: card expired", err.Error())
}
