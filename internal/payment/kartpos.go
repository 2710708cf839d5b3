package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// KartposConfig configures the legacy form-encoded gateway client.
type KartposConfig struct {
	BaseURL    string
	MerchantID string
	Secret     string
}

// Kartpos is the legacy gateway: form-POST with an HMAC signature over the
// concatenated fields, JSON response.
type Kartpos struct {
	cfg    KartposConfig
	client *http.Client
}

// NewKartpos creates a Kartpos client.
func NewKartpos(cfg KartposConfig) *Kartpos {
	return &Kartpos{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type kartposResp struct {
	Result  string `json:"result"`
	RefNo   string `json:"ref_no"`
	ErrMsg  string `json:"err_msg"`
	ErrCode string `json:"err_code"`
}

// Charge submits the payment. Any non-"ok" result becomes a DeclinedError
// with the gateway's own message text.
func (k *Kartpos) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	form := url.Values{
		"merchant_id": {k.cfg.MerchantID},
		"amount":      {req.Amount.StringFixed(2)},
		"currency":    {req.Currency},
		"buyer":       {req.BuyerID},
		"email":       {req.BuyerEmail},
		"card_ref":    {req.CardToken},
	}
	form.Set("hash", k.sign(form.Get("merchant_id"), form.Get("amount"), form.Get("buyer")))

	resp, err := k.post(ctx, "/api/pay", form)
	if err != nil {
		return nil, err
	}
	if resp.Result != "ok" {
		return nil, &DeclinedError{Gateway: "kartpos", Message: resp.ErrMsg}
	}
	return &ChargeResult{Reference: resp.RefNo}, nil
}

// Refund reverses a charge by reference.
func (k *Kartpos) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	form := url.Values{
		"merchant_id": {k.cfg.MerchantID},
		"ref_no":      {reference},
		"amount":      {amount.StringFixed(2)},
	}
	form.Set("hash", k.sign(form.Get("merchant_id"), form.Get("amount"), reference))

	resp, err := k.post(ctx, "/api/refund", form)
	if err != nil {
		return err
	}
	if resp.Result != "ok" {
		return &DeclinedError{Gateway: "kartpos", Message: resp.ErrMsg}
	}
	return nil
}

func (k *Kartpos) sign(fields ...string) string {
	mac := hmac.New(sha256.New, []byte(k.cfg.Secret))
	mac.Write([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func (k *Kartpos) post(ctx context.Context, path string, form url.Values) (*kartposResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := k.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call kartpos")
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode >= 500 {
		return nil, errors.Errorf("kartpos returned status %d", httpResp.StatusCode)
	}

	var resp kartposResp
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "decode kartpos response")
	}
	return &resp, nil
}
