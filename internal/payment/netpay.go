package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// NetpayConfig configures the JSON gateway client.
type NetpayConfig struct {
	BaseURL string
	APIKey  string
}

// Netpay is the tokenized-card gateway. Its API is JSON over HTTPS with a
// bearer key.
type Netpay struct {
	cfg    NetpayConfig
	client *http.Client
}

// NewNetpay creates a Netpay client.
func NewNetpay(cfg NetpayConfig) *Netpay {
	return &Netpay{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type netpayChargeReq struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	BuyerID   string `json:"buyer_id"`
	Email     string `json:"email"`
	CardToken string `json:"card_token"`
}

type netpayResp struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Charge posts the charge and maps a non-approved status to DeclinedError
// carrying the upstream message text.
func (n *Netpay) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body := netpayChargeReq{
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		BuyerID:   req.BuyerID,
		Email:     req.BuyerEmail,
		CardToken: req.CardToken,
	}

	var resp netpayResp
	if err := n.post(ctx, "/v1/charges", body, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "approved" {
		return nil, &DeclinedError{Gateway: "netpay", Message: resp.Message}
	}
	return &ChargeResult{Reference: resp.Reference}, nil
}

// Refund reverses a charge by its gateway reference.
func (n *Netpay) Refund(ctx context.Context, reference string, amount decimal.Decimal) error {
	body := map[string]string{
		"reference": reference,
		"amount":    amount.StringFixed(2),
	}
	var resp netpayResp
	if err := n.post(ctx, "/v1/refunds", body, &resp); err != nil {
		return err
	}
	if resp.Status != "approved" {
		return &DeclinedError{Gateway: "netpay", Message: resp.Message}
	}
	return nil
}

func (n *Netpay) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.cfg.APIKey)

	httpResp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "call netpay")
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode >= 500 {
		return errors.Errorf("netpay returned status %d", httpResp.StatusCode)
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode netpay response")
	}
	return nil
}
