package email

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// HTTPConfig configures the hosted delivery endpoint.
type HTTPConfig struct {
	Endpoint string
	APIKey   string
}

// HTTPSender posts messages to the delivery service as JSON.
type HTTPSender struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPSender creates an HTTPSender.
func NewHTTPSender(cfg HTTPConfig) *HTTPSender {
	return &HTTPSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts the message and treats any non-2xx response as failure.
func (s *HTTPSender) Send(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "call delivery endpoint")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("delivery endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
