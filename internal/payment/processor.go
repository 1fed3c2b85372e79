package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrProcessorRejected indicates the third-party processor refused
// the intent.
var ErrProcessorRejected = errors.New("payment processor rejected the intent")

// Intent is a created payment intent as reported by the processor.
type Intent struct {
	ID           string `json:"id"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// Processor abstracts the third-party payment provider.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
}

// RESTProcessor posts intents to the provider's REST API.
type RESTProcessor struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewRESTProcessor builds the default processor client.
func NewRESTProcessor(baseURL, apiKey string) *RESTProcessor {
	return &RESTProcessor{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateIntent creates an intent with the provider.  Amounts are
// always integer cents on this wire; the idempotency key guards
// against double submission on retries.
func (p *RESTProcessor) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	payload := map[string]interface{}{
		"amount":          amountCents,
		"currency":        currency,
		"metadata":        metadata,
		"idempotency_key": uuid.NewString(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, err
	}

	url := p.baseURL + "/v1/intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Intent{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Intent{}, fmt.Errorf("processor request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Intent{}, fmt.Errorf("%w: status %d", ErrProcessorRejected, resp.StatusCode)
	}
	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return Intent{}, fmt.Errorf("processor response: %w", err)
	}
	return intent, nil
}
