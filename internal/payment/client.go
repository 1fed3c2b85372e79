package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PayableQuote is the authoritative amount certified by the core
// service for a lease.
type PayableQuote struct {
	LeaseID     uint64
	TenantID    uint64
	AmountCents int64
	Currency    string
}

// AmountSource fetches the authoritative payable amount for a lease.
// The bearer credential of the end user is forwarded as-is so the
// core service applies its own authorization.
type AmountSource interface {
	FetchPayable(ctx context.Context, leaseID uint64, bearer string) (PayableQuote, error)
}

// CoreClient talks to the core service over HTTP.
type CoreClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoreClient builds a client for the core service.
func NewCoreClient(baseURL string) *CoreClient {
	return &CoreClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// payableEnvelope mirrors the core service's response envelope for
// the payable endpoint.
type payableEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		LeaseID      uint64 `json:"leaseId"`
		TenantID     uint64 `json:"tenantId"`
		TotalPayable string `json:"totalPayable"`
		Currency     string `json:"currency"`
	} `json:"data"`
	Message *string `json:"message"`
}

// FetchPayable calls GET /v1/leases/{id}/payable on the core service.
// Any transport failure, non-2xx status or unsuccessful envelope maps
// to ErrUpstreamUnavailable.
func (c *CoreClient) FetchPayable(ctx context.Context, leaseID uint64, bearer string) (PayableQuote, error) {
	url := fmt.Sprintf("%s/v1/leases/%d/payable", c.baseURL, leaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PayableQuote{}, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PayableQuote{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PayableQuote{}, fmt.Errorf("%w: read response: %v", ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return PayableQuote{}, fmt.Errorf("%w: core returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var env payableEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return PayableQuote{}, fmt.Errorf("%w: parse response: %v", ErrUpstreamUnavailable, err)
	}
	if !env.Success {
		return PayableQuote{}, fmt.Errorf("%w: core refused the request", ErrUpstreamUnavailable)
	}
	cents, err := ParseDecimalToCents(env.Data.TotalPayable)
	if err != nil {
		return PayableQuote{}, fmt.Errorf("%w: bad amount: %v", ErrUpstreamUnavailable, err)
	}
	return PayableQuote{
		LeaseID:     env.Data.LeaseID,
		TenantID:    env.Data.TenantID,
		AmountCents: cents,
		Currency:    env.Data.Currency,
	}, nil
}
