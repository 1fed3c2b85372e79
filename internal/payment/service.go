package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/roofline/roofline-backend/internal/queue"
)

// CreateIntentInput is a payment-intent request as received from the
// client.  ClientAmount is whatever amount field the client sent; it
// is retained only so the service can log that it was ignored.
type CreateIntentInput struct {
	LeaseID      uint64
	ClientAmount string
	Bearer       string
}

// Service creates payment intents.  The amount always comes from the
// core service; the trust boundary lives here.
type Service struct {
	amounts AmountSource
	proc    Processor
	publish func(ctx context.Context, eventType string, payload any) error
}

// NewService wires the payment service.
func NewService(amounts AmountSource, proc Processor) *Service {
	return &Service{amounts: amounts, proc: proc, publish: queue.Publish}
}

// NewServiceWithPublisher is NewService with an injectable event
// publisher for tests.
func NewServiceWithPublisher(amounts AmountSource, proc Processor, publish func(ctx context.Context, eventType string, payload any) error) *Service {
	return &Service{amounts: amounts, proc: proc, publish: publish}
}

// CreateIntent fetches the authoritative payable amount for the lease
// and creates a processor intent over it.  Any client-supplied amount
// is ignored entirely.  If the core service cannot be reached or
// refuses the request, the intent is aborted with
// ErrUpstreamUnavailable — under no circumstance does the service
// fall back to the client's number.
func (s *Service) CreateIntent(ctx context.Context, in CreateIntentInput) (Intent, error) {
	quote, err := s.amounts.FetchPayable(ctx, in.LeaseID, in.Bearer)
	if err != nil {
		return Intent{}, err
	}

	intent, err := s.proc.CreateIntent(ctx, quote.AmountCents, quote.Currency, map[string]string{
		"lease_id":  fmt.Sprintf("%d", quote.LeaseID),
		"tenant_id": fmt.Sprintf("%d", quote.TenantID),
	})
	if err != nil {
		return Intent{}, err
	}

	// Best effort: receipts come from the notification stub.
	_ = s.publish(ctx, queue.TypePaymentCreated, queue.PaymentCreatedEvent{
		IntentID:    intent.ID,
		LeaseID:     quote.LeaseID,
		UserID:      quote.TenantID,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	return intent, nil
}
