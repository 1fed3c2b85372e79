// Package queue defines notification events exchanged over the
// message broker, plus the publisher and the consumer that feeds the
// notification stub.
package queue

// Notification queue name.  Registration and payment events share a
// single durable queue; the consumer dispatches on Type.
const notificationQueueName = "notifications"

// Event types carried on the notifications queue.
const (
	TypeUserRegistered = "user.registered"
	TypePaymentCreated = "payment.created"
)

// UserRegisteredEvent is published when a new account is created, so
// the notification service can send verification email and SMS.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}

// PaymentCreatedEvent is published by the payment service when an
// intent is created against the processor.
type PaymentCreatedEvent struct {
	IntentID    string `json:"intent_id"`
	LeaseID     uint64 `json:"lease_id"`
	UserID      uint64 `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CreatedAt   string `json:"created_at"`
}

// Envelope wraps a typed payload on the wire.
type Envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
