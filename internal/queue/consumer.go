package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartNotificationConsumer connects to RabbitMQ, declares the
// notifications queue (durable), and starts consuming.  This is the
// notification stub: instead of sending real email/SMS it appends a
// single human-readable line per event to logs/notifications.log.
// The function runs a reconnect loop and keeps running across broker
// restarts; processing errors are logged and the offending message
// rejected without requeue so the loop never spins.
func StartNotificationConsumer() error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Printf("notification-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn); err != nil {
			log.Printf("notification-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notification-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(notificationQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(notificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body); err != nil {
			log.Printf("notification-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte) error {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	line, err := formatNotification(env.Type, env.Payload)
	if err != nil {
		return err
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatNotification(eventType string, payload json.RawMessage) (string, error) {
	switch eventType {
	case TypeUserRegistered:
		var ev UserRegisteredEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", eventType, err)
		}
		return fmt.Sprintf("[%s] Welcome aboard | user_id=%d | email=%s | phone=%s | role=%s\n",
			ev.RegisteredAt, ev.UserID, ev.Email, ev.Phone, ev.Role), nil
	case TypePaymentCreated:
		var ev PaymentCreatedEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", eventType, err)
		}
		return fmt.Sprintf("[%s] Payment receipt | intent_id=%s | lease_id=%d | user_id=%d | amount=%d %s\n",
			ev.CreatedAt, ev.IntentID, ev.LeaseID, ev.UserID, ev.AmountCents, ev.Currency), nil
	default:
		return "", fmt.Errorf("unknown event type %q", eventType)
	}
}
