package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YildirimDemir/social-platform/internal/mailer"
)

// StartNotificationConsumer connects to RabbitMQ, declares the
// email.verification and email.welcome queues (durable) and consumes both,
// handing each payload to the mailer port. It runs a reconnect loop with
// backoff and keeps going across broker restarts; a message that cannot be
// processed is rejected without requeue so a poison payload cannot wedge
// the consumer.
func StartNotificationConsumer(url string, m mailer.Mailer) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notification-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, m); err != nil {
			log.Printf("notification-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, m mailer.Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notification-consumer: set QoS failed: %v", err)
	}

	for _, name := range []string{QueueEmailVerification, QueueEmailWelcome} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
	}

	verifications, err := ch.Consume(QueueEmailVerification, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", QueueEmailVerification, err)
	}
	welcomes, err := ch.Consume(QueueEmailWelcome, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume %s: %w", QueueEmailWelcome, err)
	}

	for {
		select {
		case d, ok := <-verifications:
			if !ok {
				return errors.New("verification deliveries channel closed")
			}
			settle(d, handleVerification(d.Body, m))
		case d, ok := <-welcomes:
			if !ok {
				return errors.New("welcome deliveries channel closed")
			}
			settle(d, handleWelcome(d.Body, m))
		}
	}
}

func settle(d amqp.Delivery, err error) {
	if err != nil {
		log.Printf("notification-consumer: handle message failed: %v", err)
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	_ = d.Ack(false)
}

func handleVerification(body []byte, m mailer.Mailer) error {
	var ev VerificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.Code == "" {
		return errors.New("invalid verification payload")
	}
	return m.SendVerification(ev.Email, ev.Code)
}

func handleWelcome(body []byte, m mailer.Mailer) error {
	var ev WelcomeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Email == "" || ev.Username == "" {
		return errors.New("invalid welcome payload")
	}
	return m.SendWelcome(ev.Email, ev.Username)
}
