package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits notification events to RabbitMQ. Publishing is
// fire-and-forget from the caller's perspective: every error is logged and
// returned so the identity service can log-and-continue without failing
// the operation that triggered the event. Delivery is at-most-once; there
// is no outbox and no retry here.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url}
}

// PublishVerification emits an email.verification event.
func (p *Publisher) PublishVerification(ctx context.Context, email, code string) error {
	return p.publish(ctx, QueueEmailVerification, VerificationEvent{Email: email, Code: code})
}

// PublishWelcome emits an email.welcome event.
func (p *Publisher) PublishWelcome(ctx context.Context, email, username string) error {
	return p.publish(ctx, QueueEmailWelcome, WelcomeEvent{Email: email, Username: username})
}

func (p *Publisher) publish(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
