// Package queue defines the notification events exchanged over the
// message broker and the durable queues that carry them.
package queue

// Queue names double as routing keys on the default exchange.
const (
	QueueEmailVerification = "email.verification"
	QueueEmailWelcome      = "email.welcome"
)

// VerificationEvent asks the notification service to deliver a
// verification code. Published when a code is (re-)issued.
type VerificationEvent struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// WelcomeEvent asks the notification service to greet a newly registered
// account.
type WelcomeEvent struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}
