// Package mailer defines the outbound-mail port consumed by the
// notification service. Actual delivery belongs to an external transport;
// the log-backed implementation here records what would have been sent and
// is what runs outside production.
package mailer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Mailer is the delivery port. Implementations must be safe for
// concurrent use by the queue consumers.
type Mailer interface {
	SendVerification(email, code string) error
	SendWelcome(email, username string) error
}

// LogMailer appends one line per message to logs/notifications.log.
type LogMailer struct {
	Dir string
}

func NewLogMailer() *LogMailer { return &LogMailer{Dir: "logs"} }

func (m *LogMailer) SendVerification(email, code string) error {
	return m.append(fmt.Sprintf("verification email to=%s code=%s", email, code))
}

func (m *LogMailer) SendWelcome(email, username string) error {
	return m.append(fmt.Sprintf("welcome email to=%s username=%s", email, username))
}

func (m *LogMailer) append(line string) error {
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", m.Dir, err)
	}
	fpath := filepath.Join(m.Dir, "notifications.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	log.Printf("mailer: %s", line)
	return nil
}
