// Package mailer delivers one-time codes to employees.
package mailer

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// Mailer sends a one-time code to an address on file.
type Mailer interface {
	SendCode(ctx context.Context, to, code string, expiresAt time.Time) error
}

// WriterMailer renders each message as plain text to w. It stands in for
// a mail relay in development setups.
type WriterMailer struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterMailer(w io.Writer) *WriterMailer {
	return &WriterMailer{w: w}
}

func (m *WriterMailer) SendCode(ctx context.Context, to, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := fmt.Fprintf(m.w, "To: %s\nSubject: Your giftdesk sign-in code\n\nYour code is %s. It expires at %s.\n\n",
		to, code, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}
