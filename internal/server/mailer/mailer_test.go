package mailer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterMailer_SendCode(t *testing.T) {
	var buf bytes.Buffer
	m := NewWriterMailer(&buf)
	exp := time.Date(2026, 4, 1, 9, 5, 0, 0, time.UTC)

	require.NoError(t, m.SendCode(context.Background(), "ada@corp.example", "123456", exp))

	out := buf.String()
	assert.Contains(t, out, "To: ada@corp.example")
	assert.Contains(t, out, "Your code is 123456")
	assert.Contains(t, out, "2026-04-01T09:05:00Z")
}

func TestWriterMailer_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	m := NewWriterMailer(&buf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.SendCode(ctx, "a@b", "1", time.Now()), context.Canceled)
	assert.Zero(t, buf.Len())
}
