package notify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/ticketcode"
)

func newTestSender(send func(context.Context, *mail.Msg) error) *SMTPSender {
	return &SMTPSender{
		cfg: SMTPConfig{
			From:    "noreply@eventtickets.com",
			ReplyTo: "support@eventtickets.com",
		},
		send:   send,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func withArtifacts(t *testing.T, c Confirmation) Confirmation {
	t.Helper()
	issued, err := ticketcode.NewGenerator(clock.NewSystem()).Generate(len(c.Tickets), c.EventTitle)
	require.NoError(t, err)
	for i := range c.Tickets {
		c.Tickets[i].QRArtifact = issued[i].DataURL()
	}
	return c
}

func TestSMTPSender_SendConfirmation(t *testing.T) {
	t.Parallel()

	var sent *mail.Msg
	sender := newTestSender(func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	})

	res := sender.SendConfirmation(context.Background(), withArtifacts(t, sampleConfirmation()))
	require.True(t, res.Success, "unexpected failure: %v", res.Err)
	assert.NotEmpty(t, res.MessageID)
	require.NotNil(t, sent)

	rcpts, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, rcpts)

	var raw bytes.Buffer
	_, err = sent.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "Your Tickets for 5K Run - Order order-1")
	assert.Contains(t, raw.String(), "support@eventtickets.com")
	assert.Contains(t, raw.String(), "qr_code_1")
}

func TestSMTPSender_TransportFailureIsReported(t *testing.T) {
	t.Parallel()

	sender := newTestSender(func(context.Context, *mail.Msg) error {
		return errors.New("connection refused")
	})

	res := sender.SendConfirmation(context.Background(), withArtifacts(t, sampleConfirmation()))
	assert.False(t, res.Success)
	assert.ErrorContains(t, res.Err, "connection refused")
}

func TestSMTPSender_BadArtifactIsReported(t *testing.T) {
	t.Parallel()

	called := false
	sender := newTestSender(func(context.Context, *mail.Msg) error {
		called = true
		return nil
	})

	c := sampleConfirmation()
	c.Tickets[0].QRArtifact = "data:image/png;base64,%%%"
	res := sender.SendConfirmation(context.Background(), c)
	assert.False(t, res.Success)
	assert.False(t, called)
}

func TestSMTPSender_SendPaymentReminder(t *testing.T) {
	t.Parallel()

	var sent *mail.Msg
	sender := newTestSender(func(_ context.Context, msg *mail.Msg) error {
		sent = msg
		return nil
	})

	res := sender.SendPaymentReminder(context.Background(), Reminder{To: "x@y.com", EventTitle: "Gala", OrderID: "o-1"})
	require.True(t, res.Success)
	rcpts, err := sent.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"x@y.com"}, rcpts)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	t.Parallel()

	sender := newTestSender(func(context.Context, *mail.Msg) error { return nil })
	res := sender.SendPaymentReminder(context.Background(), Reminder{To: "not an address", EventTitle: "Gala"})
	assert.False(t, res.Success)
}

func TestNewSMTPSender_RequiresCredentials(t *testing.T) {
	t.Parallel()

	_, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com"}, nil)
	require.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	res := Unavailable{}.SendConfirmation(context.Background(), Confirmation{})
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, domain.ErrUnavailable)
}
