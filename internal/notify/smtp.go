package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/cimillas/eventtix/internal/ticketcode"
)

// SMTPConfig holds mail transport credentials and envelope defaults.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	ReplyTo  string
	Timeout  time.Duration
}

// SMTPSender delivers mail through an SMTP relay (Brevo-compatible).
type SMTPSender struct {
	cfg    SMTPConfig
	send   func(ctx context.Context, msg *mail.Msg) error
	logger *slog.Logger
}

func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("smtp credentials are not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{
		cfg: cfg,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
		logger: logger,
	}, nil
}

func (s *SMTPSender) SendConfirmation(ctx context.Context, c Confirmation) Result {
	html, err := RenderConfirmation(c)
	if err != nil {
		return failed(err)
	}
	msg, err := s.newMessage(c.To, ConfirmationSubject(c), html)
	if err != nil {
		return failed(err)
	}
	for i, t := range c.Tickets {
		png, err := ticketcode.DecodeDataURL(t.QRArtifact)
		if err != nil {
			return failed(fmt.Errorf("ticket %s: %w", t.Code, err))
		}
		name := fmt.Sprintf("ticket-%d.png", i+1)
		if err := msg.EmbedReader(name, bytes.NewReader(png), mail.WithFileContentID(ContentID(i))); err != nil {
			return failed(fmt.Errorf("embed %s: %w", name, err))
		}
	}
	return s.deliver(ctx, msg, "confirmation")
}

func (s *SMTPSender) SendPaymentReminder(ctx context.Context, r Reminder) Result {
	html, err := RenderReminder(r)
	if err != nil {
		return failed(err)
	}
	msg, err := s.newMessage(r.To, ReminderSubject(r), html)
	if err != nil {
		return failed(err)
	}
	return s.deliver(ctx, msg, "payment_reminder")
}

func (s *SMTPSender) newMessage(to, subject, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	if s.cfg.ReplyTo != "" {
		if err := msg.ReplyTo(s.cfg.ReplyTo); err != nil {
			return nil, fmt.Errorf("reply-to address: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextHTML, html)
	return msg, nil
}

func (s *SMTPSender) deliver(ctx context.Context, msg *mail.Msg, kind string) Result {
	if err := s.send(ctx, msg); err != nil {
		s.logger.Error("send email failed", slog.String("kind", kind), slog.Any("error", err))
		return failed(fmt.Errorf("send %s: %w", kind, err))
	}
	id := msg.GetMessageID()
	s.logger.Info("email sent", slog.String("kind", kind), slog.String("message_id", id))
	return Result{Success: true, MessageID: id}
}
