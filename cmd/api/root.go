package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/config"
	"github.com/cimillas/eventtix/internal/notify"
	"github.com/cimillas/eventtix/internal/storage/offline"
	"github.com/cimillas/eventtix/internal/storage/postgres"
)

const startupTimeout = 5 * time.Second

var errStoreNotConfigured = errors.New("DATABASE_URL is not set")

// env is what every command resolves before running.
type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var e env

	root := &cobra.Command{
		Use:           "eventtix",
		Short:         "Event ticket sales and fulfillment API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e.logger = slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), nil))
			cfg, err := config.Load("", e.logger)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			e.cfg = cfg
			return nil
		},
	}

	serve := newServeCmd(&e)
	root.RunE = serve.RunE
	root.AddCommand(serve)
	root.AddCommand(newMigrateCmd(&e))
	root.AddCommand(newResendFailedCmd(&e))
	return root
}

type orderStore interface {
	app.OrderStore
	app.OrderFinder
	app.FailedOrderStore
}

type ticketStore interface {
	app.TicketStore
	app.TicketRedeemer
}

type stores struct {
	orders  orderStore
	tickets ticketStore
	events  app.EventRepository
	pool    *pgxpool.Pool
}

func (s stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// openStores connects to Postgres when it is configured and falls back to
// the offline store otherwise.
func openStores(ctx context.Context, e *env) (stores, error) {
	if !e.cfg.StoreConfigured() {
		e.logger.Warn("DATABASE_URL not set, using offline store")
		s := offline.New()
		return stores{orders: s, tickets: s, events: s}, nil
	}

	pool, err := connect(ctx, e.cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	return stores{
		orders:  postgres.NewOrderRepository(pool),
		tickets: postgres.NewTicketRepository(pool),
		events:  postgres.NewEventRepository(pool),
		pool:    pool,
	}, nil
}

func connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}

func newSender(e *env) notify.Sender {
	if !e.cfg.MailConfigured() {
		return notify.Unavailable{}
	}
	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     e.cfg.SMTPHost,
		Port:     e.cfg.SMTPPort,
		Username: e.cfg.SMTPUser,
		Password: e.cfg.SMTPPass,
		From:     e.cfg.SMTPFromEmail,
		ReplyTo:  e.cfg.SupportEmail,
	}, e.logger)
	if err != nil {
		e.logger.Error("smtp sender unavailable", slog.Any("error", err))
		return notify.Unavailable{}
	}
	return sender
}
