package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/payments"
	"github.com/cimillas/eventtix/internal/ticketcode"
	transporthttp "github.com/cimillas/eventtix/internal/transport/http"
	"github.com/cimillas/eventtix/internal/webhook"
	"github.com/cimillas/eventtix/migrations"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
}

func serve(ctx context.Context, e *env) error {
	e.cfg.Warn(e.logger)

	st, err := openStores(ctx, e)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.pool != nil {
		applied, err := migrations.Apply(ctx, st.pool)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		for _, name := range applied {
			e.logger.Info("migration applied", slog.String("name", name))
		}
	}

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		CORSOrigins:    e.cfg.CORSOrigins,
		RequestTimeout: e.cfg.RequestTimeout,
		Logger:         e.logger,
	}, buildServices(e, st))

	server := &http.Server{
		Addr:              ":" + e.cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e.logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		e.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	e.logger.Info("server stopped")
	return nil
}

func buildServices(e *env, st stores) transporthttp.Services {
	clk := clock.NewSystem()
	sender := newSender(e)

	var sessions app.SessionCreator = payments.Unavailable{}
	if e.cfg.PaymentsConfigured() {
		checkout, err := payments.NewStripeCheckout(e.cfg.StripeSecretKey, e.cfg.PublicBaseURL)
		if err != nil {
			e.logger.Error("stripe checkout unavailable", slog.Any("error", err))
		} else {
			sessions = checkout
		}
	}

	fulfillment := app.NewFulfillmentService(
		st.orders,
		st.tickets,
		st.events,
		ticketcode.NewGenerator(clk),
		sender,
		clk,
		app.WithFulfillmentLogger(e.logger),
	)

	svc := transporthttp.Services{
		Verifier:     webhook.NewVerifier(e.cfg.StripeWebhookSecret),
		Fulfillment:  fulfillment,
		Catalog:      app.NewCatalogService(st.events, clk),
		Checkout:     app.NewCheckoutService(st.events, st.orders, sessions, clk),
		Registration: app.NewRegistrationService(st.events, fulfillment),
		Lookup:       app.NewTicketLookupService(st.orders, st.tickets, st.events, e.logger),
		Redemption:   app.NewRedemptionService(st.tickets, clk),
		Reminder:     app.NewReminderService(st.orders, st.events, sender, e.logger),
	}
	if st.pool != nil {
		svc.Health = st.pool
	}
	return svc
}
