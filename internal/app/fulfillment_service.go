package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
	"github.com/cimillas/eventtix/internal/ticketcode"
)

const (
	maxTicketsPerOrder   = 50
	ticketInsertAttempts = 3
	tracerName           = "github.com/cimillas/eventtix/internal/app"
)

type OrderStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	InsertOrder(ctx context.Context, order domain.Order) error
	UpdateOrderBySessionID(ctx context.Context, sessionID string, upd domain.OrderUpdate) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error
	CompletePendingOrder(ctx context.Context, sessionID string, at time.Time) (bool, error)
	LockOrder(ctx context.Context, orderID string) error
}

type TicketStore interface {
	FindTicketsByOrderID(ctx context.Context, orderID string) ([]domain.Ticket, error)
	InsertTicketsBatch(ctx context.Context, orderID string, tickets []domain.Ticket) error
}

type EventReader interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

type TicketIssuer interface {
	Generate(count int, eventTitle string) ([]ticketcode.Issued, error)
}

// FulfillmentService turns a completed payment into exactly one order, one
// set of tickets and a confirmation email attempt. It is safe to run again
// for the same session: the order is updated in place and existing tickets
// are reused.
type FulfillmentService struct {
	orders   OrderStore
	tickets  TicketStore
	issuer   TicketIssuer
	notifier notify.Sender
	mail     confirmationBuilder
	clock    clock.Clock
	logger   *slog.Logger
	tracer   trace.Tracer
}

type FulfillmentOption func(*FulfillmentService)

func WithFulfillmentLogger(logger *slog.Logger) FulfillmentOption {
	return func(s *FulfillmentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) FulfillmentOption {
	return func(s *FulfillmentService) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewFulfillmentService(
	orders OrderStore,
	tickets TicketStore,
	events EventReader,
	issuer TicketIssuer,
	notifier notify.Sender,
	clk clock.Clock,
	opts ...FulfillmentOption,
) *FulfillmentService {
	svc := &FulfillmentService{
		orders:   orders,
		tickets:  tickets,
		issuer:   issuer,
		notifier: notifier,
		clock:    clk,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.mail = confirmationBuilder{events: events, logger: svc.logger}
	return svc
}

type FulfillResult struct {
	Order          domain.Order
	Tickets        []domain.Ticket
	OrderCreated   bool
	TicketsCreated bool
	Notified       bool
}

// fulfillmentRequest is a FulfillmentEvent after validation.
type fulfillmentRequest struct {
	sessionID string
	eventID   *string
	eventName string
	eventDate string
	quantity  int
	customer  domain.Customer
	method    domain.PaymentMethod
	event     domain.FulfillmentEvent
}

// Fulfill processes one verified fulfillment event. Errors are returned
// only while the order or its tickets are not yet durable; notification
// problems are recorded on the order instead.
func (s *FulfillmentService) Fulfill(ctx context.Context, ev domain.FulfillmentEvent) (FulfillResult, error) {
	ctx, span := s.tracer.Start(ctx, "fulfillment.Fulfill",
		trace.WithAttributes(
			attribute.String("session_id", ev.SessionID),
			attribute.String("payment_method", string(ev.PaymentMethod)),
		))
	defer span.End()

	res, err := s.fulfill(ctx, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FulfillResult{}, err
	}
	span.SetAttributes(
		attribute.String("order_id", res.Order.ID),
		attribute.Int("tickets", len(res.Tickets)),
		attribute.Bool("notified", res.Notified),
	)
	return res, nil
}

func (s *FulfillmentService) fulfill(ctx context.Context, ev domain.FulfillmentEvent) (FulfillResult, error) {
	req, err := parseFulfillment(ev)
	if err != nil {
		return FulfillResult{}, err
	}
	log := s.logger.With(slog.String("session_id", req.sessionID))

	order, created, err := s.upsertOrder(ctx, req)
	if err != nil {
		return FulfillResult{}, err
	}
	log = log.With(slog.String("order_id", order.ID))
	if created {
		log.Info("order created", slog.String("status", string(order.PaymentStatus)))
	} else {
		log.Info("order updated", slog.String("status", string(order.PaymentStatus)))
	}

	tickets, ticketsCreated, err := s.ensureTickets(ctx, order, req)
	if err != nil {
		return FulfillResult{}, err
	}
	if ticketsCreated {
		log.Info("tickets created", slog.Int("count", len(tickets)))
	} else {
		log.Info("tickets reused", slog.Int("count", len(tickets)))
	}

	res := FulfillResult{
		Order:          order,
		Tickets:        tickets,
		OrderCreated:   created,
		TicketsCreated: ticketsCreated,
	}

	c := s.mail.build(ctx, order, tickets, req.eventName, req.eventDate)
	result := s.notifier.SendConfirmation(ctx, c)
	if result.Success {
		log.Info("confirmation sent", slog.String("message_id", result.MessageID))
		res.Notified = true
		return res, nil
	}

	log.Error("confirmation failed", slog.Any("error", result.Err))
	marker := order.PaymentStatus.NotificationFailed()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, marker); err != nil {
		log.Error("annotate notification failure", slog.Any("error", err))
	} else {
		res.Order.PaymentStatus = marker
	}
	return res, nil
}

func parseFulfillment(ev domain.FulfillmentEvent) (fulfillmentRequest, error) {
	if strings.TrimSpace(ev.SessionID) == "" {
		return fulfillmentRequest{}, fmt.Errorf("%w: session id", domain.ErrMalformedPayload)
	}

	customer := ev.Customer
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Email == "" || !strings.Contains(customer.Email, "@") {
		return fulfillmentRequest{}, domain.ErrMissingCustomerContact
	}

	eventName := strings.TrimSpace(ev.Metadata[domain.MetaEventName])
	if eventName == "" {
		return fulfillmentRequest{}, domain.ErrMissingEventMetadata
	}

	quantity := 1
	if raw := strings.TrimSpace(ev.Metadata[domain.MetaQuantity]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxTicketsPerOrder {
			return fulfillmentRequest{}, fmt.Errorf("%w: %q", domain.ErrInvalidQuantity, raw)
		}
		quantity = n
	}

	var eventID *string
	if raw := strings.TrimSpace(ev.Metadata[domain.MetaEventID]); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			s := id.String()
			eventID = &s
		}
	}

	method := ev.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodStripe
	}

	return fulfillmentRequest{
		sessionID: ev.SessionID,
		eventID:   eventID,
		eventName: eventName,
		eventDate: strings.TrimSpace(ev.Metadata[domain.MetaEventDate]),
		quantity:  quantity,
		customer:  customer,
		method:    method,
		event:     ev,
	}, nil
}

// upsertOrder finds the order for the session and rewrites it, or inserts
// it when none exists yet.
func (s *FulfillmentService) upsertOrder(ctx context.Context, req fulfillmentRequest) (domain.Order, bool, error) {
	now := s.clock.Now()
	eventID := req.eventID

	for {
		upd := domain.OrderUpdate{
			EventID:       eventID,
			Customer:      req.customer,
			PaymentMethod: req.method,
			TotalAmount:   req.event.Amount(),
			PaymentStatus: domain.FulfilledStatus(req.method),
			UpdatedAt:     now,
		}

		order, created, err := s.writeOrder(ctx, req.sessionID, upd, now)
		if err == nil {
			return order, created, nil
		}
		// An event id that does not reference a known event trips the
		// foreign key; keep the order and drop the link.
		if errors.Is(err, domain.ErrConstraintViolation) && eventID != nil {
			s.logger.Warn("order event link rejected, storing without event",
				slog.String("session_id", req.sessionID),
				slog.String("event_id", *eventID),
				slog.Any("error", err))
			eventID = nil
			continue
		}
		return domain.Order{}, false, err
	}
}

func (s *FulfillmentService) writeOrder(ctx context.Context, sessionID string, upd domain.OrderUpdate, now time.Time) (domain.Order, bool, error) {
	existing, err := s.orders.FindOrderBySessionID(ctx, sessionID)
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("find order: %w", err)
	}
	if existing != nil {
		order, err := s.orders.UpdateOrderBySessionID(ctx, sessionID, upd)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("update order: %w", err)
		}
		return order, false, nil
	}

	order := domain.Order{
		ID:            newID(),
		SessionID:     sessionID,
		EventID:       upd.EventID,
		Customer:      upd.Customer,
		PaymentMethod: upd.PaymentMethod,
		TotalAmount:   upd.TotalAmount,
		PaymentStatus: upd.PaymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.InsertOrder(ctx, order); err != nil {
		if !errors.Is(err, domain.ErrConstraintViolation) {
			return domain.Order{}, false, fmt.Errorf("insert order: %w", err)
		}
		// Re-check for the session when a concurrent delivery wins the race.
		existing, findErr := s.orders.FindOrderBySessionID(ctx, sessionID)
		if findErr != nil {
			return domain.Order{}, false, fmt.Errorf("find order: %w", findErr)
		}
		if existing == nil {
			return domain.Order{}, false, fmt.Errorf("insert order: %w", err)
		}
		updated, err := s.orders.UpdateOrderBySessionID(ctx, sessionID, upd)
		if err != nil {
			return domain.Order{}, false, fmt.Errorf("update order: %w", err)
		}
		return updated, false, nil
	}
	return order, true, nil
}

// ensureTickets returns the order's tickets, issuing them if none exist.
// The existence check and the insert share a transaction holding the order
// row lock, so concurrent deliveries cannot both issue.
func (s *FulfillmentService) ensureTickets(ctx context.Context, order domain.Order, req fulfillmentRequest) ([]domain.Ticket, bool, error) {
	var (
		tickets []domain.Ticket
		created bool
		err     error
	)
	for attempt := 1; attempt <= ticketInsertAttempts; attempt++ {
		err = s.orders.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.orders.LockOrder(txCtx, order.ID); err != nil {
				return err
			}
			existing, err := s.tickets.FindTicketsByOrderID(txCtx, order.ID)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				tickets, created = existing, false
				return nil
			}

			issued, err := s.issuer.Generate(req.quantity, req.eventName)
			if err != nil {
				return fmt.Errorf("generate tickets: %w", err)
			}
			now := s.clock.Now()
			batch := make([]domain.Ticket, 0, len(issued))
			for _, it := range issued {
				batch = append(batch, domain.Ticket{
					ID:         newID(),
					OrderID:    order.ID,
					Code:       it.Code,
					Type:       domain.DefaultTicketType,
					QRArtifact: it.DataURL(),
					CreatedAt:  now,
				})
			}
			// Stored tickets are read back by code; issue them in that order
			// so every confirmation numbers them the same way.
			sort.Slice(batch, func(i, j int) bool { return batch[i].Code < batch[j].Code })
			if err := s.tickets.InsertTicketsBatch(txCtx, order.ID, batch); err != nil {
				return err
			}
			tickets, created = batch, true
			return nil
		})
		if !errors.Is(err, domain.ErrConstraintViolation) {
			break
		}
		s.logger.Warn("ticket code collision, regenerating",
			slog.String("order_id", order.ID),
			slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, false, fmt.Errorf("issue tickets: %w", err)
	}
	return tickets, created, nil
}

// ConfirmPaymentIntent records a successful payment capture against a
// pending order keyed by the intent id. Unknown intents are ignored.
func (s *FulfillmentService) ConfirmPaymentIntent(ctx context.Context, intentID string) error {
	ok, err := s.orders.CompletePendingOrder(ctx, intentID, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("no pending order for payment intent", slog.String("payment_intent_id", intentID))
		return nil
	}
	s.logger.Info("pending order completed by payment intent", slog.String("payment_intent_id", intentID))
	return nil
}
