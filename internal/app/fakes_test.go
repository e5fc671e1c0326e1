package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
	"github.com/cimillas/eventtix/internal/ticketcode"
)

// memStore is an in-memory stand-in for the order, ticket and event stores.
type memStore struct {
	mu      sync.Mutex
	orders  map[string]domain.Order    // by session id
	tickets map[string][]domain.Ticket // by order id
	events  map[string]domain.Event

	// checkEventLink rejects orders that reference unknown events, like
	// the foreign key does.
	checkEventLink bool

	findErr          error
	insertOrderErr   error
	updateStatusErr  error
	getEventErr      error
	findTicketsErr   error
	insertTicketsErr error
	beforeInsertHook func(order domain.Order)

	insertOrderCalls   int
	insertTicketsCalls int
	statusUpdates      []domain.PaymentStatus
}

func newMemStore() *memStore {
	return &memStore{
		orders:  map[string]domain.Order{},
		tickets: map[string][]domain.Ticket{},
		events:  map[string]domain.Event{},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) FindOrderBySessionID(_ context.Context, sessionID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	order, ok := m.orders[sessionID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (m *memStore) GetOrder(_ context.Context, orderID string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (m *memStore) InsertOrder(_ context.Context, order domain.Order) error {
	if m.beforeInsertHook != nil {
		m.beforeInsertHook(order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertOrderCalls++
	if m.insertOrderErr != nil {
		return m.insertOrderErr
	}
	if _, ok := m.orders[order.SessionID]; ok {
		return fmt.Errorf("insert order: %w", domain.ErrConstraintViolation)
	}
	if err := m.checkLink(order.EventID); err != nil {
		return err
	}
	m.orders[order.SessionID] = order
	return nil
}

func (m *memStore) checkLink(eventID *string) error {
	if !m.checkEventLink || eventID == nil {
		return nil
	}
	if _, ok := m.events[*eventID]; !ok {
		return fmt.Errorf("order event: %w", domain.ErrConstraintViolation)
	}
	return nil
}

func (m *memStore) UpdateOrderBySessionID(_ context.Context, sessionID string, upd domain.OrderUpdate) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[sessionID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err := m.checkLink(upd.EventID); err != nil {
		return domain.Order{}, err
	}
	order.EventID = upd.EventID
	order.Customer.Email = upd.Customer.Email
	if upd.Customer.Name != "" {
		order.Customer.Name = upd.Customer.Name
	}
	if upd.Customer.Phone != "" {
		order.Customer.Phone = upd.Customer.Phone
	}
	order.PaymentMethod = upd.PaymentMethod
	order.TotalAmount = upd.TotalAmount
	order.PaymentStatus = upd.PaymentStatus
	order.UpdatedAt = upd.UpdatedAt
	m.orders[sessionID] = order
	return order, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, orderID string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	for sid, o := range m.orders {
		if o.ID == orderID {
			o.PaymentStatus = status
			m.orders[sid] = o
			m.statusUpdates = append(m.statusUpdates, status)
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (m *memStore) CompletePendingOrder(_ context.Context, sessionID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[sessionID]
	if !ok || o.PaymentStatus != domain.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = domain.PaymentStatusCompleted
	o.UpdatedAt = at
	m.orders[sessionID] = o
	return true, nil
}

func (m *memStore) LockOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == orderID {
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (m *memStore) ListOrdersByStatus(_ context.Context, statuses []domain.PaymentStatus, limit int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		for _, s := range statuses {
			if o.PaymentStatus == s {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindOrdersByEmail(_ context.Context, email string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		if o.Customer.Email == email {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) FindTicketsByOrderID(_ context.Context, orderID string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findTicketsErr != nil {
		return nil, m.findTicketsErr
	}
	out := append([]domain.Ticket{}, m.tickets[orderID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (m *memStore) InsertTicketsBatch(_ context.Context, orderID string, tickets []domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertTicketsCalls++
	if m.insertTicketsErr != nil {
		return m.insertTicketsErr
	}
	for _, t := range tickets {
		if _, err := m.ticketByCodeLocked(t.Code); err == nil {
			return fmt.Errorf("insert tickets: %w", domain.ErrConstraintViolation)
		}
	}
	m.tickets[orderID] = append(m.tickets[orderID], tickets...)
	return nil
}

func (m *memStore) ticketByCodeLocked(code string) (domain.Ticket, error) {
	for _, ts := range m.tickets {
		for _, t := range ts {
			if t.Code == code {
				return t, nil
			}
		}
	}
	return domain.Ticket{}, domain.ErrTicketNotFound
}

func (m *memStore) GetTicketByCode(_ context.Context, code string) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketByCodeLocked(code)
}

func (m *memStore) RedeemTicket(_ context.Context, code string, at time.Time) (domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for orderID, ts := range m.tickets {
		for i, t := range ts {
			if t.Code != code {
				continue
			}
			if t.Used {
				return domain.Ticket{}, domain.ErrTicketAlreadyUsed
			}
			t.Used = true
			t.UsedAt = &at
			m.tickets[orderID][i] = t
			return t, nil
		}
	}
	return domain.Ticket{}, domain.ErrTicketNotFound
}

func (m *memStore) GetEvent(_ context.Context, eventID string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getEventErr != nil {
		return domain.Event{}, m.getEventErr
	}
	e, ok := m.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

func (m *memStore) CreateEvent(_ context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = event
	return nil
}

func (m *memStore) ListEvents(_ context.Context, status domain.EventStatus) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Event
	for _, e := range m.events {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *memStore) PublishEvent(_ context.Context, eventID string) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	e.Status = domain.EventStatusPublished
	m.events[eventID] = e
	return e, nil
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) ticketCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ts := range m.tickets {
		n += len(ts)
	}
	return n
}

// fakeIssuer hands out sequential codes, or scripted batches when set.
type fakeIssuer struct {
	mu      sync.Mutex
	next    int
	batches [][]string
	calls   int
	err     error
}

func (f *fakeIssuer) Generate(count int, _ string) ([]ticketcode.Issued, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if count < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	var codes []string
	if len(f.batches) > 0 {
		codes, f.batches = f.batches[0], f.batches[1:]
	} else {
		for i := 0; i < count; i++ {
			f.next++
			codes = append(codes, fmt.Sprintf("TICKET-20250102-%010d", f.next))
		}
	}
	out := make([]ticketcode.Issued, 0, len(codes))
	for _, c := range codes {
		out = append(out, ticketcode.Issued{Code: c, Payload: c, PNG: []byte("png:" + c)})
	}
	return out, nil
}

func (f *fakeIssuer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeNotifier struct {
	mu            sync.Mutex
	fail          error
	confirmations []notify.Confirmation
	reminders     []notify.Reminder
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, c notify.Confirmation) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, c)
	if f.fail != nil {
		return notify.Result{Err: f.fail}
	}
	return notify.Result{Success: true, MessageID: fmt.Sprintf("msg-%d", len(f.confirmations))}
}

func (f *fakeNotifier) SendPaymentReminder(_ context.Context, r notify.Reminder) notify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, r)
	if f.fail != nil {
		return notify.Result{Err: f.fail}
	}
	return notify.Result{Success: true, MessageID: fmt.Sprintf("reminder-%d", len(f.reminders))}
}

func qrArtifact(code string) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png:"+code))
}
