package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
)

type EventRepository interface {
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListEvents(ctx context.Context, status domain.EventStatus) ([]domain.Event, error)
	PublishEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// CatalogService manages the event catalog. Submitted events start as
// drafts and are only offered for sale once published.
type CatalogService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewCatalogService(repo EventRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{
		repo:  repo,
		clock: clk,
	}
}

type SubmitEventInput struct {
	Title       string
	Description string
	Venue       string
	StartsAt    *time.Time
	Price       decimal.Decimal
	SubmittedBy string
}

func (s *CatalogService) SubmitEvent(ctx context.Context, in SubmitEventInput) (domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Event{}, domain.ErrEventTitleRequired
	}
	if in.Price.IsNegative() {
		return domain.Event{}, domain.ErrInvalidPrice
	}
	now := s.clock.Now()
	startsAt := now
	if in.StartsAt != nil {
		startsAt = *in.StartsAt
	}

	event := domain.Event{
		ID:          newID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Venue:       strings.TrimSpace(in.Venue),
		StartsAt:    startsAt,
		Price:       in.Price.Round(2),
		Status:      domain.EventStatusDraft,
		SubmittedBy: in.SubmittedBy,
		CreatedAt:   now,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	return event, nil
}

func (s *CatalogService) PublishEvent(ctx context.Context, eventID string) (domain.Event, error) {
	if eventID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	return s.repo.PublishEvent(ctx, eventID)
}

func (s *CatalogService) ListPublished(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx, domain.EventStatusPublished)
}

func (s *CatalogService) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	if eventID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	return s.repo.GetEvent(ctx, eventID)
}

// publishedEvent loads an event that is open for sale.
func publishedEvent(ctx context.Context, events EventReader, eventID string) (domain.Event, error) {
	if eventID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	event, err := events.GetEvent(ctx, eventID)
	if err != nil {
		return domain.Event{}, err
	}
	if event.Status != domain.EventStatusPublished {
		return domain.Event{}, domain.ErrEventNotPublished
	}
	return event, nil
}
