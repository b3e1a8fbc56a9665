package events

import (
	"context"
	"strings"
	"time"
)

// Store is the persistence surface for events and donations.
type Store interface {
	CreateEvent(ctx context.Context, ev *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, page, limit int) ([]*Event, int, error)
	UpdateEvent(ctx context.Context, ev *Event) error
	DeleteEvent(ctx context.Context, id string) error

	SaveDonation(ctx context.Context, d *Donation) error
	ListDonations(ctx context.Context, page, limit int) ([]*DonationDetail, int, error)
	DonationTotalForYear(ctx context.Context, year int) (int64, error)
}

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
)

// Service validates inputs and delegates persistence to a Store.
type Service struct {
	store Store
	now   func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source. Only intended for test use.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the events service.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent validates and persists a new event.
func (s *Service) CreateEvent(ctx context.Context, ev Event) (Event, error) {
	ev.Name = strings.TrimSpace(ev.Name)
	ev.EventType = strings.TrimSpace(ev.EventType)
	if ev.Name == "" || ev.EventType == "" || ev.Date.IsZero() {
		return Event{}, ErrInvalidInput
	}
	if err := s.store.CreateEvent(ctx, &ev); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func (s *Service) GetEvent(ctx context.Context, id string) (*Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidInput
	}
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns a page of events plus paging metadata.
func (s *Service) ListEvents(ctx context.Context, page, limit int) ([]*Event, Page, error) {
	page, limit = clampPaging(page, limit)
	items, total, err := s.store.ListEvents(ctx, page, limit)
	if err != nil {
		return nil, Page{}, err
	}
	return items, makePage(page, limit, total), nil
}

func (s *Service) UpdateEvent(ctx context.Context, ev Event) error {
	if strings.TrimSpace(ev.ID) == "" || strings.TrimSpace(ev.Name) == "" {
		return ErrInvalidInput
	}
	return s.store.UpdateEvent(ctx, &ev)
}

func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	return s.store.DeleteEvent(ctx, id)
}

// RecordDonation persists a completed payment. Every field is required:
// the payment already happened upstream, a partial record is useless.
func (s *Service) RecordDonation(ctx context.Context, d Donation) (Donation, error) {
	if d.UserEmail == "" || d.UserID == "" || d.EventID == "" ||
		d.Currency == "" || d.TransactionID == "" {
		return Donation{}, ErrInvalidInput
	}
	if d.Amount <= 0 {
		return Donation{}, ErrInvalidAmount
	}
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	if len(d.Currency) > 8 {
		return Donation{}, ErrInvalidCurrency
	}
	if err := s.store.SaveDonation(ctx, &d); err != nil {
		return Donation{}, err
	}
	return d, nil
}

// ListDonations returns a page of donations joined with donor and event.
func (s *Service) ListDonations(ctx context.Context, page, limit int) ([]*DonationDetail, Page, error) {
	page, limit = clampPaging(page, limit)
	items, total, err := s.store.ListDonations(ctx, page, limit)
	if err != nil {
		return nil, Page{}, err
	}
	return items, makePage(page, limit, total), nil
}

// DonationTotalThisYear sums completed donations for the current year.
func (s *Service) DonationTotalThisYear(ctx context.Context) (int64, error) {
	return s.store.DonationTotalForYear(ctx, s.now().UTC().Year())
}

func clampPaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func makePage(page, limit, total int) Page {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	return Page{Number: page, Limit: limit, TotalItems: total, TotalPages: totalPages}
}
