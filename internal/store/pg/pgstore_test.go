package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ecovia.org/internal/events"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateEventAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into events").
		WithArgs(sqlmock.AnyArg(), "Beach Cleanup", "volunteering", sqlmock.AnyArg(), "North Shore", "").
		WillReturnResult(sqlmock.NewResult(1, 1))

	ev := &events.Event{Name: "Beach Cleanup", EventType: "volunteering", Date: time.Now(), Location: "North Shore"}
	if err := store.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID == "" {
		t.Fatalf("expected an id to be assigned")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetEventMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select id, name, event_type").
		WithArgs("ev-missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "event_type", "date", "location", "description", "created_at"}))

	if _, err := store.GetEvent(context.Background(), "ev-missing"); !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEventsPaging(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectQuery("select id, name, event_type").
		WithArgs(12, 12).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "event_type", "date", "location", "description", "created_at"}).
			AddRow("ev-13", "Event 13", "volunteering", now, "", "", now))

	items, total, err := store.ListEvents(context.Background(), 2, 12)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if total != 30 || len(items) != 1 || items[0].ID != "ev-13" {
		t.Fatalf("unexpected result: total=%d items=%v", total, items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateEventMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("update events set").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateEvent(context.Background(), &events.Event{ID: "ev-x", Name: "n", EventType: "t", Date: time.Now()})
	if !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveDonationDuplicateTransaction(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("insert into donations").
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "donations_transaction_id_key" (SQLSTATE 23505)`))

	d := &events.Donation{
		UserID: "u-1", UserEmail: "d@example.com", EventID: "ev-1",
		Amount: 100, Currency: "USD", TransactionID: "txn-1",
	}
	if err := store.SaveDonation(context.Background(), d); !errors.Is(err, events.ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestListDonationsJoinsTolerateMissingRefs(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("select d.id, d.user_id").
		WithArgs(12, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "user_email", "event_id", "amount", "currency",
			"transaction_id", "created_at", "name", "image", "event_name", "event_type", "date",
		}).AddRow("d-1", "u-gone", "gone@example.com", "ev-gone", 2500, "USD",
			"txn-9", now, "", "", "", "", nil))

	items, total, err := store.ListDonations(context.Background(), 1, 12)
	if err != nil {
		t.Fatalf("ListDonations: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("unexpected result: total=%d items=%d", total, len(items))
	}
	d := items[0]
	if d.Amount != 2500 || d.UserName != "" || !d.EventDate.IsZero() {
		t.Fatalf("unexpected detail row: %+v", d)
	}
}

func TestDonationTotalForYear(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select coalesce").
		WithArgs(2026).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(123456))

	total, err := store.DonationTotalForYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("DonationTotalForYear: %v", err)
	}
	if total != 123456 {
		t.Fatalf("unexpected total: %d", total)
	}
}
