package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ecovia.org/internal/events"
	"ecovia.org/internal/ids"
)

// Store persists events and donations in PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ events.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing pool, e.g. one shared with the auth store.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) CreateEvent(ctx context.Context, ev *events.Event) error {
	if ev.ID == "" {
		ev.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into events(id, name, event_type, date, location, description)
		 values($1,$2,$3,$4,$5,$6)`,
		ev.ID, ev.Name, ev.EventType, ev.Date, ev.Location, ev.Description,
	)
	return err
}

func (s *Store) GetEvent(ctx context.Context, id string) (*events.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, event_type, date, location, description, created_at
		 from events where id=$1`, id)
	var ev events.Event
	err := row.Scan(&ev.ID, &ev.Name, &ev.EventType, &ev.Date, &ev.Location,
		&ev.Description, &ev.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func (s *Store) ListEvents(ctx context.Context, page, limit int) ([]*events.Event, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*)::int from events`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select id, name, event_type, date, location, description, created_at
		 from events order by date asc limit $1 offset $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*events.Event
	for rows.Next() {
		var ev events.Event
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.EventType, &ev.Date,
			&ev.Location, &ev.Description, &ev.CreatedAt); err != nil {
			return nil, 0, err
		}
		res = append(res, &ev)
	}
	return res, total, rows.Err()
}

func (s *Store) UpdateEvent(ctx context.Context, ev *events.Event) error {
	res, err := s.db.ExecContext(ctx,
		`update events set name=$1, event_type=$2, date=$3, location=$4, description=$5
		 where id=$6`,
		ev.Name, ev.EventType, ev.Date, ev.Location, ev.Description, ev.ID,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from events where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (s *Store) SaveDonation(ctx context.Context, d *events.Donation) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into donations(id, user_id, user_email, event_id, amount, currency, transaction_id)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.UserID, d.UserEmail, d.EventID, d.Amount, d.Currency, d.TransactionID,
	)
	if err != nil && strings.Contains(err.Error(), "23505") {
		return events.ErrDuplicateTransaction
	}
	return err
}

// ListDonations joins donations with donor and event the way the admin
// dashboard table displays them. Rows keep rendering when the referenced
// user or event has been deleted (left joins).
func (s *Store) ListDonations(ctx context.Context, page, limit int) ([]*events.DonationDetail, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*)::int from donations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`select d.id, d.user_id, d.user_email, d.event_id, d.amount, d.currency,
		        d.transaction_id, d.created_at,
		        coalesce(u.name, ''), coalesce(u.image, ''),
		        coalesce(e.name, ''), coalesce(e.event_type, ''), e.date
		 from donations d
		 left join users u on u.id = d.user_id
		 left join events e on e.id = d.event_id
		 order by d.created_at desc
		 limit $1 offset $2`,
		limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var res []*events.DonationDetail
	for rows.Next() {
		var (
			d         events.DonationDetail
			eventDate sql.NullTime
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserEmail, &d.EventID, &d.Amount,
			&d.Currency, &d.TransactionID, &d.CreatedAt,
			&d.UserName, &d.UserImage, &d.EventName, &d.EventType, &eventDate); err != nil {
			return nil, 0, err
		}
		if eventDate.Valid {
			d.EventDate = eventDate.Time
		}
		res = append(res, &d)
	}
	return res, total, rows.Err()
}

func (s *Store) DonationTotalForYear(ctx context.Context, year int) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`select coalesce(sum(amount), 0) from donations
		 where extract(year from created_at)::int = $1`, year,
	).Scan(&total)
	return total, err
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return events.ErrNotFound
	}
	return nil
}
