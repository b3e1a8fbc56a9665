package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"ecovia.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, name, email, password, user_type, image, otp, otp_expiry, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	u.Email = NormalizeEmail(u.Email)
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, email, password, user_type, image) values($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.UserType.String(), u.Image,
	)
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email)=$1`, NormalizeEmail(email),
	)
	return scanUser(row)
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id,
	)
	return scanUser(row)
}

func (s *PGStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrNotFound)
}

func (s *PGStore) UpdateUserType(ctx context.Context, id string, userType UserType) error {
	res, err := s.db.ExecContext(ctx,
		`update users set user_type=$1, updated_at=now() where id=$2`,
		userType.String(), id,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrNotFound)
}

// SetResetTicket overwrites both ticket columns in one statement so a pair
// from two racing requests can never interleave.
func (s *PGStore) SetResetTicket(ctx context.Context, email, ticket string, expiry time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set otp=$1, otp_expiry=$2, updated_at=now() where lower(email)=$3`,
		ticket, expiry, NormalizeEmail(email),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrNotFound)
}

// ConsumeResetTicket is a single conditional update: the ticket match is
// part of the WHERE clause, so a ticket that was superseded or already
// used between the caller's read and this write matches zero rows.
func (s *PGStore) ConsumeResetTicket(ctx context.Context, email, ticket, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password=$1, otp=null, otp_expiry=null, updated_at=now()
		 where lower(email)=$2 and otp=$3`,
		passwordHash, NormalizeEmail(email), ticket,
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res, ErrTicketInvalid)
}

func (s *PGStore) SignupsPerMonth(ctx context.Context, year int) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`select extract(month from created_at)::int as month, count(*)::int
		 from users
		 where extract(year from created_at)::int = $1
		 group by month`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[int]int)
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, err
		}
		res[month] = count
	}
	return res, rows.Err()
}

func (s *PGStore) CountByType(ctx context.Context, userType UserType) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`select count(*)::int from users where user_type=$1`, userType.String(),
	).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		userType  string
		image     sql.NullString
		otp       sql.NullString
		otpExpiry sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &userType,
		&image, &otp, &otpExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.UserType = UserType(userType)
	u.Image = image.String
	u.OTP = otp.String
	if otpExpiry.Valid {
		t := otpExpiry.Time
		u.OTPExpiry = &t
	}
	return &u, nil
}

func requireRowAffected(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// pgx surfaces SQLSTATE 23505 in the error text; matching on the code
	// avoids importing driver-specific error types here.
	return err != nil && strings.Contains(err.Error(), "23505")
}
