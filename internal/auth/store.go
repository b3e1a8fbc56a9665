package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the account subsystem.
// Emails passed in are expected to be normalized already; implementations
// still match case-insensitively.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Delete(ctx context.Context, id string) error
	UpdateUserType(ctx context.Context, id string, userType UserType) error

	// SetResetTicket persists a pending reset ticket on the user row,
	// replacing any earlier one in a single write (last writer wins).
	SetResetTicket(ctx context.Context, email, ticket string, expiry time.Time) error

	// ConsumeResetTicket sets the new password hash and clears the ticket
	// columns in one conditional update keyed on (email, ticket). It must
	// return ErrTicketInvalid when no row matched, which covers tickets
	// that were already used or superseded concurrently.
	ConsumeResetTicket(ctx context.Context, email, ticket, passwordHash string) error

	// SignupsPerMonth returns month(1..12) -> registration count for the year.
	SignupsPerMonth(ctx context.Context, year int) (map[int]int, error)
	CountByType(ctx context.Context, userType UserType) (int, error)
}
