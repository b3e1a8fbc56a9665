package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecovia.org/internal/mail"
)

const (
	defaultTicketTTL = time.Hour

	// resetTicketBytes yields 64 hex characters, 256 bits of entropy.
	resetTicketBytes = 32
)

// Mailer delivers a single message. internal/mail provides the SMTP
// implementation; tests inject fakes.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service implements the account flows: registration, login, password
// reset and the admin user-management operations.
type Service struct {
	store   Store
	mailer  Mailer
	baseURL string

	now        func() time.Time
	ticketTTL  time.Duration
	sessionTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithMailer sets the outbound mail transport used for reset links.
func WithMailer(m Mailer) ServiceOption {
	return func(s *Service) { s.mailer = m }
}

// WithBaseURL sets the public base URL embedded into reset links.
func WithBaseURL(u string) ServiceOption {
	return func(s *Service) { s.baseURL = strings.TrimRight(strings.TrimSpace(u), "/") }
}

// WithTicketTTL overrides the reset ticket lifetime.
func WithTicketTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ticketTTL = ttl
		}
	}
}

// WithSessionTTL overrides the session token lifetime.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithClock overrides the time source. Only intended for test use.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs the account service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	s := &Service{
		store:      store,
		now:        time.Now,
		ticketTTL:  defaultTicketTTL,
		sessionTTL: SessionTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	UserType string
	Image    string
}

// Register creates an account and issues a session token for it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Profile, string, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" ||
		in.Password == "" || strings.TrimSpace(in.UserType) == "" {
		return Profile{}, "", fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	userType, err := ParseUserType(in.UserType)
	if err != nil {
		return Profile{}, "", err
	}

	email := NormalizeEmail(in.Email)
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return Profile{}, "", ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return Profile{}, "", err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Profile{}, "", err
	}
	user := &User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		UserType:     userType,
		Image:        in.Image,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return Profile{}, "", err
	}

	token, err := GenerateToken(email, userType, s.sessionTTL)
	if err != nil {
		return Profile{}, "", err
	}
	return user.Profile(), token, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (Profile, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Profile{}, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Profile{}, "", err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Profile{}, "", ErrInvalidCredentials
	}
	token, err := GenerateToken(user.Email, user.UserType, s.sessionTTL)
	if err != nil {
		return Profile{}, "", err
	}
	return user.Profile(), token, nil
}

// AuthenticatedUser resolves a session token to the current profile.
func (s *Service) AuthenticatedUser(ctx context.Context, token string) (Profile, error) {
	claims, err := ParseAndValidate(token)
	if err != nil {
		return Profile{}, ErrInvalidToken
	}
	user, err := s.store.FindByEmail(ctx, claims.Email)
	if err != nil {
		return Profile{}, err
	}
	return user.Profile(), nil
}

// RequestPasswordReset generates a reset ticket, persists it on the user
// row and emails a reset link. A failed send does not roll the ticket
// back; the link simply never arrives and the ticket expires on its own.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := s.store.FindByEmail(ctx, email); err != nil {
		return err
	}

	ticket, err := newResetTicket()
	if err != nil {
		return err
	}
	expiry := s.now().UTC().Add(s.ticketTTL)
	if err := s.store.SetResetTicket(ctx, email, ticket, expiry); err != nil {
		return err
	}

	if s.mailer == nil {
		return ErrMailSend
	}
	subject, body := mail.ResetMessage(s.baseURL, email, ticket)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("%w: %v", ErrMailSend, err)
	}
	return nil
}

// ResetPassword redeems a ticket. Checks run in a fixed order — user,
// ticket match, expiry — and nothing is written until all of them pass.
// The final write is conditional on the ticket, which is what makes
// tickets single-use under concurrent redeems.
func (s *Service) ResetPassword(ctx context.Context, email, ticket, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || ticket == "" || newPassword == "" {
		return fmt.Errorf("%w: email, token and password are required", ErrInvalidInput)
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.OTP == "" || user.OTP != ticket {
		return ErrTicketInvalid
	}
	if user.OTPExpiry == nil || s.now().UTC().After(user.OTPExpiry.UTC()) {
		return ErrTicketExpired
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.store.ConsumeResetTicket(ctx, email, ticket, hash)
}

// Users lists every account without credential material.
func (s *Service) Users(ctx context.Context) ([]Profile, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return profiles, nil
}

// DeleteUser removes an account. Admin accounts are refused.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.UserType == UserTypeAdmin {
		return ErrAdminImmutable
	}
	return s.store.Delete(ctx, id)
}

// ChangeUserType reassigns an account's role.
func (s *Service) ChangeUserType(ctx context.Context, id, userType string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	parsed, err := ParseUserType(userType)
	if err != nil {
		return err
	}
	return s.store.UpdateUserType(ctx, id, parsed)
}

var monthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// SignupsPerMonth returns twelve zero-filled buckets for the current year.
func (s *Service) SignupsPerMonth(ctx context.Context) ([]MonthCount, error) {
	year := s.now().UTC().Year()
	counts, err := s.store.SignupsPerMonth(ctx, year)
	if err != nil {
		return nil, err
	}
	res := make([]MonthCount, 0, len(monthNames))
	for i, name := range monthNames {
		res = append(res, MonthCount{Month: name, Count: counts[i+1]})
	}
	return res, nil
}

// VolunteerCount reports how many volunteer accounts exist.
func (s *Service) VolunteerCount(ctx context.Context) (int, error) {
	return s.store.CountByType(ctx, UserTypeVolunteer)
}

func newResetTicket() (string, error) {
	buf := make([]byte, resetTicketBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate reset ticket: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
