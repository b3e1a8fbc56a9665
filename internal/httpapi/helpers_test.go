package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecovia.org/internal/auth"
	"ecovia.org/internal/events"
)

func setTestSecret(t *testing.T) {
	t.Helper()
	t.Setenv("ECOVIA_AUTH_SECRET", "test-secret")
	auth.ResetSecretForTests()
	t.Cleanup(auth.ResetSecretForTests)
}

// stubUserStore is an in-memory auth.Store for handler tests.
type stubUserStore struct {
	users  map[string]*auth.User
	nextID int
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*auth.User)}
}

func (s *stubUserStore) Create(_ context.Context, u *auth.User) error {
	if _, ok := s.users[u.Email]; ok {
		return auth.ErrAlreadyExists
	}
	s.nextID++
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", s.nextID)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	s.users[u.Email] = &cp
	return nil
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	u, ok := s.users[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *stubUserStore) List(_ context.Context) ([]*auth.User, error) {
	res := make([]*auth.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		res = append(res, &cp)
	}
	return res, nil
}

func (s *stubUserStore) Delete(_ context.Context, id string) error {
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			return nil
		}
	}
	return auth.ErrNotFound
}

func (s *stubUserStore) UpdateUserType(_ context.Context, id string, userType auth.UserType) error {
	for _, u := range s.users {
		if u.ID == id {
			u.UserType = userType
			return nil
		}
	}
	return auth.ErrNotFound
}

func (s *stubUserStore) SetResetTicket(_ context.Context, email, ticket string, expiry time.Time) error {
	u, ok := s.users[auth.NormalizeEmail(email)]
	if !ok {
		return auth.ErrNotFound
	}
	u.OTP = ticket
	exp := expiry
	u.OTPExpiry = &exp
	return nil
}

func (s *stubUserStore) ConsumeResetTicket(_ context.Context, email, ticket, passwordHash string) error {
	u, ok := s.users[auth.NormalizeEmail(email)]
	if !ok || u.OTP == "" || u.OTP != ticket {
		return auth.ErrTicketInvalid
	}
	u.PasswordHash = passwordHash
	u.OTP = ""
	u.OTPExpiry = nil
	return nil
}

func (s *stubUserStore) SignupsPerMonth(_ context.Context, year int) (map[int]int, error) {
	res := make(map[int]int)
	for _, u := range s.users {
		if u.CreatedAt.UTC().Year() == year {
			res[int(u.CreatedAt.UTC().Month())]++
		}
	}
	return res, nil
}

func (s *stubUserStore) CountByType(_ context.Context, userType auth.UserType) (int, error) {
	n := 0
	for _, u := range s.users {
		if u.UserType == userType {
			n++
		}
	}
	return n, nil
}

// stubMailer records outbound reset mails.
type stubMailer struct {
	fail bool
	sent []string
	body string
}

func (m *stubMailer) Send(_ context.Context, to, _, htmlBody string) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent = append(m.sent, to)
	m.body = htmlBody
	return nil
}

// stubEventStore is an in-memory events.Store.
type stubEventStore struct {
	order     []*events.Event
	donations []*events.Donation
	nextID    int
}

func newStubEventStore() *stubEventStore { return &stubEventStore{} }

func (s *stubEventStore) CreateEvent(_ context.Context, ev *events.Event) error {
	s.nextID++
	if ev.ID == "" {
		ev.ID = fmt.Sprintf("event-%d", s.nextID)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	cp := *ev
	s.order = append(s.order, &cp)
	return nil
}

func (s *stubEventStore) GetEvent(_ context.Context, id string) (*events.Event, error) {
	for _, ev := range s.order {
		if ev.ID == id {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, events.ErrNotFound
}

func (s *stubEventStore) ListEvents(_ context.Context, page, limit int) ([]*events.Event, int, error) {
	start := (page - 1) * limit
	if start >= len(s.order) {
		return nil, len(s.order), nil
	}
	end := start + limit
	if end > len(s.order) {
		end = len(s.order)
	}
	return s.order[start:end], len(s.order), nil
}

func (s *stubEventStore) UpdateEvent(_ context.Context, ev *events.Event) error {
	for i, existing := range s.order {
		if existing.ID == ev.ID {
			cp := *ev
			cp.CreatedAt = existing.CreatedAt
			s.order[i] = &cp
			return nil
		}
	}
	return events.ErrNotFound
}

func (s *stubEventStore) DeleteEvent(_ context.Context, id string) error {
	for i, ev := range s.order {
		if ev.ID == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return nil
		}
	}
	return events.ErrNotFound
}

func (s *stubEventStore) SaveDonation(_ context.Context, d *events.Donation) error {
	for _, existing := range s.donations {
		if existing.TransactionID == d.TransactionID {
			return events.ErrDuplicateTransaction
		}
	}
	s.nextID++
	if d.ID == "" {
		d.ID = fmt.Sprintf("donation-%d", s.nextID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	s.donations = append(s.donations, &cp)
	return nil
}

func (s *stubEventStore) ListDonations(_ context.Context, page, limit int) ([]*events.DonationDetail, int, error) {
	res := make([]*events.DonationDetail, 0, len(s.donations))
	for _, d := range s.donations {
		res = append(res, &events.DonationDetail{Donation: *d})
	}
	return res, len(res), nil
}

func (s *stubEventStore) DonationTotalForYear(_ context.Context, year int) (int64, error) {
	var total int64
	for _, d := range s.donations {
		if d.CreatedAt.UTC().Year() == year {
			total += d.Amount
		}
	}
	return total, nil
}

type testEnv struct {
	api      *API
	handler  http.Handler
	users    *stubUserStore
	eventsDB *stubEventStore
	mailer   *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	setTestSecret(t)

	users := newStubUserStore()
	eventsDB := newStubEventStore()
	mailer := &stubMailer{}

	accounts, err := auth.NewService(users,
		auth.WithMailer(mailer),
		auth.WithBaseURL("https://ecovia.example"),
	)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	api, err := New(Options{
		Version:  "test",
		Accounts: accounts,
		Events:   events.NewService(eventsDB),
		Sessions: NewSessionManager(false),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{
		api:      api,
		handler:  api.Handler(),
		users:    users,
		eventsDB: eventsDB,
		mailer:   mailer,
	}
}

func (e *testEnv) seedAccount(t *testing.T, email, password string, userType auth.UserType) *auth.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &auth.User{Name: "Test User", Email: auth.NormalizeEmail(email), PasswordHash: hash, UserType: userType}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return u
}

// sessionCookie issues a valid session cookie for the given identity.
func sessionCookie(t *testing.T, email string, userType auth.UserType) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(email, userType, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return &http.Cookie{Name: SessionCookieName, Value: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func newRawRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newRecorder() *httptest.ResponseRecorder { return httptest.NewRecorder() }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

func findSetCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
