package httpapi

import (
	"net/http"
	"testing"

	"ecovia.org/internal/auth"
)

func TestUsersListing(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "admin@example.com", "pw", auth.UserTypeAdmin)
	env.seedAccount(t, "vol@example.com", "pw", auth.UserTypeVolunteer)
	admin := sessionCookie(t, "admin@example.com", auth.UserTypeAdmin)
	vol := sessionCookie(t, "vol@example.com", auth.UserTypeVolunteer)

	rec := env.do(t, http.MethodGet, "/api/users", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	users, _ := body["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected two users, got %v", body)
	}
	for _, raw := range users {
		u, _ := raw.(map[string]any)
		if _, leaked := u["password"]; leaked {
			t.Fatalf("password material leaked: %v", u)
		}
		if _, leaked := u["otp"]; leaked {
			t.Fatalf("reset ticket leaked: %v", u)
		}
	}

	rec = env.do(t, http.MethodGet, "/api/users", nil, vol)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("volunteer listing: expected 403, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/users", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous listing: expected 401, got %d", rec.Code)
	}
}

func TestDeleteUserEndpoint(t *testing.T) {
	env := newTestEnv(t)
	adminUser := env.seedAccount(t, "admin@example.com", "pw", auth.UserTypeAdmin)
	donorUser := env.seedAccount(t, "donor@example.com", "pw", auth.UserTypeDonor)
	admin := sessionCookie(t, "admin@example.com", auth.UserTypeAdmin)

	rec := env.do(t, http.MethodDelete, "/api/users/"+donorUser.ID, nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["message"] != "Successfully Deleted User" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	rec = env.do(t, http.MethodDelete, "/api/users/"+adminUser.ID, nil, admin)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin target, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Can't Delete Admin Account" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	rec = env.do(t, http.MethodDelete, "/api/users/"+donorUser.ID, nil, admin)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for already-deleted user, got %d", rec.Code)
	}
}

func TestUpdateUserTypeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "admin@example.com", "pw", auth.UserTypeAdmin)
	donorUser := env.seedAccount(t, "donor@example.com", "pw", auth.UserTypeDonor)
	admin := sessionCookie(t, "admin@example.com", auth.UserTypeAdmin)

	rec := env.do(t, http.MethodPatch, "/api/users/"+donorUser.ID+"/type", map[string]any{
		"userType": "volunteer",
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["message"] != "User Updated Successfully" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
	if env.users.users["donor@example.com"].UserType != auth.UserTypeVolunteer {
		t.Fatalf("role was not updated")
	}

	rec = env.do(t, http.MethodPatch, "/api/users/"+donorUser.ID+"/type", map[string]any{
		"userType": "superhero",
	}, admin)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["message"] != "Invalid Selection" {
		t.Fatalf("unexpected message: %v", body["message"])
	}

	rec = env.do(t, http.MethodPost, "/api/users/"+donorUser.ID+"/type", map[string]any{
		"userType": "donor",
	}, admin)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", rec.Code)
	}
}

func TestUsersPerMonthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "admin@example.com", "pw", auth.UserTypeAdmin)
	admin := sessionCookie(t, "admin@example.com", auth.UserTypeAdmin)

	rec := env.do(t, http.MethodGet, "/api/stats/users-per-month", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	months, _ := body["userPerMonth"].([]any)
	if len(months) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(months))
	}
	first, _ := months[0].(map[string]any)
	if first["month"] != "Jan" {
		t.Fatalf("unexpected first bucket: %v", first)
	}
}

func TestVolunteerCountEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "admin@example.com", "pw", auth.UserTypeAdmin)
	env.seedAccount(t, "v1@example.com", "pw", auth.UserTypeVolunteer)
	env.seedAccount(t, "v2@example.com", "pw", auth.UserTypeVolunteer)
	admin := sessionCookie(t, "admin@example.com", auth.UserTypeAdmin)

	rec := env.do(t, http.MethodGet, "/api/stats/volunteers", nil, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["count"] != float64(2) {
		t.Fatalf("unexpected count: %v", body["count"])
	}
}
