package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ecovia.org/internal/audit"
	"ecovia.org/internal/auth"
)

type updateUserTypeRequest struct {
	UserType string `json:"userType"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	users, err := a.accounts.Users(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if rest == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	principal, ok := requireAdmin(w, r)
	if !ok {
		return
	}

	if id, found := strings.CutSuffix(rest, "/type"); found {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, r, http.MethodPatch)
			return
		}
		a.updateUserType(w, r, principal, id)
		return
	}
	if strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	a.deleteUser(w, r, principal, rest)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request, principal auth.Principal, id string) {
	err := a.accounts.DeleteUser(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "Unable To Delete User")
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Unable To Delete User")
		case errors.Is(err, auth.ErrAdminImmutable):
			writeError(w, r, http.StatusForbidden, "Can't Delete Admin Account")
		default:
			writeError(w, r, http.StatusInternalServerError, "Unable To Delete User")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "users.delete", map[string]any{
		"user_id":    id,
		"deleted_by": principal.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Successfully Deleted User",
	})
}

func (a *API) updateUserType(w http.ResponseWriter, r *http.Request, principal auth.Principal, id string) {
	var req updateUserTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	err := a.accounts.ChangeUserType(r.Context(), id, req.UserType)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "Invalid Selection")
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "Unable To Update User Type")
		default:
			writeError(w, r, http.StatusInternalServerError, "Unable To Update User Type")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "users.update_type", map[string]any{
		"user_id":    id,
		"user_type":  req.UserType,
		"updated_by": principal.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "User Updated Successfully",
	})
}

func (a *API) handleUsersPerMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	counts, err := a.accounts.SignupsPerMonth(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"userPerMonth": counts,
	})
}

func (a *API) handleVolunteerCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	count, err := a.accounts.VolunteerCount(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   count,
	})
}
