package httpapi

import (
	"errors"
	"net/http"

	"ecovia.org/internal/audit"
	"ecovia.org/internal/auth"
	"ecovia.org/internal/obs"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"userType"`
	Image    string `json:"image"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, token, err := a.accounts.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		UserType: req.UserType,
		Image:    req.Image,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "All fields are required!")
		case errors.Is(err, auth.ErrAlreadyExists):
			writeError(w, r, http.StatusConflict, "User Exists")
		default:
			writeError(w, r, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	a.sessions.Start(w, token)
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"email":    profile.Email,
		"userType": profile.UserType,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    profile,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, token, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.IncLogin(false)
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "email and password are required")
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
		default:
			writeError(w, r, http.StatusInternalServerError, "login failed")
		}
		return
	}

	obs.IncLogin(true)
	a.sessions.Start(w, token)
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"email": profile.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    profile,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.sessions.End(w)
	if principal, ok := auth.PrincipalFromContext(r.Context()); ok {
		_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{
			"email": principal.Email,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := a.accounts.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "email is required")
		case errors.Is(err, auth.ErrNotFound):
			// Reveals whether the address exists. Known enumeration gap,
			// kept on purpose to match current product behavior.
			_ = audit.LogEvent(r.Context(), "auth.reset.request", map[string]any{
				"email": req.Email,
				"miss":  true,
			})
			writeError(w, r, http.StatusNotFound, "User not found.")
		case errors.Is(err, auth.ErrMailSend):
			// The ticket is already persisted and stays valid; only the
			// delivery failed.
			writeError(w, r, http.StatusBadGateway, "Failed to send link.")
		default:
			writeError(w, r, http.StatusInternalServerError, "Failed to generate reset token.")
		}
		return
	}

	obs.IncResetRequest()
	_ = audit.LogEvent(r.Context(), "auth.reset.request", map[string]any{
		"email": req.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Reset link sent to your email.",
	})
}

func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := a.accounts.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "email, token and password are required")
		case errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "User not found.")
		case errors.Is(err, auth.ErrTicketInvalid):
			writeError(w, r, http.StatusBadRequest, "Invalid token. Please check the link.")
		case errors.Is(err, auth.ErrTicketExpired):
			writeError(w, r, http.StatusBadRequest, "Token has expired. Please request a new one.")
		default:
			writeError(w, r, http.StatusInternalServerError, "Failed to reset password.")
		}
		return
	}

	obs.IncResetComplete()
	_ = audit.LogEvent(r.Context(), "auth.reset.complete", map[string]any{
		"email": req.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successfully.",
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	profile, err := a.accounts.AuthenticatedUser(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrNotFound):
			writeError(w, r, http.StatusUnauthorized, "authentication required")
		default:
			writeError(w, r, http.StatusInternalServerError, "profile lookup failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    profile,
	})
}
