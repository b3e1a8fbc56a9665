package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ecovia.org/internal/audit"
	"ecovia.org/internal/events"
)

type eventRequest struct {
	Name        string    `json:"name"`
	EventType   string    `json:"eventType"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

func (a *API) handleEventsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listEvents(w, r)
	case http.MethodPost:
		a.createEvent(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	items, pageInfo, err := a.events.ListEvents(r.Context(), page, limit)
	if err != nil {
		handleEventsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"events":  items,
		"page":    pageInfo,
	})
}

func (a *API) createEvent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ev, err := a.events.CreateEvent(r.Context(), events.Event{
		Name:        req.Name,
		EventType:   req.EventType,
		Date:        req.Date,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		handleEventsError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "events.create", map[string]any{
		"event_id": ev.ID,
		"name":     ev.Name,
	})
	w.Header().Set("Location", "/api/events/"+ev.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   ev,
	})
}

func (a *API) handleEventResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/events/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		ev, err := a.events.GetEvent(r.Context(), id)
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": ev})
	case http.MethodPut:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		var req eventRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		err := a.events.UpdateEvent(r.Context(), events.Event{
			ID:          id,
			Name:        req.Name,
			EventType:   req.EventType,
			Date:        req.Date,
			Location:    req.Location,
			Description: req.Description,
		})
		if err != nil {
			handleEventsError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "events.update", map[string]any{"event_id": id})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Event Updated Successfully"})
	case http.MethodDelete:
		if _, ok := requireAdmin(w, r); !ok {
			return
		}
		if err := a.events.DeleteEvent(r.Context(), id); err != nil {
			handleEventsError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "events.delete", map[string]any{"event_id": id})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Event Deleted Successfully"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func handleEventsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, events.ErrInvalidInput),
		errors.Is(err, events.ErrInvalidAmount),
		errors.Is(err, events.ErrInvalidCurrency):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, events.ErrDuplicateTransaction):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, events.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
