package httpapi

import (
	"net/http"

	"ecovia.org/internal/audit"
	"ecovia.org/internal/events"
)

type donationRequest struct {
	UserEmail     string `json:"userEmail"`
	UserID        string `json:"userID"`
	EventID       string `json:"eventID"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transactionId"`
}

func (a *API) handleDonationsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.recordDonation(w, r)
	case http.MethodGet:
		a.listDonations(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// recordDonation stores an already-completed payment. The payment itself
// happens upstream; this endpoint only records the result, so any
// authenticated user may call it for their own transaction.
func (a *API) recordDonation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req donationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := a.events.RecordDonation(r.Context(), events.Donation{
		UserEmail:     req.UserEmail,
		UserID:        req.UserID,
		EventID:       req.EventID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		handleEventsError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "donations.record", map[string]any{
		"donation_id":    d.ID,
		"event_id":       d.EventID,
		"amount":         d.Amount,
		"currency":       d.Currency,
		"recorded_by":    principal.Email,
		"transaction_id": d.TransactionID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Transaction Successful",
		"donation": d,
	})
}

func (a *API) listDonations(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 0)
	items, pageInfo, err := a.events.ListDonations(r.Context(), page, limit)
	if err != nil {
		handleEventsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"donations": items,
		"page":      pageInfo,
	})
}

func (a *API) handleDonationTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	total, err := a.events.DonationTotalThisYear(r.Context())
	if err != nil {
		handleEventsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   total,
	})
}
