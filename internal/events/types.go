package events

import (
	"errors"
	"time"
)

// Event is a volunteering or fundraising event.
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	EventType   string    `json:"eventType"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Donation is one completed payment against an event. Amount is in minor
// units (e.g., cents). No floats.
type Donation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userID"`
	UserEmail     string    `json:"userEmail"`
	EventID       string    `json:"eventID"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transactionId"`
	CreatedAt     time.Time `json:"created_at"`
}

// DonationDetail is a donation joined with its donor and event, as shown
// in the admin donations table.
type DonationDetail struct {
	Donation
	UserName  string    `json:"userName,omitempty"`
	UserImage string    `json:"userImage,omitempty"`
	EventName string    `json:"eventName,omitempty"`
	EventType string    `json:"eventType,omitempty"`
	EventDate time.Time `json:"eventDate,omitzero"`
}

// Page describes one slice of a paginated listing.
type Page struct {
	Number     int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

var (
	ErrNotFound            = errors.New("events: not found")
	ErrInvalidAmount       = errors.New("events: invalid amount (must be > 0)")
	ErrInvalidCurrency     = errors.New("events: invalid currency")
	ErrInvalidInput        = errors.New("events: invalid input")
	ErrDuplicateTransaction = errors.New("events: transaction already recorded")
)
