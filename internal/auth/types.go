package auth

import "time"

// User is an Ecovia account. PasswordHash is a bcrypt hash; OTP and
// OTPExpiry hold a pending password-reset ticket and are either both set
// or both empty.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	UserType     UserType
	Image        string
	OTP          string
	OTPExpiry    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the user shape handed to callers: never includes the password
// hash or a pending reset ticket.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserType  UserType  `json:"userType"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile strips credential material from a User.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		UserType:  u.UserType,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
	}
}

// Principal identifies the authenticated requester for the lifetime of a
// request.
type Principal struct {
	Email    string
	UserType UserType
}

// MonthCount is one month of signup counts for the admin dashboard chart.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}
