package auth

import (
	"fmt"
	"strings"
)

// UserType enumerates the three account roles Ecovia knows about.
type UserType string

const (
	UserTypeAdmin     UserType = "admin"
	UserTypeVolunteer UserType = "volunteer"
	UserTypeDonor     UserType = "donor"
)

// ParseUserType normalizes raw input into a UserType.
func ParseUserType(raw string) (UserType, error) {
	switch UserType(strings.TrimSpace(strings.ToLower(raw))) {
	case UserTypeAdmin:
		return UserTypeAdmin, nil
	case UserTypeVolunteer:
		return UserTypeVolunteer, nil
	case UserTypeDonor:
		return UserTypeDonor, nil
	default:
		return "", fmt.Errorf("%w: unknown user type %q", ErrInvalidInput, raw)
	}
}

func (t UserType) String() string { return string(t) }

// Valid reports whether t is one of the known roles.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeAdmin, UserTypeVolunteer, UserTypeDonor:
		return true
	}
	return false
}
