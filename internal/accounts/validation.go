// internal/accounts/validation.go
package accounts

import (
	"strings"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/common/validation"
	"skillmatch/internal/models"
)

const minPasswordLength = 6

// normalize trims the request, lowercases the email and defaults the account
// type to candidate.
func (r Request) normalize() Request {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.UserType = strings.ToLower(strings.TrimSpace(r.UserType))
	if r.UserType == "" {
		r.UserType = models.UserTypeCandidate
	}
	return r
}

func (r Request) validate() error {
	if r.Name == "" {
		if r.UserType == models.UserTypeCompany {
			return errors.NewValidationError("name", "Enter the company name")
		}
		return errors.NewValidationError("name", "Enter your full name")
	}
	if !validation.ValidateEmail(r.Email) {
		return errors.NewValidationError("email", "Enter a valid email address")
	}
	if len(r.Password) < minPasswordLength {
		return errors.NewValidationError("password", "Password must be at least 6 characters")
	}
	switch r.UserType {
	case models.UserTypeCompany, models.UserTypeCandidate:
	default:
		return errors.NewValidationError("userType", "Account type must be user or company")
	}
	return nil
}
