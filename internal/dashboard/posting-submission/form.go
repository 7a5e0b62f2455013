// internal/dashboard/posting-submission/form.go
package postingsubmission

import (
	"fmt"
	"strings"

	"skillmatch/internal/common/errors"
	"skillmatch/internal/models"
)

// DefaultDescription is the Markdown skeleton a new posting starts from.
const DefaultDescription = `## Project Overview
Brief description of the project and its goals.

## Requirements
- Technical skill 1
- Technical skill 2
- Soft skill 1

## Responsibilities
1. Main responsibility
2. Secondary responsibility
3. Additional tasks

## Nice to Have
- Additional skill 1
- Additional skill 2

## Benefits
- Benefit 1
- Benefit 2
`

// Form holds the raw values of the posting form.
type Form struct {
	Role        string `json:"role"`
	HiringType  string `json:"hiringType"`
	WorkMode    string `json:"workMode"`
	Description string `json:"description"`
}

func DefaultForm() Form {
	return Form{
		HiringType:  string(models.HiringFullTime),
		WorkMode:    string(models.WorkOnsite),
		Description: DefaultDescription,
	}
}

// Posting is a validated Form.
type Posting struct {
	Role        string
	HiringType  models.HiringType
	WorkMode    models.WorkMode
	Description string
}

// Validate checks f and returns the first ValidationError found.
func (f Form) Validate() (Posting, error) {
	role := strings.TrimSpace(f.Role)
	if role == "" {
		return Posting{}, errors.NewValidationError("role", "Job role is required")
	}

	hiringType, ok := models.ParseHiringType(f.HiringType)
	if !ok {
		return Posting{}, errors.NewValidationError("hiringType", fmt.Sprintf("Unknown hiring type %q", f.HiringType))
	}

	workMode, ok := models.ParseWorkMode(f.WorkMode)
	if !ok {
		return Posting{}, errors.NewValidationError("workMode", fmt.Sprintf("Unknown work mode %q", f.WorkMode))
	}

	if strings.TrimSpace(f.Description) == "" {
		return Posting{}, errors.NewValidationError("description", "Job description is required")
	}

	return Posting{
		Role:        role,
		HiringType:  hiringType,
		WorkMode:    workMode,
		Description: f.Description,
	}, nil
}
