// internal/models/company.go
package models

// Identity is the authenticated principal exposed by the session context.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

const (
	UserTypeCompany   = "company"
	UserTypeCandidate = "user"
)

// UserDocument is the users/{email} record written at registration and
// amended by résumé uploads.
type UserDocument struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email"`
	UserType    string `json:"userType"`
	CreatedAt   string `json:"createdAt,omitempty"`
	ResumeURL   string `json:"resumeUrl,omitempty"`
	ResumeID    string `json:"resumeId,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// CompanyProfile is the resolved durable profile of a signed-in company.
type CompanyProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
