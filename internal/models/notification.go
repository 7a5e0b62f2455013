// internal/models/notification.go
package models

import "time"

// Notification is a dismissable, user-visible report of a failed operation.
type Notification struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"` // "resync", "search", "submit", "upload"
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
