package models

import "time"

// Notification is a derived, dismissible view record. It is never persisted.
type Notification struct {
	ID          string        `json:"id"`
	RequestID   string        `json:"request_id"`
	UserID      string        `json:"user_id"`
	ResourceID  string        `json:"resource_id"`
	Message     string        `json:"message"`
	Status      RequestStatus `json:"status"`
	Dismissible bool          `json:"dismissible"`
	Seen        bool          `json:"seen"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ActivityLog is an admin audit entry stored under activityLogs.
type ActivityLog struct {
	ID        string    `json:"id,omitempty"`
	ActorID   string    `json:"actorId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// SetID assigns the store key to the entity.
func (l *ActivityLog) SetID(id string) { l.ID = id }
