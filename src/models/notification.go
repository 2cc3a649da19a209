package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies outgoing alerts
type NotificationType string

const (
	NotificationTypeCreditHold   NotificationType = "CREDIT_HOLD"
	NotificationTypeDebtReminder NotificationType = "DEBT_REMINDER"
)

// NotificationPriority controls delivery urgency
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "LOW"
	PriorityMedium NotificationPriority = "MEDIUM"
	PriorityHigh   NotificationPriority = "HIGH"
)

// Notification is a fire-and-forget alert handed to the delivery channel
type Notification struct {
	Type       NotificationType       `json:"type"`
	Priority   NotificationPriority   `json:"priority"`
	CustomerID uuid.UUID              `json:"customer_id"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// NotificationRecord is a notification kept in the customer's inbox
type NotificationRecord struct {
	ID uuid.UUID `json:"id" db:"id"`
	Notification
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
