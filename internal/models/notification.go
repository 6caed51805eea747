package models

import (
	"strconv"
	"time"
)

const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"

	TargetAllUsers = "all"
)

// Notification is an admin or automation authored broadcast
type Notification struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	TargetUsers string     `json:"targetUsers"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	IsRead      bool       `json:"isRead"`
}

// IsExpired reports whether the notification has passed its expiry
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !now.Before(*n.ExpiresAt)
}

// FormatUnreadCount renders a badge count, capped at "99+"
func FormatUnreadCount(count int) string {
	if count > 99 {
		return "99+"
	}
	if count < 0 {
		count = 0
	}
	return strconv.Itoa(count)
}
