package model

import "time"

// NotificationType classifies what triggered a notification
type NotificationType string

const (
	NotificationGeneric      NotificationType = "generic"
	NotificationTaskAssigned NotificationType = "newTaskAssigned"
	NotificationTaskAccepted NotificationType = "taskAccepted"
	NotificationTaskRejected NotificationType = "taskRejectedByTeamMember"
)

// Notification is a message delivered to a user about project activity
type Notification struct {
	ID               string           `json:"id"`
	Type             NotificationType `json:"type"`
	Message          string           `json:"message"`
	Link             string           `json:"link,omitempty"`
	RelatedTaskTitle string           `json:"relatedTaskTitle,omitempty"`
	Read             bool             `json:"read"`
	CreatedAt        time.Time        `json:"createdAt"`
}
