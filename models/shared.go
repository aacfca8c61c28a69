package models

// ReminderPayload is the task body for an appointment reminder.
type ReminderPayload struct {
	CorrelationID string `json:"correlationId"`
	AppointmentID string `json:"appointmentId"`
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"` // Reminder target
	Provider      string `json:"provider"`
	ServiceName   string `json:"serviceName"`
	StartTime     string `json:"startTime"`
	FireDate      string `json:"fireDate"` // RFC 3339, informational
}
