package models

import "time"

// SweepReport итог одного прохода рассылки по всем клиентам.
type SweepReport struct {
	SweepID          string    `json:"sweep_id"`
	Total            int       `json:"total"`
	Eligible         int       `json:"eligible"`
	Sent             int       `json:"sent"`
	Failed           int       `json:"failed"`
	FailedRecipients []string  `json:"failed_recipients,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// OutboundMessage сообщение, которое уходит в очередь для отправителя.
type OutboundMessage struct {
	MessageID string    `json:"message_id"`
	Phone     string    `json:"phone"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
