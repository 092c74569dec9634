// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published after a booking transaction commits.
// It carries enough information for downstream consumers to log, notify
// or feed dispatch planning without querying the primary database.  It is
// published strictly after commit: a rolled-back booking never produces
// an event.
type BookingCreatedEvent struct {
	BookingID    uint64   `json:"booking_id"`
	BillNumber   string   `json:"bill_number"`
	CustomerName string   `json:"customer_name"`
	AgentName    string   `json:"agent_name"`
	FromPlace    string   `json:"from"`
	ToPlace      string   `json:"to"`
	Through      string   `json:"through"`
	TotalCases   int64    `json:"total_cases"`
	Products     []string `json:"products"`
	GrandTotal   string   `json:"grand_total"`
	CreatedAt    string   `json:"created_at"`
}
