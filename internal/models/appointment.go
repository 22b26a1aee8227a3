package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusBooked    = "booked"
	StatusServing   = "serving"
	StatusServed    = "served"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
)

// ActiveStatuses are the non-terminal statuses that keep an appointment in
// a provider's queue.
var ActiveStatuses = []string{StatusBooked, StatusServing}

// TerminalStatus reports whether no further transitions are allowed.
func TerminalStatus(status string) bool {
	switch status {
	case StatusServed, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     primitive.ObjectID `bson:"user" json:"user"`
	ProviderID primitive.ObjectID `bson:"provider" json:"provider"`
	Datetime   time.Time          `bson:"datetime" json:"datetime"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// QueueEntry is the provider-facing projection of an appointment: the
// record plus a customer summary and the derived position/estimate.
// Position and EstimatedWaitMins stay nil for entries already being served.
// Never persisted; recomputed from scratch on every query and mutation.
type QueueEntry struct {
	Appointment `bson:",inline"`
	Customer    CustomerInfo `bson:"customer" json:"customer"`

	Position          *int `bson:"-" json:"position"`
	EstimatedWaitMins *int `bson:"-" json:"estimated_wait_mins"`
}

// AppointmentView is the customer-facing shape: the record plus a provider
// summary and, on the status endpoint, the caller's own position/estimate.
type AppointmentView struct {
	Appointment `bson:",inline"`
	Provider    ProviderInfo `bson:"provider_info" json:"provider_info"`

	Position          *int `bson:"-" json:"position"`
	EstimatedWaitMins *int `bson:"-" json:"estimated_wait_mins"`
}

// AdminAppointment annotates a record with both parties for admin listings.
type AdminAppointment struct {
	Appointment `bson:",inline"`
	Customer    CustomerInfo `bson:"customer" json:"customer"`
	Provider    ProviderInfo `bson:"provider_info" json:"provider_info"`
}

// ProviderSummary is the per-provider status breakdown pushed alongside the
// queue and served on the summary endpoint.
type ProviderSummary struct {
	Booked    int `bson:"booked" json:"booked"`
	Served    int `bson:"served" json:"served"`
	Cancelled int `bson:"cancelled" json:"cancelled"`
	InQueue   int `bson:"inQueue" json:"inQueue"`
}

type BookAppointmentRequest struct {
	ProviderID string `json:"providerId"`
}

type QueueActionRequest struct {
	Action string `json:"action"` // serving, served, no-show
}

// DayCount is one bucket of the provider booking history chart.
type DayCount struct {
	Day          string `json:"day"` // MM-DD
	Appointments int    `json:"appointments"`
}
