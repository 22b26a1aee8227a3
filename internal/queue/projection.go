// Package queue holds the pure queue logic: the position/wait projection
// and the appointment status state machine. Nothing here touches the
// database or the socket layer, so every rule is unit-testable.
package queue

import (
	"backend-smartqueue/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BasePerAppointmentMins is the fixed per-appointment service estimate the
// wait computation is built on.
const BasePerAppointmentMins = 10

// Concurrency clamps a provider's staff count to the minimum effective
// value of 1. Zero or negative counts (profile never filled in) must not
// zero out the estimate.
func Concurrency(staffCount int) int {
	if staffCount < 1 {
		return 1
	}
	return staffCount
}

// Estimate returns the wait in minutes for a 1-based queue position given
// the provider concurrency: ceil(position * base / concurrency).
func Estimate(position, concurrency int) int {
	return (position*BasePerAppointmentMins + concurrency - 1) / concurrency
}

// Project assigns 1-based positions and wait estimates to the booked
// entries of a provider queue. Entries must already be ordered ascending
// by created_at (arrival order). Serving entries pass through untouched:
// they occupy a service slot, not a waiting position. Returns the same
// slice for convenience.
func Project(entries []models.QueueEntry, staffCount int) []models.QueueEntry {
	c := Concurrency(staffCount)

	pos := 0
	for i := range entries {
		if entries[i].Status != models.StatusBooked {
			continue
		}
		pos++
		p := pos
		w := Estimate(p, c)
		entries[i].Position = &p
		entries[i].EstimatedWaitMins = &w
	}
	return entries
}

// Find locates an appointment inside a projected queue. Returns nil when
// the appointment is not part of the active queue (terminal state or wrong
// provider); callers surface that as a null position/estimate.
func Find(entries []models.QueueEntry, id primitive.ObjectID) *models.QueueEntry {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i]
		}
	}
	return nil
}

// FirstBooked returns the current occupant of position 1, or nil for an
// empty queue. The edge-triggered "you are next" notification keys off
// changes of this entry's identity.
func FirstBooked(entries []models.QueueEntry) *models.QueueEntry {
	for i := range entries {
		if entries[i].Status == models.StatusBooked {
			return &entries[i]
		}
	}
	return nil
}
