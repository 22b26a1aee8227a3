package queue

import (
	"errors"

	"backend-smartqueue/internal/models"
)

var (
	// ErrInvalidTransition means the requested status change is not legal
	// from the appointment's current state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden means the acting role may not request this transition.
	ErrForbidden = errors.New("role not allowed for this transition")
)

type rule struct {
	from []string
	role string
}

// rules maps each target status to the states it may be entered from and
// the single role allowed to request it. Terminal states never appear in
// any from-set, so nothing leaves served/cancelled/no-show.
var rules = map[string]rule{
	models.StatusServing:   {from: []string{models.StatusBooked}, role: models.RoleProvider},
	models.StatusServed:    {from: []string{models.StatusServing}, role: models.RoleProvider},
	models.StatusNoShow:    {from: []string{models.StatusBooked, models.StatusServing}, role: models.RoleProvider},
	models.StatusCancelled: {from: []string{models.StatusBooked}, role: models.RoleCustomer},
}

// Check validates that role may move an appointment from its current
// status into to.
func Check(from, to, role string) error {
	r, ok := rules[to]
	if !ok {
		return ErrInvalidTransition
	}
	if r.role != role {
		return ErrForbidden
	}
	for _, f := range r.from {
		if f == from {
			return nil
		}
	}
	return ErrInvalidTransition
}

// AllowedFrom returns the prior statuses from which to may be entered.
// The store uses this set as the conditional-update filter so the state
// machine is enforced at the point of write, not only in handler code.
func AllowedFrom(to string) ([]string, bool) {
	r, ok := rules[to]
	if !ok {
		return nil, false
	}
	return r.from, true
}
