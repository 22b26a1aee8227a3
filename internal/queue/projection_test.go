package queue

import (
	"testing"
	"time"

	"backend-smartqueue/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func entry(id primitive.ObjectID, status string, created time.Time) models.QueueEntry {
	return models.QueueEntry{
		Appointment: models.Appointment{
			ID:        id,
			Status:    status,
			CreatedAt: created,
		},
	}
}

func entries(statuses ...string) []models.QueueEntry {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	out := make([]models.QueueEntry, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, entry(primitive.NewObjectID(), s, base.Add(time.Duration(i)*time.Minute)))
	}
	return out
}

func TestConcurrencyFloor(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-1, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{7, 7},
	}
	for _, tt := range tests {
		if got := Concurrency(tt.in); got != tt.want {
			t.Errorf("Concurrency(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEstimate(t *testing.T) {
	tests := []struct {
		position, concurrency, want int
	}{
		{1, 1, 10},
		{2, 1, 20},
		{1, 2, 5},
		{2, 2, 10},
		{3, 2, 15},
		{1, 3, 4}, // ceil(10/3)
		{2, 3, 7}, // ceil(20/3)
		{5, 4, 13},
	}
	for _, tt := range tests {
		if got := Estimate(tt.position, tt.concurrency); got != tt.want {
			t.Errorf("Estimate(%d, %d) = %d, want %d", tt.position, tt.concurrency, got, tt.want)
		}
	}
}

func TestProjectPositionsContiguous(t *testing.T) {
	q := Project(entries("booked", "booked", "booked", "booked"), 1)

	for i, e := range q {
		if e.Position == nil || *e.Position != i+1 {
			t.Fatalf("entry %d: want position %d, got %v", i, i+1, e.Position)
		}
	}
}

func TestProjectThreeBookedTwoStaff(t *testing.T) {
	// Provider with staff_count = 2, bookings A, B, C in arrival order.
	q := Project(entries("booked", "booked", "booked"), 2)

	wantWait := []int{5, 10, 15}
	for i, e := range q {
		if e.Position == nil || *e.Position != i+1 {
			t.Fatalf("entry %d: want position %d, got %v", i, i+1, e.Position)
		}
		if e.EstimatedWaitMins == nil || *e.EstimatedWaitMins != wantWait[i] {
			t.Fatalf("entry %d: want wait %d, got %v", i, wantWait[i], e.EstimatedWaitMins)
		}
	}
}

func TestProjectServingCarriesNoPosition(t *testing.T) {
	// A advanced to serving: B moves to position 1, C to position 2, A stays
	// in the view with no position or estimate.
	q := Project(entries("serving", "booked", "booked"), 2)

	if q[0].Position != nil || q[0].EstimatedWaitMins != nil {
		t.Fatalf("serving entry should carry no position/estimate, got %v/%v",
			q[0].Position, q[0].EstimatedWaitMins)
	}
	if q[1].Position == nil || *q[1].Position != 1 || *q[1].EstimatedWaitMins != 5 {
		t.Fatalf("B: want position 1 wait 5, got %v/%v", q[1].Position, q[1].EstimatedWaitMins)
	}
	if q[2].Position == nil || *q[2].Position != 2 || *q[2].EstimatedWaitMins != 10 {
		t.Fatalf("C: want position 2 wait 10, got %v/%v", q[2].Position, q[2].EstimatedWaitMins)
	}
}

func TestProjectWaitMonotonic(t *testing.T) {
	for c := 1; c <= 5; c++ {
		q := Project(entries("booked", "booked", "booked", "booked", "booked", "booked"), c)
		prev := 0
		for _, e := range q {
			if *e.EstimatedWaitMins < prev {
				t.Fatalf("c=%d: wait decreased from %d to %d", c, prev, *e.EstimatedWaitMins)
			}
			prev = *e.EstimatedWaitMins
		}
	}

	// Fixed position, increasing concurrency: wait never grows.
	prev := Estimate(4, 1)
	for c := 2; c <= 8; c++ {
		w := Estimate(4, c)
		if w > prev {
			t.Fatalf("wait grew from %d to %d when concurrency rose to %d", prev, w, c)
		}
		prev = w
	}
}

func TestProjectIdempotent(t *testing.T) {
	in := entries("booked", "serving", "booked")

	first := Project(in, 2)
	snapshot := make([]models.QueueEntry, len(first))
	copy(snapshot, first)

	second := Project(first, 2)
	for i := range second {
		a, b := snapshot[i], second[i]
		if (a.Position == nil) != (b.Position == nil) {
			t.Fatalf("entry %d: position nilness changed between runs", i)
		}
		if a.Position != nil && *a.Position != *b.Position {
			t.Fatalf("entry %d: position changed %d -> %d", i, *a.Position, *b.Position)
		}
		if a.EstimatedWaitMins != nil && *a.EstimatedWaitMins != *b.EstimatedWaitMins {
			t.Fatalf("entry %d: estimate changed %d -> %d", i, *a.EstimatedWaitMins, *b.EstimatedWaitMins)
		}
	}
}

func TestProjectEmptyQueue(t *testing.T) {
	if got := Project(nil, 3); len(got) != 0 {
		t.Fatalf("empty queue should stay empty, got %d entries", len(got))
	}
}

func TestFind(t *testing.T) {
	q := Project(entries("booked", "booked"), 1)

	found := Find(q, q[1].ID)
	if found == nil || *found.Position != 2 {
		t.Fatalf("want entry at position 2, got %v", found)
	}

	if Find(q, primitive.NewObjectID()) != nil {
		t.Fatal("unknown id should not be found")
	}
}

func TestFirstBooked(t *testing.T) {
	if FirstBooked(nil) != nil {
		t.Fatal("empty queue has no head")
	}

	q := entries("serving", "booked", "booked")
	head := FirstBooked(q)
	if head == nil || head.ID != q[1].ID {
		t.Fatal("head should skip serving entries")
	}

	if FirstBooked(entries("serving", "serving")) != nil {
		t.Fatal("queue with only serving entries has no head")
	}
}
