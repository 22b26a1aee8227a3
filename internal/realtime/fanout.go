package realtime

import (
	"context"
	"time"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/queue"
	"backend-smartqueue/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PublishProviderQueue recomputes the provider's projection from the store
// and pushes it to the provider room, together with the status summary.
// Called after every mutation that changes the queue shape; callers only
// invoke it once the mutation has been persisted, so a push never implies
// a write that did not happen. Concurrent calls are safe: each one reads
// fresh state, the later push supersedes the earlier.
func PublishProviderQueue(providerID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log := config.Logger()

	provider, err := store.GetUserByID(ctx, providerID)
	if err != nil {
		log.Warn("fanout: provider lookup failed",
			zap.String("provider", providerID.Hex()), zap.Error(err))
		return
	}

	entries, err := store.ActiveQueue(ctx, providerID, models.ActiveStatuses)
	if err != nil {
		log.Warn("fanout: queue fetch failed",
			zap.String("provider", providerID.Hex()), zap.Error(err))
		return
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	queue.Project(entries, provider.StaffCount)

	Emit(ProviderRoom(providerID.Hex()), "queueUpdated", entries)

	summary, err := store.CountByStatus(ctx, providerID)
	if err != nil {
		log.Warn("fanout: summary failed",
			zap.String("provider", providerID.Hex()), zap.Error(err))
	} else {
		Emit(ProviderRoom(providerID.Hex()), "summaryUpdated", summary)
	}

	notifyQueueHead(ctx, provider, entries)
}

// PublishAppointmentCreated pushes a fresh booking to its owner's channel.
func PublishAppointmentCreated(userID primitive.ObjectID, appt *models.Appointment) {
	Emit(UserRoom(userID.Hex()), "appointmentCreated", appt)
}

// PublishAppointmentUpdated pushes a status change to the owner's channel.
func PublishAppointmentUpdated(userID primitive.ObjectID, appt *models.Appointment) {
	Emit(UserRoom(userID.Hex()), "appointmentUpdated", appt)
}
