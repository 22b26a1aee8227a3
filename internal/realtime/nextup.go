package realtime

import (
	"context"
	"errors"
	"fmt"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/mailer"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/queue"
	"backend-smartqueue/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// headTracker remembers the appointment holding position 1 per provider,
// so recomputations only announce an actual change of occupant.
type headTracker interface {
	Previous(ctx context.Context, providerID string) (id string, known bool, err error)
	Remember(ctx context.Context, providerID, id string) error
	Forget(ctx context.Context, providerID string) error
}

const queueHeadKeyPrefix = "queue:head:"

// redisHeadTracker keeps head state in Redis so a process restart does
// not re-announce a head that was already notified.
type redisHeadTracker struct{}

func (redisHeadTracker) Previous(ctx context.Context, providerID string) (string, bool, error) {
	id, err := config.Redis.Get(ctx, queueHeadKeyPrefix+providerID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (redisHeadTracker) Remember(ctx context.Context, providerID, id string) error {
	return config.Redis.Set(ctx, queueHeadKeyPrefix+providerID, id, 0).Err()
}

func (redisHeadTracker) Forget(ctx context.Context, providerID string) error {
	return config.Redis.Del(ctx, queueHeadKeyPrefix+providerID).Err()
}

var heads headTracker = redisHeadTracker{}

// resolveQueueHead compares the recomputed queue front against the
// tracker and returns the entry to announce, or nil when nothing changed
// hands. Edge-triggered: an unchanged occupant stays silent no matter how
// often the queue is recomputed, an empty queue resets the tracker, and
// unknown tracker state (first run, cold store) announces the current
// head once.
func resolveQueueHead(ctx context.Context, t headTracker, providerID string, entries []models.QueueEntry) (*models.QueueEntry, error) {
	head := queue.FirstBooked(entries)
	if head == nil {
		return nil, t.Forget(ctx, providerID)
	}

	headID := head.ID.Hex()
	prev, known, err := t.Previous(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if known && prev == headID {
		return nil, nil // same occupant, nothing new to announce
	}

	if err := t.Remember(ctx, providerID, headID); err != nil {
		return nil, err
	}
	return head, nil
}

// notifyQueueHead fires the "you are next" notification when position 1
// changes hands.
func notifyQueueHead(ctx context.Context, provider *models.User, entries []models.QueueEntry) {
	log := config.Logger()

	head, err := resolveQueueHead(ctx, heads, provider.ID.Hex(), entries)
	if err != nil {
		log.Warn("next-up: head tracking failed",
			zap.String("provider", provider.ID.Hex()), zap.Error(err))
		return
	}
	if head == nil {
		return
	}

	serviceName := provider.ServiceName
	if serviceName == "" {
		serviceName = provider.FullName
	}
	if serviceName == "" {
		serviceName = "Service"
	}

	notif := &models.Notification{
		UserID: head.UserID,
		Text:   fmt.Sprintf("You are next at %s. Please proceed to the counter.", serviceName),
		Data:   map[string]any{"appointmentId": head.ID.Hex()},
	}
	if err := store.CreateNotification(ctx, notif); err != nil {
		log.Warn("next-up: notification create failed", zap.Error(err))
	}

	if head.Customer.Email != "" {
		customerName := head.Customer.FullName
		if customerName == "" {
			customerName = "User"
		}
		mailer.SendAsync(
			head.Customer.Email,
			"You are Next in Queue",
			fmt.Sprintf(
				`<h2>Hello %s,</h2>
				<p>You are next in line for <b>%s</b>.</p>
				<p>Please proceed to the counter now.</p>
				<p>Thank you,<br/>SmartQueue</p>`,
				customerName, serviceName,
			),
		)
	}
}
