// Package handler implements the HTTP surface. Handlers validate input,
// apply the mutation through the store, then hand off to the realtime
// fan-out and the mail/notification sink. Side effects only run after the
// write has succeeded.
package handler

import (
	"context"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// principalID resolves the authenticated user id set by the JWT middleware.
func principalID(c *fiber.Ctx) (primitive.ObjectID, bool) {
	raw, _ := c.Locals("user_id").(string)
	id, err := primitive.ObjectIDFromHex(raw)
	return id, err == nil
}

// notify records an in-app notification. Best-effort: a failed insert is
// logged and never fails the request that triggered it.
func notify(ctx context.Context, userID primitive.ObjectID, text string, data map[string]any) {
	n := &models.Notification{UserID: userID, Text: text, Data: data}
	if err := store.CreateNotification(ctx, n); err != nil {
		config.Logger().Warn("notification create failed",
			zap.String("user", userID.Hex()), zap.Error(err))
	}
}
