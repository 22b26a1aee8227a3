package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-smartqueue/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func CreateNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now

	res, err := notifications().InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListNotifications pages a user's notifications newest first and returns
// the total alongside the page.
func ListNotifications(ctx context.Context, userID primitive.ObjectID, limit, skip int64) ([]models.Notification, int64, error) {
	filter := bson.M{"user": userID}

	total, err := notifications().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := notifications().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return out, total, nil
}

func MarkAllNotificationsRead(ctx context.Context, userID primitive.ObjectID) error {
	_, err := notifications().UpdateMany(ctx,
		bson.M{"user": userID, "read": false},
		bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func MarkNotificationRead(ctx context.Context, id, userID primitive.ObjectID) (*models.Notification, error) {
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Notification
	err := notifications().FindOneAndUpdate(ctx, bson.M{"_id": id, "user": userID}, update, opts).Decode(&n)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to mark notification %s read: %w", id.Hex(), err)
	}
	return &n, nil
}

func DeleteNotification(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := notifications().DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func ClearNotifications(ctx context.Context, userID primitive.ObjectID) error {
	_, err := notifications().DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}
