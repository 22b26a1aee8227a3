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

func CreateStaff(ctx context.Context, s *models.Staff) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	res, err := staff().InsertOne(ctx, s)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	s.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func ListStaffByProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.Staff, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := staff().Find(ctx, bson.M{"provider": providerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Staff
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}
	return out, nil
}

func GetStaff(ctx context.Context, id primitive.ObjectID) (*models.Staff, error) {
	var s models.Staff
	err := staff().FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff %s: %w", id.Hex(), err)
	}
	return &s, nil
}

func DeleteStaff(ctx context.Context, id primitive.ObjectID) error {
	res, err := staff().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete staff %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
