// Package store is the Mongo data-access layer. The appointment collection
// is the single source of truth for queue membership; everything the queue
// projection shows is recomputed from it on demand.
package store

import (
	"context"
	"errors"
	"time"

	"backend-smartqueue/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStatusConflict means a conditional status write matched the id but
	// not the expected prior status: the transition lost a race or was
	// illegal from the current state.
	ErrStatusConflict = errors.New("status conflict")
)

func appointments() *mongo.Collection  { return config.MongoDB.Collection("appointments") }
func users() *mongo.Collection         { return config.MongoDB.Collection("users") }
func staff() *mongo.Collection         { return config.MongoDB.Collection("staff") }
func notifications() *mongo.Collection { return config.MongoDB.Collection("notifications") }

// EnsureIndexes creates the indexes the hot paths rely on: unique email
// for users, (provider, status, created_at) for queue recomputation.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := users().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = appointments().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "provider", Value: 1},
			{Key: "status", Value: 1},
			{Key: "created_at", Value: 1},
		},
	})
	if err != nil {
		return err
	}

	_, err = notifications().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}
