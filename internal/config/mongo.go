package config

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	Mongo   *mongo.Client
	MongoDB *mongo.Database
)

func InitMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(os.Getenv("MONGO_URI"))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		Logger().Fatal("mongodb connect failed", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		Logger().Fatal("mongodb not reachable", zap.Error(err))
	}

	Mongo = client
	MongoDB = client.Database(GetEnv("MONGO_DB", "smartqueue"))
	Logger().Info("mongodb connected", zap.String("db", MongoDB.Name()))
}

func CloseMongo() {
	if Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = Mongo.Disconnect(ctx)
}
