package mongo

import (
	"context"
	"fmt"
	"log"
	"time"

	"quizbank/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	QuestionsCollection       = "questions"
	PracticeResultsCollection = "practice-results"
)

var (
	Client   *mongo.Client
	Database *mongo.Database
)

func InitMongoDB(cfg *config.MongoDBConfig) error {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.PoolSize).
		SetConnectTimeout(cfg.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Printf("Error connecting to MongoDB: %v", err)
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := Client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Printf("Error pinging MongoDB: %v", err)
		return err
	}

	Database = Client.Database(cfg.Database)
	log.Printf("Successfully connected to MongoDB database: %s", cfg.Database)

	return nil
}

// CreateIndexes mirrors the lookups the API performs: exact content match,
// category filter and newest-first result listing.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(QuestionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "content", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create question indexes: %w", err)
	}

	_, err = db.Collection(PracticeResultsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create practice result indexes: %w", err)
	}
	return nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context) error {
	if Client == nil {
		return fmt.Errorf("database not connected")
	}
	return Client.Ping(ctx, readpref.Primary())
}

func CloseDB() {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := Client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
}
