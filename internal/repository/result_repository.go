package repository

import (
	"context"

	"quizbank/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("practice-results")}
}

// FindRecent returns results newest first. A limit of 0 returns everything.
func (r *ResultRepository) FindRecent(ctx context.Context, limit int64) ([]models.QuizResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.Col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []models.QuizResult{}
	for cur.Next(ctx) {
		var res models.QuizResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

func (r *ResultRepository) Create(ctx context.Context, result *models.QuizResult) error {
	result.ID = ""
	res, err := r.Col.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	result.ID = insertedHex(res.InsertedID)
	return nil
}

func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResultRepository) Count(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{})
}
