package repository

import (
	"context"
	"errors"
	"time"

	"quizbank/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

// FindAll lists the bank, optionally restricted to one category.
func (r *QuestionRepository) FindAll(ctx context.Context, category string) ([]models.Question, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	questions := []models.Question{}
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, cur.Err()
}

func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var question models.Question
	err = r.Col.FindOne(ctx, bson.M{"_id": objID}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// FindByContent looks for an exact text match.
func (r *QuestionRepository) FindByContent(ctx context.Context, content string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"content": content}).Decode(&question)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	question.ID = ""
	res, err := r.Col.InsertOne(ctx, question)
	if err != nil {
		return err
	}
	// Gán lại ObjectID vào question
	question.ID = insertedHex(res.InsertedID)
	return nil
}

func (r *QuestionRepository) CreateMany(ctx context.Context, questions []models.Question) ([]string, error) {
	if len(questions) == 0 {
		return []string{}, nil
	}
	docs := make([]interface{}, len(questions))
	for i := range questions {
		questions[i].ID = ""
		docs[i] = questions[i]
	}
	res, err := r.Col.InsertMany(ctx, docs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = insertedHex(id)
		questions[i].ID = ids[i]
	}
	return ids, nil
}

// Update overwrites the mutable fields of an existing question.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	objID, err := objectID(question.ID)
	if err != nil {
		return err
	}
	update := bson.M{
		"content":       question.Content,
		"options":       question.Options,
		"correctAnswer": question.CorrectAnswer,
		"category":      question.Category,
		"difficulty":    question.Difficulty,
		"updatedAt":     question.UpdatedAt,
	}
	if question.UpdatedAt.IsZero() {
		update["updatedAt"] = time.Now()
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
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

func (r *QuestionRepository) Count(ctx context.Context) (int64, error) {
	return r.Col.CountDocuments(ctx, bson.M{})
}
