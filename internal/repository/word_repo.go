package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"crowddeck/internal/model"
)

// WordRepo persists word cloud submissions. A participant may submit several
// words, so there is no dedup key here; MaxWords is enforced by count.
type WordRepo interface {
	Create(ctx context.Context, word *model.WordSubmission) error
	ListByQuestion(ctx context.Context, questionID string) ([]*model.WordSubmission, error)
	CountByParticipant(ctx context.Context, questionID, participantID string) (int64, error)
}

type wordRepo struct {
	collection *mongo.Collection
}

// NewWordRepo creates a new word submission repository.
func NewWordRepo(db *mongo.Database) WordRepo {
	return &wordRepo{collection: db.Collection(colWordSubmissions)}
}

func (r *wordRepo) Create(ctx context.Context, word *model.WordSubmission) error {
	_, err := r.collection.InsertOne(ctx, word)
	return err
}

func (r *wordRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.WordSubmission, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var words []*model.WordSubmission
	if err := cursor.All(ctx, &words); err != nil {
		return nil, err
	}
	return words, nil
}

func (r *wordRepo) CountByParticipant(ctx context.Context, questionID, participantID string) (int64, error) {
	return r.collection.CountDocuments(ctx,
		bson.M{"questionId": questionID, "participantId": participantID})
}
