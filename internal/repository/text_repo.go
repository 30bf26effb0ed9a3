package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowddeck/internal/model"
)

// TextRepo persists open-ended text responses and their moderation state.
type TextRepo interface {
	Create(ctx context.Context, text *model.TextResponse) error
	ListByQuestion(ctx context.Context, questionID string, states []model.ModerationState) ([]*model.TextResponse, error)
	SetModeration(ctx context.Context, id string, state model.ModerationState) (bool, error)
}

type textRepo struct {
	collection *mongo.Collection
}

// NewTextRepo creates a new text response repository.
func NewTextRepo(db *mongo.Database) TextRepo {
	return &textRepo{collection: db.Collection(colTextResponses)}
}

func (r *textRepo) Create(ctx context.Context, text *model.TextResponse) error {
	_, err := r.collection.InsertOne(ctx, text)
	return err
}

// ListByQuestion returns texts in submission order, optionally filtered to a
// set of moderation states. An empty states slice returns everything, which
// is the moderator view.
func (r *textRepo) ListByQuestion(ctx context.Context, questionID string, states []model.ModerationState) ([]*model.TextResponse, error) {
	filter := bson.M{"questionId": questionID}
	if len(states) > 0 {
		filter["moderation"] = bson.M{"$in": states}
	}
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var texts []*model.TextResponse
	if err := cursor.All(ctx, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

func (r *textRepo) SetModeration(ctx context.Context, id string, state model.ModerationState) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"moderation": state}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
