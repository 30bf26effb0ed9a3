package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
)

// ResponseRepo persists responses. The unique (questionId, participantId)
// index is the authoritative at-most-once guarantee; the duplicate-key error
// is converted to apperr.ErrDuplicateResponse at this boundary.
type ResponseRepo interface {
	// InsertScored writes the response and, for score > 0, increments the
	// participant's totalScore in the same transaction.
	InsertScored(ctx context.Context, response *model.Response) error
	Exists(ctx context.Context, questionID, participantID string) (bool, error)
	ListByQuestion(ctx context.Context, questionID string) ([]*model.Response, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error)
	CountByQuestion(ctx context.Context, questionID string) (int64, error)
}

type responseRepo struct {
	client       *mongo.Client
	collection   *mongo.Collection
	participants *mongo.Collection
}

// NewResponseRepo creates a new response repository.
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		client:       db.Client(),
		collection:   db.Collection(colResponses),
		participants: db.Collection(colParticipants),
	}
}

func (r *responseRepo) InsertScored(ctx context.Context, response *model.Response) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.collection.InsertOne(sc, response); err != nil {
			return nil, err
		}
		if response.Score > 0 {
			_, err := r.participants.UpdateOne(sc,
				bson.M{"_id": response.ParticipantID},
				bson.M{"$inc": bson.M{"totalScore": response.Score}})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("response for question %s: %w", response.QuestionID, apperr.ErrDuplicateResponse)
	}
	return err
}

// Exists is a cheap pre-check only; the unique index remains authoritative.
func (r *responseRepo) Exists(ctx context.Context, questionID, participantID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"questionId": questionID, "participantId": participantID})
	return n > 0, err
}

func (r *responseRepo) ListByQuestion(ctx context.Context, questionID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"questionId": questionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *responseRepo) CountByQuestion(ctx context.Context, questionID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"questionId": questionID})
}
