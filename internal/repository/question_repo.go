package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowddeck/internal/model"
)

// QuestionRepo persists questions. State flips are filtered on the expected
// prior state so concurrent presenter actions cannot skip the transition
// table.
type QuestionRepo interface {
	Create(ctx context.Context, question *model.Question) error
	GetByID(ctx context.Context, id string) (*model.Question, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error)
	UpdateState(ctx context.Context, id string, from []model.QuestionState, to model.QuestionState, activatedAt *time.Time) (bool, error)
	// Activate swaps the session's active-question pointer, closes every
	// other live or locked question, and flips the target to live in one
	// transaction. Returns false when the session is not active.
	Activate(ctx context.Context, sessionID, questionID string, from []model.QuestionState, at time.Time) (bool, error)
}

type questionRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	sessions   *mongo.Collection
}

// NewQuestionRepo creates a new question repository.
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		client:     db.Client(),
		collection: db.Collection(colQuestions),
		sessions:   db.Collection(colSessions),
	}
}

func (r *questionRepo) Create(ctx context.Context, question *model.Question) error {
	_, err := r.collection.InsertOne(ctx, question)
	return err
}

func (r *questionRepo) GetByID(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&question)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var questions []*model.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// UpdateState flips the question state if it currently holds one of the
// expected states. Returns false when the precondition failed.
func (r *questionRepo) UpdateState(ctx context.Context, id string, from []model.QuestionState, to model.QuestionState, activatedAt *time.Time) (bool, error) {
	set := bson.M{"state": to}
	if activatedAt != nil {
		set["activatedAt"] = activatedAt
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "state": bson.M{"$in": from}},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Activate performs the activation as a single transaction so two concurrent
// activations cannot interleave into a state where the pointer names one
// question while another is live. A target already live is left alone, which
// makes a repeated activation idempotent.
func (r *questionRepo) Activate(ctx context.Context, sessionID, questionID string, from []model.QuestionState, at time.Time) (bool, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return false, fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	swapped, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.sessions.UpdateOne(sc,
			bson.M{"_id": sessionID, "status": model.SessionActive},
			bson.M{"$set": bson.M{"currentQuestionId": questionID}})
		if err != nil {
			return false, err
		}
		if res.MatchedCount == 0 {
			return false, nil
		}

		_, err = r.collection.UpdateMany(sc,
			bson.M{
				"sessionId": sessionID,
				"_id":       bson.M{"$ne": questionID},
				"state":     bson.M{"$in": bson.A{model.QuestionLive, model.QuestionLocked}},
			},
			bson.M{"$set": bson.M{"state": model.QuestionClosed}})
		if err != nil {
			return false, err
		}

		_, err = r.collection.UpdateOne(sc,
			bson.M{"_id": questionID, "state": bson.M{"$in": from}},
			bson.M{"$set": bson.M{"state": model.QuestionLive, "activatedAt": at}})
		if err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	return swapped.(bool), nil
}
