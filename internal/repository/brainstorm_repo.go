package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"crowddeck/internal/model"
)

// BrainstormRepo persists ideas and their votes. Votes are a toggle keyed by
// the unique (ideaId, participantId) index: the insert either lands (vote
// on) or collides, in which case the existing vote is removed (vote off).
// Two rapid toggles therefore net out instead of double counting.
type BrainstormRepo interface {
	CreateIdea(ctx context.Context, idea *model.BrainstormIdea) error
	GetIdea(ctx context.Context, id string) (*model.BrainstormIdea, error)
	ListIdeas(ctx context.Context, questionID string) ([]*model.BrainstormIdea, error)
	// ToggleVote flips the participant's vote on the idea and returns whether
	// the vote is now on, plus the idea's new count.
	ToggleVote(ctx context.Context, ideaID, questionID, participantID string, at time.Time) (bool, int, error)
}

type brainstormRepo struct {
	ideas *mongo.Collection
	votes *mongo.Collection
}

// NewBrainstormRepo creates a new brainstorm repository.
func NewBrainstormRepo(db *mongo.Database) BrainstormRepo {
	return &brainstormRepo{
		ideas: db.Collection(colBrainstormIdeas),
		votes: db.Collection(colBrainstormVotes),
	}
}

func (r *brainstormRepo) CreateIdea(ctx context.Context, idea *model.BrainstormIdea) error {
	_, err := r.ideas.InsertOne(ctx, idea)
	return err
}

func (r *brainstormRepo) GetIdea(ctx context.Context, id string) (*model.BrainstormIdea, error) {
	var idea model.BrainstormIdea
	err := r.ideas.FindOne(ctx, bson.M{"_id": id}).Decode(&idea)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// ListIdeas returns ideas ordered by vote count descending, then submission
// time ascending.
func (r *brainstormRepo) ListIdeas(ctx context.Context, questionID string) ([]*model.BrainstormIdea, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "voteCount", Value: -1},
		{Key: "submittedAt", Value: 1},
	})
	cursor, err := r.ideas.Find(ctx, bson.M{"questionId": questionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ideas []*model.BrainstormIdea
	if err := cursor.All(ctx, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *brainstormRepo) ToggleVote(ctx context.Context, ideaID, questionID, participantID string, at time.Time) (bool, int, error) {
	vote := &model.BrainstormVote{
		ID:            uuid.New().String(),
		IdeaID:        ideaID,
		QuestionID:    questionID,
		ParticipantID: participantID,
		CreatedAt:     at,
	}

	_, err := r.votes.InsertOne(ctx, vote)
	switch {
	case err == nil:
		count, err := r.adjustCount(ctx, ideaID, 1)
		return true, count, err
	case mongo.IsDuplicateKeyError(err):
		// Vote already on: this toggle turns it off. If a concurrent unvote
		// got there first the delete matches nothing and the count stands.
		res, err := r.votes.DeleteOne(ctx, bson.M{"ideaId": ideaID, "participantId": participantID})
		if err != nil {
			return false, 0, err
		}
		if res.DeletedCount == 0 {
			count, err := r.currentCount(ctx, ideaID)
			return false, count, err
		}
		count, err := r.adjustCount(ctx, ideaID, -1)
		return false, count, err
	default:
		return false, 0, err
	}
}

func (r *brainstormRepo) adjustCount(ctx context.Context, ideaID string, delta int) (int, error) {
	var idea model.BrainstormIdea
	err := r.ideas.FindOneAndUpdate(ctx,
		bson.M{"_id": ideaID},
		bson.M{"$inc": bson.M{"voteCount": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&idea)
	if err != nil {
		return 0, err
	}
	return idea.VoteCount, nil
}

func (r *brainstormRepo) currentCount(ctx context.Context, ideaID string) (int, error) {
	idea, err := r.GetIdea(ctx, ideaID)
	if err != nil || idea == nil {
		return 0, err
	}
	return idea.VoteCount, nil
}
