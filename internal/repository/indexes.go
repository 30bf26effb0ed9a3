package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	colSessions        = "sessions"
	colQuestions       = "questions"
	colParticipants    = "participants"
	colResponses       = "responses"
	colWordSubmissions = "word_submissions"
	colTextResponses   = "text_responses"
	colBrainstormIdeas = "brainstorm_ideas"
	colBrainstormVotes = "brainstorm_votes"
)

// EnsureIndexes creates the uniqueness constraints the engine depends on.
// These are load-bearing: response dedup, reconnect idempotence and vote
// toggling are all arbitrated here, not in application code.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{
			// Join codes are unique among sessions that can still be joined.
			collection: colSessions,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "joinCode", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": bson.M{"$in": bson.A{"active", "paused"}}}),
			},
		},
		{
			collection: colQuestions,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "displayOrder", Value: 1}},
			},
		},
		{
			// One participant row per identity per session.
			collection: colParticipants,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "identityToken", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			// At most one response per (question, participant).
			collection: colResponses,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "questionId", Value: 1}, {Key: "participantId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: colWordSubmissions,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "questionId", Value: 1}},
			},
		},
		{
			collection: colTextResponses,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "questionId", Value: 1}, {Key: "moderation", Value: 1}},
			},
		},
		{
			collection: colBrainstormIdeas,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "questionId", Value: 1}},
			},
		},
		{
			// One vote per (idea, participant); the toggle flips it.
			collection: colBrainstormVotes,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "ideaId", Value: 1}, {Key: "participantId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for _, idx := range indexes {
		if _, err := db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}
