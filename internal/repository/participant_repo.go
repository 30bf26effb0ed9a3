package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"crowddeck/internal/model"
)

// ErrIdentityTaken is returned when the (sessionId, identityToken) insert
// loses to a concurrent attach of the same identity.
var ErrIdentityTaken = errors.New("identity already attached")

// ParticipantRepo persists participants. The unique (sessionId,
// identityToken) index makes the first attach win when the same identity
// races on two connections; the loser retries as a lookup.
type ParticipantRepo interface {
	Create(ctx context.Context, participant *model.Participant) error
	GetByID(ctx context.Context, id string) (*model.Participant, error)
	GetByToken(ctx context.Context, sessionID, identityToken string) (*model.Participant, error)
	Rebind(ctx context.Context, id, connectionID, nickname string, at time.Time) error
	DetachConnection(ctx context.Context, connectionID string, at time.Time) (*model.Participant, error)
	SoftRemove(ctx context.Context, id string) error
	CountConnected(ctx context.Context, sessionID string) (int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]*model.Participant, error)
}

type participantRepo struct {
	collection *mongo.Collection
}

// NewParticipantRepo creates a new participant repository.
func NewParticipantRepo(db *mongo.Database) ParticipantRepo {
	return &participantRepo{collection: db.Collection(colParticipants)}
}

func (r *participantRepo) Create(ctx context.Context, participant *model.Participant) error {
	_, err := r.collection.InsertOne(ctx, participant)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("participant insert: %w", ErrIdentityTaken)
	}
	return err
}

func (r *participantRepo) GetByID(ctx context.Context, id string) (*model.Participant, error) {
	var participant model.Participant
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&participant)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *participantRepo) GetByToken(ctx context.Context, sessionID, identityToken string) (*model.Participant, error) {
	var participant model.Participant
	filter := bson.M{"sessionId": sessionID, "identityToken": identityToken}
	err := r.collection.FindOne(ctx, filter).Decode(&participant)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// Rebind points the participant at a new live connection. This is the
// reconnect path: no new row, score and history untouched.
func (r *participantRepo) Rebind(ctx context.Context, id, connectionID, nickname string, at time.Time) error {
	set := bson.M{
		"isConnected": connectionID != "",
		"lastSeenAt":  at,
	}
	if nickname != "" {
		set["nickname"] = nickname
	}
	update := bson.M{"$set": set}
	if connectionID != "" {
		set["connectionId"] = connectionID
	} else {
		update["$unset"] = bson.M{"connectionId": ""}
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// DetachConnection marks whoever held the connection as disconnected and
// returns the affected participant, if any.
func (r *participantRepo) DetachConnection(ctx context.Context, connectionID string, at time.Time) (*model.Participant, error) {
	var participant model.Participant
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"connectionId": connectionID},
		bson.M{"$set": bson.M{"isConnected": false, "lastSeenAt": at}, "$unset": bson.M{"connectionId": ""}},
	).Decode(&participant)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// SoftRemove bans the participant while preserving its responses.
func (r *participantRepo) SoftRemove(ctx context.Context, id string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isRemoved": true, "isConnected": false}, "$unset": bson.M{"connectionId": ""}})
	return err
}

// CountConnected counts participants with a live connection. Presence frames
// and session summaries report who is in the room now, not everyone who ever
// joined.
func (r *participantRepo) CountConnected(ctx context.Context, sessionID string) (int64, error) {
	return r.collection.CountDocuments(ctx,
		bson.M{"sessionId": sessionID, "isRemoved": false, "isConnected": true})
}

func (r *participantRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID, "isRemoved": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}
