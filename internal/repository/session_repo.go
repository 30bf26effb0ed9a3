package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"crowddeck/internal/apperr"
	"crowddeck/internal/model"
)

// SessionRepo persists sessions. Status transitions are single atomic
// updates filtered on the expected prior status, so the session document is
// the serialization point for lifecycle changes.
type SessionRepo interface {
	Create(ctx context.Context, session *model.Session) error
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetByCode(ctx context.Context, code string) (*model.Session, error)
	UpdateStatus(ctx context.Context, id string, from, to model.SessionStatus, endedAt *time.Time) (bool, error)
	ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Session, error)
	CodeInUse(ctx context.Context, code string) (bool, error)
}

type sessionRepo struct {
	collection *mongo.Collection
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(db *mongo.Database) SessionRepo {
	return &sessionRepo{collection: db.Collection(colSessions)}
}

func (r *sessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.collection.InsertOne(ctx, session)
	if mongo.IsDuplicateKeyError(err) {
		// Join code collided with a concurrently created session.
		return fmt.Errorf("join code taken: %w", apperr.ErrCodeAllocationExhausted)
	}
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByCode resolves a join code against sessions that have not ended.
func (r *sessionRepo) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	var session model.Session
	filter := bson.M{"joinCode": code, "status": bson.M{"$ne": model.SessionEnded}}
	err := r.collection.FindOne(ctx, filter).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatus moves the session from one status to another in a single
// statement. Returns false when the session was not in the expected status,
// which callers treat as a lost race, not an error.
func (r *sessionRepo) UpdateStatus(ctx context.Context, id string, from, to model.SessionStatus, endedAt *time.Time) (bool, error) {
	set := bson.M{"status": to}
	if endedAt != nil {
		set["endedAt"] = endedAt
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ListExpired returns sessions that are past their expiry but not yet ended.
// The sweeper ends each through the usual transition so observers get the
// same broadcasts as a presenter-driven end.
func (r *sessionRepo) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.Session, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"status":    bson.M{"$in": bson.A{model.SessionActive, model.SessionPaused}},
		"expiresAt": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) CodeInUse(ctx context.Context, code string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"joinCode": code, "status": bson.M{"$ne": model.SessionEnded}})
	return n > 0, err
}
