// Package chatlog persists durable completion records in MongoDB.
// Each user gets one collection named after the user id, keyed by
// request id so retries upsert rather than duplicate.
package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/smritlabs/matchbox/pkg/models"
)

const defaultOpTimeout = 5 * time.Second

// ErrNotFound is returned when no log exists for a request id.
var ErrNotFound = errors.New("chat log not found")

// Store wraps the chat-log database.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// New connects to MongoDB and returns a Store over the named database.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(database), timeout: defaultOpTimeout}, nil
}

// NewFromClient wraps an existing client, for sharing one connection pool.
func NewFromClient(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), timeout: defaultOpTimeout}
}

// Client exposes the underlying connection so other stores can share it.
func (s *Store) Client() *mongo.Client { return s.client }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Save upserts the completion record under its request id.
func (s *Store) Save(ctx context.Context, log *models.ChatLog) error {
	if log.RequestID == "" {
		return errors.New("request id is required")
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	coll := s.db.Collection(log.UserID)
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": log.RequestID}, log,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save chat log %s: %w", log.RequestID, err)
	}
	return nil
}

// Get reads the completion record for a request, or ErrNotFound while the
// request is still in flight.
func (s *Store) Get(ctx context.Context, userID, requestID string) (*models.ChatLog, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var log models.ChatLog
	err := s.db.Collection(userID).FindOne(ctx, bson.M{"_id": requestID}).Decode(&log)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read chat log %s: %w", requestID, err)
	}
	return &log, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
