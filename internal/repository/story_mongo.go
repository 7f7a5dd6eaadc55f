// Package repository implements the persistence layer for story records
// and the credit ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"storyfairy-server/internal/model"
)

const storiesCollection = "stories"

// DocumentStore persists assembled story records.
type DocumentStore interface {
	CreateStory(ctx context.Context, record *model.StoryRecord) error
	GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error)
	GetUserStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error)
	DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error
}

type mongoStore struct {
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStore creates the story document store backed by the given database.
func NewMongoStore(db *mongo.Database, logger *zap.Logger) DocumentStore {
	return &mongoStore{
		collection: db.Collection(storiesCollection),
		logger:     logger.Named("DocumentStore"),
	}
}

// ConnectMongo dials MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(shutdownCtx)
	}
	return client.Database(database), cleanup, nil
}

func (s *mongoStore) CreateStory(ctx context.Context, record *model.StoryRecord) error {
	if _, err := s.collection.InsertOne(ctx, record); err != nil {
		s.logger.Error("Failed to insert story record",
			zap.String("story_id", record.ID.String()),
			zap.Error(err))
		return fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err)
	}
	return nil
}

func (s *mongoStore) GetStory(ctx context.Context, userID string, storyID uuid.UUID) (*model.StoryRecord, error) {
	filter := bson.M{"_id": storyID, "user_id": userID}
	var record model.StoryRecord
	err := s.collection.FindOne(ctx, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, model.ErrStoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return &record, nil
}

// encodeCursor builds a page cursor from the last record on a page. The
// story ID rides along as a tie-break so records sharing a timestamp are
// never skipped across page boundaries.
func encodeCursor(record *model.StoryRecord) string {
	return record.CreatedAt.Format(time.RFC3339Nano) + "|" + record.ID.String()
}

func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	ts, id, found := strings.Cut(cursor, "|")
	if !found {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: invalid cursor", model.ErrInvalidInput)
	}
	before, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: invalid cursor", model.ErrInvalidInput)
	}
	storyID, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: invalid cursor", model.ErrInvalidInput)
	}
	return before, storyID, nil
}

// GetUserStories returns a page of the user's stories ordered newest first.
// The cursor is opaque to callers: timestamp plus story ID of the last
// record on the previous page.
func (s *mongoStore) GetUserStories(ctx context.Context, userID string, limit int, cursor string) (*model.StoryPage, error) {
	if limit <= 0 {
		limit = 20
	}

	filter := bson.M{"user_id": userID}
	if cursor != "" {
		before, lastID, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		filter["$or"] = []bson.M{
			{"created_at": bson.M{"$lt": before}},
			{"created_at": before, "_id": bson.M{"$lt": lastID}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer cur.Close(ctx)

	stories := make([]model.StoryRecord, 0, limit)
	if err := cur.All(ctx, &stories); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}

	page := &model.StoryPage{Stories: stories}
	if len(stories) == limit {
		page.NextCursor = encodeCursor(&stories[len(stories)-1])
	}
	return page, nil
}

func (s *mongoStore) DeleteStory(ctx context.Context, userID string, storyID uuid.UUID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": storyID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if result.DeletedCount == 0 {
		return model.ErrStoryNotFound
	}
	return nil
}
