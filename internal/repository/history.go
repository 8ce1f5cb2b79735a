package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// RefreshEventDocument is the stored form of model.RefreshEvent.
type RefreshEventDocument struct {
	ID                     string    `bson:"_id"`
	SessionID              string    `bson:"session_id"`
	Screen                 string    `bson:"screen"`
	ScreenIndex            int       `bson:"screen_index"`
	TotalScreens           int       `bson:"total_screens"`
	Action                 string    `bson:"action"`
	CycleCount             int       `bson:"cycle_count"`
	FramesSinceFullRefresh int       `bson:"frames_since_full_refresh"`
	HasData                bool      `bson:"has_data"`
	Cached                 bool      `bson:"cached"`
	DurationMs             int64     `bson:"duration_ms"`
	Error                  string    `bson:"error,omitempty"`
	CreatedAt              time.Time `bson:"created_at"`
}

func toDocument(e model.RefreshEvent) RefreshEventDocument {
	return RefreshEventDocument(e)
}

func (d RefreshEventDocument) toModel() model.RefreshEvent {
	return model.RefreshEvent(d)
}

// HistoryQuery filters refresh events. Zero fields match everything.
type HistoryQuery struct {
	SessionID string
	Screen    string
	Action    string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Skip      int
}

func (q HistoryQuery) filter() bson.M {
	filter := bson.M{}
	if q.SessionID != "" {
		filter["session_id"] = q.SessionID
	}
	if q.Screen != "" {
		filter["screen"] = q.Screen
	}
	if q.Action != "" {
		filter["action"] = q.Action
	}
	if q.Since != nil || q.Until != nil {
		created := bson.M{}
		if q.Since != nil {
			created["$gte"] = *q.Since
		}
		if q.Until != nil {
			created["$lte"] = *q.Until
		}
		filter["created_at"] = created
	}
	return filter
}

// HistoryRepository persists refresh events.
type HistoryRepository struct {
	collection *mongo.Collection
}

func NewHistoryRepository(db *MongoDB) *HistoryRepository {
	return &HistoryRepository{collection: db.RefreshEvents}
}

// Create stores an event, assigning an ID and timestamp when missing.
func (r *HistoryRepository) Create(ctx context.Context, event *model.RefreshEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, toDocument(*event))
	return err
}

// Query returns matching events, newest first.
func (r *HistoryRepository) Query(ctx context.Context, q HistoryQuery) ([]model.RefreshEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if q.Limit > 0 {
		findOptions.SetLimit(int64(q.Limit))
	}
	if q.Skip > 0 {
		findOptions.SetSkip(int64(q.Skip))
	}

	cursor, err := r.collection.Find(ctx, q.filter(), findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []RefreshEventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]model.RefreshEvent, len(docs))
	for i, d := range docs {
		events[i] = d.toModel()
	}
	return events, nil
}

func (r *HistoryRepository) Count(ctx context.Context, q HistoryQuery) (int64, error) {
	return r.collection.CountDocuments(ctx, q.filter())
}
