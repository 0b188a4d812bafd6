package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messageLogCollection = "message_logs"

// MessageLog records one delivery attempt on one channel.
type MessageLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel    string             `bson:"channel" json:"channel"`
	Recipient  string             `bson:"recipient" json:"recipient"`
	Event      string             `bson:"event,omitempty" json:"event,omitempty"`
	Template   string             `bson:"template,omitempty" json:"template,omitempty"`
	CampaignID string             `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	Success    bool               `bson:"success" json:"success"`
	ProviderID string             `bson:"provider_id,omitempty" json:"provider_id,omitempty"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

type MessageLogStore struct {
	collection *mongo.Collection
}

func NewMessageLogStore(db *mongo.Database) *MessageLogStore {
	return &MessageLogStore{collection: db.Collection(messageLogCollection)}
}

func (s *MessageLogStore) Insert(ctx context.Context, l *MessageLog) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	res, err := s.collection.InsertOne(ctx, l)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		l.ID = id
	}
	return nil
}

// List returns the latest logs, optionally filtered by channel.
func (s *MessageLogStore) List(ctx context.Context, channel string, limit int64) ([]MessageLog, error) {
	filter := bson.M{}
	if channel != "" {
		filter["channel"] = channel
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []MessageLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
