package docstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const campaignCollection = "campaigns"

// Campaign is one marketing SMS or email blast and its tally.
type Campaign struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Channel    string             `bson:"channel" json:"channel"`
	Subject    string             `bson:"subject,omitempty" json:"subject,omitempty"`
	Message    string             `bson:"message" json:"message"`
	PartnerID  uint               `bson:"partenaire_id,omitempty" json:"partenaire_id,omitempty"`
	Recipients int                `bson:"recipients" json:"recipients"`
	Sent       int                `bson:"sent" json:"sent"`
	Failed     int                `bson:"failed" json:"failed"`
	CreatedBy  uint               `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

type CampaignStore struct {
	collection *mongo.Collection
}

func NewCampaignStore(db *mongo.Database) *CampaignStore {
	return &CampaignStore{collection: db.Collection(campaignCollection)}
}

func (s *CampaignStore) Insert(ctx context.Context, c *Campaign) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := s.collection.InsertOne(ctx, c)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return nil
}

func (s *CampaignStore) List(ctx context.Context, limit, offset int64) ([]Campaign, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit).SetSkip(offset)
	cur, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Campaign
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
