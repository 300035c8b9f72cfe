package push

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tokenCollection = "fcm_tokens"

// MongoTokenStore persists token bindings in the fcm_tokens collection,
// one document per (user, platform).
type MongoTokenStore struct {
	coll *mongo.Collection
}

func NewMongoTokenStore(db *mongo.Database) *MongoTokenStore {
	return &MongoTokenStore{coll: db.Collection(tokenCollection)}
}

// EnsureIndexes creates the unique (user_id, platform) index. Call once
// at boot; it is a no-op when the index already exists.
func (s *MongoTokenStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "platform", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoTokenStore) Save(ctx context.Context, b TokenBinding) error {
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = time.Now()
	}
	filter := bson.M{"user_id": b.UserID, "platform": b.Platform}
	opts := options.Replace().SetUpsert(true)
	_, err := s.coll.ReplaceOne(ctx, filter, b, opts)
	return err
}

func (s *MongoTokenStore) List(ctx context.Context, userID string) ([]TokenBinding, error) {
	cur, err := s.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []TokenBinding
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoTokenStore) Delete(ctx context.Context, userID, token string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID, "token": token})
	return err
}
