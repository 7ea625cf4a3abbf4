package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bookingagent/models"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const preferenceShards = 32

type preferenceShard struct {
	mu    sync.RWMutex
	items map[string]models.PreferenceSummary
}

// ShardedPreferenceStore is an in-memory PreferenceStore. Keys are spread
// over independently locked shards so unrelated users never contend.
type ShardedPreferenceStore struct {
	shards [preferenceShards]*preferenceShard
}

func NewShardedPreferenceStore() *ShardedPreferenceStore {
	s := &ShardedPreferenceStore{}
	for i := range s.shards {
		s.shards[i] = &preferenceShard{items: make(map[string]models.PreferenceSummary)}
	}
	return s
}

func (s *ShardedPreferenceStore) shard(key string) *preferenceShard {
	return s.shards[xxhash.Sum64String(key)%preferenceShards]
}

func (s *ShardedPreferenceStore) Get(_ context.Context, key string) (models.PreferenceSummary, bool, error) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.items[key]
	return v, ok, nil
}

func (s *ShardedPreferenceStore) Upsert(_ context.Context, summary models.PreferenceSummary) error {
	if summary.Key == "" {
		return errors.New("preference summary without key")
	}
	sh := s.shard(summary.Key)
	sh.mu.Lock()
	sh.items[summary.Key] = summary
	sh.mu.Unlock()
	return nil
}

const preferencesCollection = "preferences"

// MongoPreferenceStore keeps one document per key in the preferences
// collection. Writes are single-document upserts.
type MongoPreferenceStore struct {
	coll *mongo.Collection
}

func NewMongoPreferenceStore(db *mongo.Database) *MongoPreferenceStore {
	return &MongoPreferenceStore{coll: db.Collection(preferencesCollection)}
}

func (s *MongoPreferenceStore) Get(ctx context.Context, key string) (models.PreferenceSummary, bool, error) {
	var summary models.PreferenceSummary
	err := s.coll.FindOne(ctx, bson.M{"key": key}).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PreferenceSummary{}, false, nil
	}
	if err != nil {
		return models.PreferenceSummary{}, false, fmt.Errorf("error fetching preferences for %s: %w", key, err)
	}
	return summary, true, nil
}

func (s *MongoPreferenceStore) Upsert(ctx context.Context, summary models.PreferenceSummary) error {
	if summary.Key == "" {
		return errors.New("preference summary without key")
	}
	filter := bson.M{"key": summary.Key}
	update := bson.M{"$set": summary}
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("error upserting preferences for %s: %w", summary.Key, err)
	}
	return nil
}
