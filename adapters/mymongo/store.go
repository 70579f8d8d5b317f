package mymongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"myregistry/domain"
	"myregistry/helpers"
	"myregistry/interfaces"
	"myregistry/service"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultCollection = "clients"

// validCollectionName matches safe MongoDB collection names.
var validCollectionName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// StoreOption configures the MongoDB store.
type StoreOption func(*Store)

// WithCollectionName sets the collection holding instances. Default: "clients".
func WithCollectionName(name string) StoreOption {
	return func(s *Store) {
		s.collectionName = name
	}
}

// Store is the MongoDB implementation of interfaces.Store. One document per (group, id).
type Store struct {
	collection *mongo.Collection
	// counters holds the write sequence that orders upserts within one millisecond.
	counters       *mongo.Collection
	collectionName string
	clock          interfaces.TimeProvider
	// client is set only when the store opened the connection itself.
	client *mongo.Client
}

var _ interfaces.Store = (*Store)(nil)

// Connect dials uri, opens the store on database and takes ownership of the client.
func Connect(ctx context.Context, uri, database string, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("can't connect to mongo: %w", err)
	}
	s, err := NewStore(ctx, client.Database(database), clock, opts...)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.client = client
	return s, nil
}

// NewStore opens the store on db and creates its indexes. The caller keeps ownership of db.
func NewStore(ctx context.Context, db *mongo.Database, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	s := &Store{
		collectionName: defaultCollection,
		clock:          helpers.NilPanic(clock, "mymongo.store.go: time provider is required"),
	}
	helpers.NilPanic(db, "mymongo.store.go: database is required")
	for _, opt := range opts {
		opt(s)
	}
	if !validCollectionName.MatchString(s.collectionName) {
		return nil, fmt.Errorf("invalid collection name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", s.collectionName)
	}
	// nested meta objects decode as maps so they serialize back to JSON objects
	s.collection = db.Collection(s.collectionName, options.Collection().SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}))
	s.counters = db.Collection(s.collectionName + "_seq")

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, service.NewStoreUnavailableError("Mongo index error", fmt.Errorf("can't create indexes on '%s', err: %w", s.collectionName, err))
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "group", Value: 1}, {Key: "updatedAt", Value: -1}, {Key: "seq", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "updatedAt", Value: 1}},
		},
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (s *Store) Upsert(ctx context.Context, group, id string, meta domain.Meta) error {
	if meta == nil {
		meta = domain.Meta{}
	}
	seq, err := s.nextSeq(ctx)
	if err != nil {
		return service.NewStoreUnavailableError("Mongo upsert error", fmt.Errorf("can't draw write sequence (group='%s', id='%s'), err: %w", group, id, err))
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	filter := bson.D{{Key: "group", Value: group}, {Key: "id", Value: id}}
	update := bson.M{
		"$set": bson.M{
			"updatedAt": now,
			"seq":       seq,
			"meta":      meta,
		},
		"$setOnInsert": bson.M{
			"createdAt": now,
		},
	}

	opts := options.UpdateOne().SetUpsert(true)
	_, err = s.collection.UpdateOne(ctx, filter, update, opts)
	// two concurrent upserts of a new key: the loser hits the unique index and
	// a second attempt finds the winner's document and updates it
	if mongo.IsDuplicateKeyError(err) {
		_, err = s.collection.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return service.NewStoreUnavailableError("Mongo upsert error", fmt.Errorf("can't upsert instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

// nextSeq increments the store's counter document and returns the new value.
func (s *Store) nextSeq(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": s.collectionName}
	update := bson.M{"$inc": bson.M{"value": int64(1)}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Value int64 `bson:"value"`
	}
	err := s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	// first use: two upserts may race to create the counter document
	if mongo.IsDuplicateKeyError(err) {
		err = s.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	}
	return counter.Value, err
}

func (s *Store) ListByGroup(ctx context.Context, group string) ([]domain.Instance, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "seq", Value: -1}}).
		SetProjection(bson.M{"_id": 0})
	cursor, err := s.collection.Find(ctx, bson.M{"group": group}, opts)
	if err != nil {
		return nil, service.NewStoreUnavailableError("Mongo list error", fmt.Errorf("can't list instances (group='%s'), err: %w", group, err))
	}

	var instances []domain.Instance
	if err := cursor.All(ctx, &instances); err != nil {
		return nil, service.NewStoreUnavailableError("Mongo list error", fmt.Errorf("can't decode instances (group='%s'), err: %w", group, err))
	}
	if instances == nil {
		instances = []domain.Instance{}
	}
	for i := range instances {
		if instances[i].Meta == nil {
			instances[i].Meta = domain.Meta{}
		}
	}
	return instances, nil
}

func (s *Store) Delete(ctx context.Context, group, id string) error {
	_, err := s.collection.DeleteOne(ctx, bson.D{{Key: "group", Value: group}, {Key: "id", Value: id}})
	if err != nil {
		return service.NewStoreUnavailableError("Mongo delete error", fmt.Errorf("can't delete instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

type groupSummary struct {
	Group         string    `bson:"_id"`
	Instances     int       `bson:"instances"`
	CreatedAt     time.Time `bson:"createdAt"`
	LastUpdatedAt time.Time `bson:"lastUpdatedAt"`
}

func (s *Store) Summarize(ctx context.Context) ([]domain.GroupSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$group"},
			{Key: "instances", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "createdAt", Value: bson.D{{Key: "$min", Value: "$createdAt"}}},
			{Key: "lastUpdatedAt", Value: bson.D{{Key: "$max", Value: "$updatedAt"}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "instances", Value: bson.D{{Key: "$gt", Value: 0}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, service.NewStoreUnavailableError("Mongo summary error", fmt.Errorf("can't aggregate groups, err: %w", err))
	}

	var rows []groupSummary
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, service.NewStoreUnavailableError("Mongo summary error", fmt.Errorf("can't decode groups, err: %w", err))
	}
	summaries := make([]domain.GroupSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domain.GroupSummary{
			Group:           row.Group,
			InstanceCount:   row.Instances,
			EarliestCreated: row.CreatedAt.UTC(),
			LatestUpdated:   row.LastUpdatedAt.UTC(),
		})
	}
	return summaries, nil
}

// DeleteOlderThan is a single DeleteMany. The server evaluates the filter per document as
// it deletes, so a document refreshed meanwhile no longer matches.
func (s *Store) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"updatedAt": bson.M{"$lt": threshold.UTC()},
	})
	if err != nil {
		removed := 0
		if result != nil {
			removed = int(result.DeletedCount)
		}
		return removed, service.NewStoreUnavailableError("Mongo sweep error", fmt.Errorf("can't delete instances older than %s, err: %w", threshold.Format(time.RFC3339Nano), err))
	}
	return int(result.DeletedCount), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.collection.Database().Client().Ping(ctx, nil); err != nil {
		return service.NewStoreUnavailableError("Mongo ping error", fmt.Errorf("can't ping mongo, err: %w", err))
	}
	return nil
}

// Close disconnects the client when the store opened it through Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
