package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildtrack/buildtrack/pkg/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// MongoStore is a Store backed by a MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// MongoURI builds the connection string for a local mongod.
func MongoURI(host string, port int) string {
	return fmt.Sprintf("mongodb://%s:%d/?directConnection=true", host, port)
}

// OpenMongo connects to uri and pings the primary. A failed ping is
// reported as ErrUnreachable.
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// Backend implements Store.
func (s *MongoStore) Backend() types.Backend { return types.BackendMongo }

// Find implements Store.
func (s *MongoStore) Find(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, toBSONFilter(filter))
	if err != nil {
		return nil, mongoErr(err)
	}
	defer cur.Close(ctx)

	out := []Document{}
	for cur.Next(ctx) {
		var m bson.M
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		out = append(out, fromBSON(m))
	}
	if err := cur.Err(); err != nil {
		return nil, mongoErr(err)
	}
	return out, nil
}

// FindOne implements Store.
func (s *MongoStore) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	var m bson.M
	err := s.db.Collection(collection).FindOne(ctx, toBSONFilter(filter)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, mongoErr(err)
	}
	return fromBSON(m), nil
}

// Insert implements Store. A document without _id gets a fresh ULID so
// ids stay strings across every backend.
func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	n, err := normalizeDocument(doc)
	if err != nil {
		return "", err
	}
	if n.ID() == "" {
		n[IDField] = types.NewID().String()
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, bson.M(n)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateID, n.ID())
		}
		return "", mongoErr(err)
	}
	return n.ID(), nil
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, collection string, filter Filter, set Document) (int64, error) {
	fields, err := normalizeDocument(set)
	if err != nil {
		return 0, err
	}
	delete(fields, IDField)

	if len(fields) == 0 {
		n, err := s.db.Collection(collection).CountDocuments(ctx, toBSONFilter(filter), options.Count().SetLimit(1))
		return n, mongoErr(err)
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, toBSONFilter(filter), bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, mongoErr(err)
	}
	return res.MatchedCount, nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, collection string, filter Filter) (int64, error) {
	res, err := s.db.Collection(collection).DeleteOne(ctx, toBSONFilter(filter))
	if err != nil {
		return 0, mongoErr(err)
	}
	return res.DeletedCount, nil
}

// DeleteMany implements Store.
func (s *MongoStore) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, toBSONFilter(filter))
	if err != nil {
		return 0, mongoErr(err)
	}
	return res.DeletedCount, nil
}

// Count implements Store.
func (s *MongoStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, toBSONFilter(filter))
	if err != nil {
		return 0, mongoErr(err)
	}
	return n, nil
}

// ListCollections implements Store.
func (s *MongoStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, mongoErr(err)
	}
	return sortedNames(names), nil
}

// CreateCollection implements Store.
func (s *MongoStore) CreateCollection(ctx context.Context, name string) error {
	return mongoErr(s.db.CreateCollection(ctx, name))
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return mongoErr(s.client.Disconnect(ctx))
}

// mongoErr marks network failures as ErrUnreachable.
func mongoErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}

// toBSONFilter converts an equality filter. Ids that look like object ids
// match either representation, since older installs stored native ids.
func toBSONFilter(filter Filter) bson.M {
	m := bson.M{}
	for k, v := range filter {
		m[k] = v
	}

	if id, ok := filter[IDField].(string); ok && types.IsObjectID(id) {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			m[IDField] = bson.M{"$in": bson.A{id, oid}}
		}
	}
	return m
}

// fromBSON converts a decoded document into the canonical JSON shape used
// by every backend: object ids become hex strings, dates RFC 3339 strings,
// integers float64.
func fromBSON(m bson.M) Document {
	doc, _ := plainValue(m).(map[string]any)
	if doc == nil {
		doc = map[string]any{}
	}
	return Document(doc)
}

func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.A:
		return plainSlice(t)
	case []any:
		return plainSlice(t)
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC().Format(time.RFC3339Nano)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case bson.Decimal128:
		return t.String()
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case int:
		return float64(t)
	default:
		return v
	}
}

func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = plainValue(val)
	}
	return out
}

func plainSlice(s []any) []any {
	out := make([]any, len(s))
	for i, val := range s {
		out[i] = plainValue(val)
	}
	return out
}
