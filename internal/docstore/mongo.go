package docstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const createdField = "_created"

// MongoStore maps every collection path to a Mongo collection named after the
// path with dots, e.g. "portfolio.admin.skills".
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (m *MongoStore) collection(path string) *mongo.Collection {
	return m.db.Collection(strings.ReplaceAll(strings.Trim(path, "/"), "/", "."))
}

func (m *MongoStore) Get(ctx context.Context, docPath string) (Document, error) {
	coll, id, err := Split(docPath)
	if err != nil {
		return Document{}, err
	}
	var raw bson.M
	err = m.collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Document{}, errors.Wrap(ErrNotFound, docPath)
	}
	if err != nil {
		return Document{}, errors.Wrapf(err, "get %s", docPath)
	}
	return fromBSON(id, raw), nil
}

func (m *MongoStore) List(ctx context.Context, collectionPath string) ([]Document, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: createdField, Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.collection(coll).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", coll)
	}
	defer cur.Close(ctx)
	docs := []Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, "decode %s", coll)
		}
		id, _ := raw["_id"].(string)
		docs = append(docs, fromBSON(id, raw))
	}
	return docs, errors.Wrapf(cur.Err(), "list %s", coll)
}

func (m *MongoStore) Add(ctx context.Context, collectionPath string, data map[string]any) (string, error) {
	coll, err := cleanCollection(collectionPath)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := m.collection(coll).InsertOne(ctx, toBSON(id, data)); err != nil {
		return "", errors.Wrapf(err, "add to %s", coll)
	}
	return id, nil
}

func (m *MongoStore) Set(ctx context.Context, docPath string, data map[string]any) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	_, err = m.collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, toBSON(id, data), options.Replace().SetUpsert(true))
	return errors.Wrapf(err, "set %s", docPath)
}

func (m *MongoStore) Update(ctx context.Context, docPath string, data map[string]any) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	fields := bson.M{}
	for k, v := range data {
		fields[k] = v
	}
	res, err := m.collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return errors.Wrapf(err, "update %s", docPath)
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(ErrNotFound, docPath)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, docPath string) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	res, err := m.collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "delete %s", docPath)
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(ErrNotFound, docPath)
	}
	return nil
}

func (m *MongoStore) Increment(ctx context.Context, docPath, field string, delta int64) error {
	coll, id, err := Split(docPath)
	if err != nil {
		return err
	}
	res, err := m.collection(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return errors.Wrapf(err, "increment %s", docPath)
	}
	if res.MatchedCount == 0 {
		return errors.Wrap(ErrNotFound, docPath)
	}
	return nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func toBSON(id string, data map[string]any) bson.M {
	doc := bson.M{"_id": id, createdField: time.Now().UTC()}
	for k, v := range data {
		doc[k] = v
	}
	return doc
}

func fromBSON(id string, raw bson.M) Document {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" || k == createdField {
			continue
		}
		data[k] = normalizeBSON(v)
	}
	return Document{ID: id, Data: data}
}

func normalizeBSON(value any) any {
	switch v := value.(type) {
	case primitive.M:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeBSON(item)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = normalizeBSON(elem.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeBSON(item)
		}
		return out
	case primitive.DateTime:
		return v.Time().UTC()
	case int32:
		return int64(v)
	default:
		return v
	}
}
