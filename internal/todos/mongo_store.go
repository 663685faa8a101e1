package todos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a single collection keyed by _id = todo id.
type MongoStore struct {
	col    *mongo.Collection
	client *mongo.Client
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	return &MongoStore{col: col}
}

// OpenMongoStore connects, pings and returns a store that owns the client.
// Caller should call Close.
func OpenMongoStore(ctx context.Context, uri, database, collection string, timeout time.Duration) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, mopts.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := NewMongoStore(client.Database(database).Collection(collection))
	s.client = client
	return s, nil
}

func (s *MongoStore) Put(ctx context.Context, t Todo) error {
	t = t.normalize()
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t, mopts.Replace().SetUpsert(true))
	return storeErr("put", err)
}

func (s *MongoStore) Get(ctx context.Context, id string) (Todo, bool, error) {
	var t Todo
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Todo{}, false, nil
	}
	if err != nil {
		return Todo{}, false, storeErr("get", err)
	}
	return t.normalize(), true, nil
}

func (s *MongoStore) Scan(ctx context.Context) ([]Todo, error) {
	opts := mopts.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("scan", err)
	}
	defer cur.Close(ctx)

	out := []Todo{}
	for cur.Next(ctx) {
		var t Todo
		if err := cur.Decode(&t); err != nil {
			return nil, storeErr("scan", err)
		}
		out = append(out, t.normalize())
	}
	return out, storeErr("scan", cur.Err())
}

// Update is a single FindOneAndUpdate filtered on _id, so the write only lands
// on an existing document.
func (s *MongoStore) Update(ctx context.Context, id string, p Patch) (Todo, error) {
	set := patchSet(p)
	if len(set) == 0 {
		t, ok, err := s.Get(ctx, id)
		if err != nil {
			return Todo{}, err
		}
		if !ok {
			return Todo{}, ErrNotFound
		}
		return t, nil
	}

	opts := mopts.FindOneAndUpdate().SetReturnDocument(mopts.After)
	var t Todo
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, storeErr("update", err)
	}
	return t.normalize(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return storeErr("delete", err)
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func patchSet(p Patch) bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.IsDone != nil {
		set["isDone"] = *p.IsDone
	}
	if p.DueDate != nil {
		set["dueDate"] = p.DueDate.UTC()
	}
	if p.IsDue != nil {
		set["isDue"] = *p.IsDue
	}
	if p.UpdatedAt != nil {
		set["updatedAt"] = p.UpdatedAt.UTC()
	}
	return set
}
