package mongostore

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"driza/errs"
	"driza/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store maps the path contract onto MongoDB: the first path segment is the
// collection, the second the document _id, anything deeper a dotted field.
// Subscribe rides on change streams, so the deployment must be a replica
// set.
type Store struct {
	db *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials MongoDB and returns the adapter plus the client for
// shutdown.
func Connect(ctx context.Context, uri, dbName string) (*Store, *mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}
	return New(client.Database(dbName)), client, nil
}

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, errs.Invalid("path", "empty")
	}
	return strings.Split(path, "/"), nil
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	coll := s.db.Collection(segs[0])

	if len(segs) == 1 {
		cursor, err := coll.Find(ctx, bson.M{})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)

		children := make(map[string]any)
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				return nil, err
			}
			id, _ := doc["_id"].(string)
			if id == "" {
				continue
			}
			delete(doc, "_id")
			children[id] = doc
		}
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, errs.ErrNotFound
		}
		return json.Marshal(children)
	}

	var doc bson.M
	err = coll.FindOne(ctx, bson.M{"_id": segs[1]}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	delete(doc, "_id")

	var node any = map[string]any(doc)
	for _, seg := range segs[2:] {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, errs.ErrNotFound
		}
		node, ok = m[seg]
		if !ok {
			return nil, errs.ErrNotFound
		}
	}
	return json.Marshal(node)
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) == 1 {
		return errs.Invalid("path", "cannot set a whole collection")
	}
	coll := s.db.Collection(segs[0])
	upsert := options.Update().SetUpsert(true)

	if len(segs) == 2 {
		doc, err := toDoc(value)
		if err != nil {
			return err
		}
		_, err = coll.ReplaceOne(ctx, bson.M{"_id": segs[1]}, doc, options.Replace().SetUpsert(true))
		return err
	}

	node, err := toPlain(value)
	if err != nil {
		return err
	}
	field := strings.Join(segs[2:], ".")
	_, err = coll.UpdateOne(ctx, bson.M{"_id": segs[1]}, bson.M{"$set": bson.M{field: node}}, upsert)
	return err
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	if len(segs) < 2 {
		return errs.Invalid("path", "update needs a document path")
	}
	coll := s.db.Collection(segs[0])
	prefix := strings.Join(segs[2:], ".")

	set := bson.M{}
	unset := bson.M{}
	for key, v := range fields {
		field := strings.ReplaceAll(strings.Trim(key, "/"), "/", ".")
		if prefix != "" {
			field = prefix + "." + field
		}
		if v == nil {
			unset[field] = ""
			continue
		}
		node, err := toPlain(v)
		if err != nil {
			return err
		}
		set[field] = node
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}
	_, err = coll.UpdateOne(ctx, bson.M{"_id": segs[1]}, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) Remove(ctx context.Context, path string) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}
	coll := s.db.Collection(segs[0])

	switch len(segs) {
	case 1:
		return coll.Drop(ctx)
	case 2:
		_, err := coll.DeleteOne(ctx, bson.M{"_id": segs[1]})
		return err
	default:
		field := strings.Join(segs[2:], ".")
		_, err := coll.UpdateOne(ctx, bson.M{"_id": segs[1]}, bson.M{"$unset": bson.M{field: ""}})
		return err
	}
}

// Subscribe watches the path's collection and pushes a fresh snapshot of the
// subscribed path after every change. The returned func stops the stream
// only; writes already issued keep running on their own contexts.
func (s *Store) Subscribe(path string, fn func(store.Event)) (func(), error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	coll := s.db.Collection(segs[0])

	ctx, cancel := context.WithCancel(context.Background())
	cs, err := coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer cs.Close(context.Background())

		fn(store.Event{Path: path, Value: s.snapshot(ctx, path)})
		for cs.Next(ctx) {
			fn(store.Event{Path: path, Value: s.snapshot(ctx, path)})
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			log.Printf("mongostore: change stream for %s ended: %v", path, err)
		}
	}()

	return cancel, nil
}

func (s *Store) snapshot(ctx context.Context, path string) json.RawMessage {
	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	raw, err := s.Get(sctx, path)
	if err != nil {
		return nil
	}
	return raw
}

// toPlain round-trips through JSON so only plain maps, slices and
// primitives reach the driver.
func toPlain(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	return node, nil
}

func toDoc(value any) (bson.M, error) {
	node, err := toPlain(value)
	if err != nil {
		return nil, err
	}
	m, ok := node.(map[string]any)
	if !ok {
		return nil, errs.Invalid("value", "document must be an object")
	}
	// the path key is the identity; never store a second copy
	delete(m, "id")
	delete(m, "uid")
	return bson.M(m), nil
}
