// Package mongodb implements the store port over the official driver. One
// Store serves every collection of the configured database; the core names
// collections per call.
package mongodb

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Store adapts a mongo database to the store port.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	sink   string
}

// NewStore wraps an established client. sink names the materialised
// collection so EnsureIndexes knows where the unique key lives.
func NewStore(client *mongo.Client, dbName, sink string) *Store {
	return &Store{client: client, db: client.Database(dbName), sink: sink}
}

var _ out.Store = (*Store)(nil)

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter entities.Doc) (entities.Doc, error) {
	var doc entities.Doc
	err := s.db.Collection(collection).FindOne(ctx, bson.M(filter)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Store) FindAll(ctx context.Context, collection string, filter entities.Doc, fo *out.FindOptions) ([]entities.Doc, error) {
	opts := options.Find()
	if fo != nil {
		if len(fo.Sort) > 0 {
			sortDoc := bson.D{}
			for _, sf := range fo.Sort {
				dir := 1
				if sf.Desc {
					dir = -1
				}
				sortDoc = append(sortDoc, bson.E{Key: sf.Field, Value: dir})
			}
			opts.SetSort(sortDoc)
		}
		if fo.Limit > 0 {
			opts.SetLimit(fo.Limit)
		}
	}

	cursor, err := s.db.Collection(collection).Find(ctx, bson.M(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]entities.Doc, 0)
	for cursor.Next(ctx) {
		var doc entities.Doc
		if err := cursor.Decode(&doc); err != nil {
			slog.ErrorContext(ctx, "error decoding document", "collection", collection, "err", err)
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

func (s *Store) Count(ctx context.Context, collection string, filter entities.Doc) (int64, error) {
	return s.db.Collection(collection).CountDocuments(ctx, bson.M(filter))
}

// CollectField runs a store-side projection pipeline and flattens the
// projected field (scalar or array) into one deduplicated list, preserving
// document order.
func (s *Store) CollectField(ctx context.Context, collection string, filter entities.Doc, field string) ([]string, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M(filter)}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "v", Value: "$" + field},
		}}},
	}
	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	seen := make(map[string]struct{})
	var ids []string
	push := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		ids = append(ids, v)
	}
	for cursor.Next(ctx) {
		var row entities.Doc
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		switch v := row["v"].(type) {
		case string:
			push(v)
		default:
			for _, item := range entities.GetStrings(row, "v") {
				push(item)
			}
		}
	}
	return ids, cursor.Err()
}

func (s *Store) BulkWrite(ctx context.Context, collection string, ops []out.UpdateOp) (out.BulkResult, error) {
	var result out.BulkResult
	if len(ops) == 0 {
		return result, nil
	}

	models := make([]mongo.WriteModel, 0, len(ops))
	for _, op := range ops {
		if op.Replace != nil {
			models = append(models, mongo.NewReplaceOneModel().
				SetFilter(bson.M(op.Filter)).
				SetReplacement(bson.M(op.Replace)).
				SetUpsert(op.Upsert))
			continue
		}
		update := bson.M{}
		if len(op.Set) > 0 {
			update["$set"] = bson.M(op.Set)
		}
		if len(op.Unset) > 0 {
			unset := bson.M{}
			for _, path := range op.Unset {
				unset[path] = ""
			}
			update["$unset"] = unset
		}
		if len(op.Pull) > 0 {
			update["$pull"] = bson.M(op.Pull)
		}
		if len(op.AddToSet) > 0 {
			update["$addToSet"] = bson.M(op.AddToSet)
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M(op.Filter)).
			SetUpdate(update).
			SetUpsert(op.Upsert))
	}

	res, err := s.db.Collection(collection).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if res != nil {
		result.Matched = res.MatchedCount
		result.Modified = res.ModifiedCount
		result.Upserted = res.UpsertedCount
	}
	return result, err
}

func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// EnsureIndexes creates the indexes the core requires, once, at startup:
// the unique (resourceType, externalKey) pair and the (resourceType,
// gamedayId) lookup on the sink, and the external identity pair on each
// source collection. CreateMany is idempotent for identical definitions.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(s.sink).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: domain.FieldResourceType, Value: 1},
				{Key: domain.FieldExternalKey, Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: domain.FieldResourceType, Value: 1},
				{Key: domain.FieldGamedayID, Value: 1},
			},
		},
	})
	if err != nil {
		return err
	}

	for _, t := range domain.AllResourceTypes {
		_, err := s.db.Collection(domain.CollectionFor(t)).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: domain.FieldExternalIDScope, Value: 1},
				{Key: domain.FieldExternalID, Value: 1},
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
