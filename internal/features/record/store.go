package record

import (
	"context"
	"fmt"
	"time"

	common_models "go-inspect/internal/common/models"
	"go-inspect/internal/database"
	"go-inspect/internal/features/schema"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the per-record write capability the operation engine drives.
// Records are keyed by the schema's natural key (employee_no, code, ...).
type Store interface {
	Create(ctx context.Context, dataType schema.DataType, row common_models.Row) error
	Update(ctx context.Context, dataType schema.DataType, row common_models.Row) error
	Upsert(ctx context.Context, dataType schema.DataType, row common_models.Row) error
	Delete(ctx context.Context, dataType schema.DataType, row common_models.Row) error
	List(ctx context.Context, dataType schema.DataType, filters map[string]interface{}) ([]common_models.Row, error)
	EnsureIndexes(ctx context.Context) error
}

type MongoStore struct {
	db *mongo.Database
}

func NewStore(db *database.MongodbDB) Store {
	return &MongoStore{db: db.DB}
}

func (s *MongoStore) collection(dataType schema.DataType) (*mongo.Collection, *schema.Schema, error) {
	sc, err := schema.SchemaFor(dataType)
	if err != nil {
		return nil, nil, err
	}
	return s.db.Collection(sc.Collection), sc, nil
}

// keyFilter builds the natural-key filter for one row.
func keyFilter(sc *schema.Schema, row common_models.Row) (bson.M, error) {
	filter := bson.M{}
	for _, key := range sc.KeyFields {
		val, ok := row[key]
		if !ok || val == nil {
			return nil, fmt.Errorf("missing key field %q", key)
		}
		filter[key] = val
	}
	return filter, nil
}

func (s *MongoStore) Create(ctx context.Context, dataType schema.DataType, row common_models.Row) error {
	coll, sc, err := s.collection(dataType)
	if err != nil {
		return err
	}

	filter, err := keyFilter(sc, row)
	if err != nil {
		return err
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("record already exists for key %v", filter)
	}

	doc := bson.M(row)
	doc["created_at"] = time.Now()
	doc["updated_at"] = time.Now()

	_, err = coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoStore) Update(ctx context.Context, dataType schema.DataType, row common_models.Row) error {
	coll, sc, err := s.collection(dataType)
	if err != nil {
		return err
	}

	filter, err := keyFilter(sc, row)
	if err != nil {
		return err
	}

	update := bson.M{"$set": withUpdatedAt(row)}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no existing record for key %v", filter)
	}
	return nil
}

func (s *MongoStore) Upsert(ctx context.Context, dataType schema.DataType, row common_models.Row) error {
	coll, sc, err := s.collection(dataType)
	if err != nil {
		return err
	}

	filter, err := keyFilter(sc, row)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set":         withUpdatedAt(row),
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}
	_, err = coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *MongoStore) Delete(ctx context.Context, dataType schema.DataType, row common_models.Row) error {
	coll, sc, err := s.collection(dataType)
	if err != nil {
		return err
	}

	filter, err := keyFilter(sc, row)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("no existing record for key %v", filter)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, dataType schema.DataType, filters map[string]interface{}) ([]common_models.Row, error) {
	coll, _, err := s.collection(dataType)
	if err != nil {
		return nil, err
	}

	query := bson.M{}
	for k, v := range filters {
		query[k] = v
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []common_models.Row
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	return rows, nil
}

// EnsureIndexes creates the unique natural-key index for every data type.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	for _, dt := range []schema.DataType{schema.DataTypeInspector, schema.DataTypeAttendance, schema.DataTypeTemplate} {
		coll, sc, err := s.collection(dt)
		if err != nil {
			return err
		}

		keys := bson.D{}
		for _, key := range sc.KeyFields {
			keys = append(keys, bson.E{Key: key, Value: 1})
		}

		_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func withUpdatedAt(row common_models.Row) bson.M {
	doc := bson.M{}
	for k, v := range row {
		doc[k] = v
	}
	doc["updated_at"] = time.Now()
	return doc
}
