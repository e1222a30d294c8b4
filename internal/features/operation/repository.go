package operation

import (
	"context"
	"regexp"
	"time"

	"go-inspect/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListFilter narrows the operation history listing.
type ListFilter struct {
	Status    string
	Type      string
	CreatedBy string
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
}

// Repository is the indexed history store over all operations.
type Repository interface {
	Create(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id string) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
	List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Operation, int64, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (int64, error)
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type RepositoryImpl struct {
	collection *mongo.Collection
}

func NewRepository(db *database.MongodbDB) Repository {
	return &RepositoryImpl{
		collection: db.DB.Collection("operations"),
	}
}

func (r *RepositoryImpl) Create(ctx context.Context, op *Operation) error {
	if op.ID.IsZero() {
		op.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, op)
	return err
}

func (r *RepositoryImpl) Get(ctx context.Context, id string) (*Operation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	var op Operation
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&op)
	if err != nil {
		return nil, err
	}

	return &op, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, op *Operation) error {
	op.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": op.ID}, op)
	return err
}

// buildListQuery translates the filter into a Mongo query. Kept separate so
// the translation is testable without a database.
func buildListQuery(f ListFilter) bson.M {
	query := bson.M{}

	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if f.CreatedBy != "" {
		query["created_by"] = f.CreatedBy
	}

	if f.DateFrom != nil || f.DateTo != nil {
		dateRange := bson.M{}
		if f.DateFrom != nil {
			dateRange["$gte"] = *f.DateFrom
		}
		if f.DateTo != nil {
			dateRange["$lte"] = *f.DateTo
		}
		query["created_at"] = dateRange
	}

	if f.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		query["$or"] = []bson.M{
			{"type": bson.M{"$regex": pattern}},
			{"description": bson.M{"$regex": pattern}},
		}
	}

	return query
}

func (r *RepositoryImpl) List(ctx context.Context, filter ListFilter, page, pageSize int) ([]Operation, int64, error) {
	query := buildListQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	// Most-recently-created first, _id breaks timestamp ties deterministically.
	// Payload and errors are trimmed from listings; fetch one operation for those.
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetProjection(bson.M{"payload": 0, "payload_rows": 0, "errors": 0})

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	ops := []Operation{}
	if err = cursor.All(ctx, &ops); err != nil {
		return nil, 0, err
	}

	return ops, total, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

func (r *RepositoryImpl) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objIDs = append(objIDs, objID)
	}

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *RepositoryImpl) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{
		"status":     bson.M{"$in": []OperationStatus{StatusCompleted, StatusFailed, StatusCancelled}},
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *RepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
	})
	return err
}
