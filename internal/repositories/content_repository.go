package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/takopi/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter fields that can be adjusted with IncrementCounter.
const (
	CounterLikes     = "likes_count"
	CounterPurchases = "purchases_count"
	CounterViews     = "views_count"
)

// ContentRepository defines the interface for content data operations
type ContentRepository interface {
	CreateContent(ctx context.Context, content *models.Content) error
	GetContentByID(ctx context.Context, id string) (*models.Content, error)
	GetContentsByIDs(ctx context.Context, ids []string) (map[string]models.Content, error)
	ListContent(ctx context.Context, filter models.ContentFilter, skip, limit int64) ([]models.Content, int64, error)
	UpdateContent(ctx context.Context, content *models.Content) error
	PublishContent(ctx context.Context, id string, at time.Time) error
	DeleteContent(ctx context.Context, id string) error
	IncrementCounter(ctx context.Context, id, field string, delta int) error
	EnsureIndexes(ctx context.Context) error
}

// MongoContentRepository implements ContentRepository for MongoDB
type MongoContentRepository struct {
	collection *mongo.Collection
}

// NewMongoContentRepository creates a new MongoContentRepository
func NewMongoContentRepository(db *mongo.Database) *MongoContentRepository {
	return &MongoContentRepository{collection: db.Collection("contents")}
}

func (r *MongoContentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "published_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "likes_count", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	})
	return err
}

// CreateContent creates a new item in MongoDB
func (r *MongoContentRepository) CreateContent(ctx context.Context, content *models.Content) error {
	now := time.Now().UTC()
	content.ID = primitive.NewObjectID()
	content.CreatedAt = now
	content.UpdatedAt = now
	if content.Tags == nil {
		content.Tags = []string{}
	}
	_, err := r.collection.InsertOne(ctx, content)
	return translateMongoError(err)
}

// GetContentByID retrieves an item by ID from MongoDB
func (r *MongoContentRepository) GetContentByID(ctx context.Context, id string) (*models.Content, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var content models.Content
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&content); err != nil {
		return nil, translateMongoError(err)
	}
	return &content, nil
}

// GetContentsByIDs loads several items keyed by hex ID. Malformed or unknown IDs are skipped.
func (r *MongoContentRepository) GetContentsByIDs(ctx context.Context, ids []string) (map[string]models.Content, error) {
	out := make(map[string]models.Content, len(ids))
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var contents []models.Content
	if err := cursor.All(ctx, &contents); err != nil {
		return nil, err
	}
	for _, c := range contents {
		out[c.ID.Hex()] = c
	}
	return out, nil
}

// ListContent returns one page of items matching filter together with the total match count.
func (r *MongoContentRepository) ListContent(ctx context.Context, filter models.ContentFilter, skip, limit int64) ([]models.Content, int64, error) {
	query := buildContentQuery(filter)

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(contentSort(filter.Sort))
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	contents := []models.Content{}
	if err = cursor.All(ctx, &contents); err != nil {
		return nil, 0, err
	}
	return contents, total, nil
}

func buildContentQuery(f models.ContentFilter) bson.M {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.OwnerID != 0 {
		query["owner_id"] = f.OwnerID
	} else if f.OwnerIDs != nil {
		query["owner_id"] = bson.M{"$in": f.OwnerIDs}
	}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if f.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
			bson.M{"tags": pattern},
		}
	}
	return query
}

func contentSort(sort string) bson.D {
	switch sort {
	case "popular":
		return bson.D{{Key: "likes_count", Value: -1}, {Key: "purchases_count", Value: -1}, {Key: "_id", Value: -1}}
	case "price_asc":
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: -1}}
	case "price_desc":
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}}
	}
}

// UpdateContent persists the editable fields of an existing item
func (r *MongoContentRepository) UpdateContent(ctx context.Context, content *models.Content) error {
	content.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":         content.Title,
			"description":   content.Description,
			"category":      content.Category,
			"tags":          content.Tags,
			"price":         content.Price,
			"model_url":     content.ModelURL,
			"thumbnail_url": content.ThumbnailURL,
			"updated_at":    content.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": content.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PublishContent moves a draft to published. Anything not currently a draft yields ErrConflict.
func (r *MongoContentRepository) PublishContent(ctx context.Context, id string, at time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "status": models.ContentStatusDraft},
		bson.M{"$set": bson.M{"status": models.ContentStatusPublished, "published_at": at, "updated_at": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteContent deletes an item by ID from MongoDB
func (r *MongoContentRepository) DeleteContent(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementCounter adds delta to a counter field. Decrements never take it below zero.
func (r *MongoContentRepository) IncrementCounter(ctx context.Context, id, field string, delta int) error {
	switch field {
	case CounterLikes, CounterPurchases, CounterViews:
	default:
		return fmt.Errorf("unknown counter %q", field)
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		filter[field] = bson.M{"$gte": -delta}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}
