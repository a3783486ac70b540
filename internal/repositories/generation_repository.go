package repositories

import (
	"context"
	"time"

	"github.com/takopi/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GenerationRepository stores Meshy tasks per user
type GenerationRepository interface {
	CreateGeneration(ctx context.Context, gen *models.Generation) error
	GetGenerationByID(ctx context.Context, id string) (*models.Generation, error)
	GetGenerationsByUserID(ctx context.Context, userID uint, status string, skip, limit int64) ([]models.Generation, int64, error)
	UpdateGenerationStatus(ctx context.Context, gen *models.Generation, fromStatus string) error
	EnsureIndexes(ctx context.Context) error
}

type MongoGenerationRepository struct {
	collection *mongo.Collection
}

func NewMongoGenerationRepository(db *mongo.Database) *MongoGenerationRepository {
	return &MongoGenerationRepository{collection: db.Collection("generations")}
}

func (r *MongoGenerationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "task_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (r *MongoGenerationRepository) CreateGeneration(ctx context.Context, gen *models.Generation) error {
	now := time.Now().UTC()
	gen.ID = primitive.NewObjectID()
	gen.CreatedAt = now
	gen.UpdatedAt = now
	if gen.Status == "" {
		gen.Status = models.GenerationPending
	}
	_, err := r.collection.InsertOne(ctx, gen)
	return translateMongoError(err)
}

func (r *MongoGenerationRepository) GetGenerationByID(ctx context.Context, id string) (*models.Generation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var gen models.Generation
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&gen); err != nil {
		return nil, translateMongoError(err)
	}
	return &gen, nil
}

// GetGenerationsByUserID lists a user's tasks newest first, optionally narrowed to one status.
func (r *MongoGenerationRepository) GetGenerationsByUserID(ctx context.Context, userID uint, status string, skip, limit int64) ([]models.Generation, int64, error) {
	query := bson.M{"user_id": userID}
	if status != "" {
		query["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	gens := []models.Generation{}
	if err := cursor.All(ctx, &gens); err != nil {
		return nil, 0, err
	}
	return gens, total, nil
}

// UpdateGenerationStatus writes back the fields refreshed from Meshy. The write only applies while the
// stored status still equals fromStatus; otherwise ErrConflict is returned and gen should be reloaded.
func (r *MongoGenerationRepository) UpdateGenerationStatus(ctx context.Context, gen *models.Generation, fromStatus string) error {
	gen.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"status":        gen.Status,
			"progress":      gen.Progress,
			"model_urls":    gen.ModelURLs,
			"thumbnail_url": gen.ThumbnailURL,
			"texture_urls":  gen.TextureURLs,
			"error":         gen.Error,
			"finished_at":   gen.FinishedAt,
			"updated_at":    gen.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": gen.ID, "status": fromStatus}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}
