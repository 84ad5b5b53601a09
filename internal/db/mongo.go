package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

const importsCollection = "feedback_imports"

// MongoRepository implements Repository on a MongoDB database.
type MongoRepository struct {
	client   *mongo.Client
	feedback *mongo.Collection
	imports  *mongo.Collection
}

func NewMongoRepository(ctx context.Context, uri, dbName, collection string) (*MongoRepository, error) {
	if uri == "" {
		return nil, errors.New("mongo_uri is not set")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	database := client.Database(dbName)
	repo := &MongoRepository{
		client:   client,
		feedback: database.Collection(collection),
		imports:  database.Collection(importsCollection),
	}

	if err := repo.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.feedback.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "submittedAt", Value: -1}}, Options: options.Index().SetName("submittedAt_desc")},
		{
			Keys: bson.D{{Key: "client_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_client_id").
				SetPartialFilterExpression(bson.M{"client_id": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create feedback indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepository) InsertFeedback(ctx context.Context, f *model.Feedback) (bool, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.SubmittedAt.IsZero() {
		f.SubmittedAt = time.Now().UTC()
	}

	_, err := r.feedback.InsertOne(ctx, f)
	if err == nil {
		return false, nil
	}
	if isDuplicateKey(err) {
		return true, nil
	}
	return false, err
}

func (r *MongoRepository) InsertFeedbackBatch(ctx context.Context, feedback []*model.Feedback) error {
	if len(feedback) == 0 {
		return nil
	}

	docs := make([]any, 0, len(feedback))
	for _, f := range feedback {
		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		docs = append(docs, f)
	}

	_, err := r.feedback.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !isDuplicateKey(err) {
		return err
	}
	return nil
}

func (r *MongoRepository) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.feedback.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	feedback := []model.Feedback{}
	if err := cursor.All(ctx, &feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

func (r *MongoRepository) CreateImport(ctx context.Context, file *model.ImportFile) error {
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	_, err := r.imports.InsertOne(ctx, file)
	return err
}

func (r *MongoRepository) GetImport(ctx context.Context, id string) (*model.ImportFile, error) {
	var file model.ImportFile
	err := r.imports.FindOne(ctx, bson.M{"_id": id}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrImportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *MongoRepository) UpdateImportStatus(ctx context.Context, id string, status model.ImportStatus, imported int, errorMessage *string) error {
	update := bson.M{"$set": bson.M{
		"status":        status,
		"imported":      imported,
		"error_message": errorMessage,
		"updated_at":    time.Now().UTC(),
	}}

	result, err := r.imports.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrImportNotFound
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code != 11000 {
				return false
			}
		}
		return len(we.WriteErrors) > 0
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code != 11000 {
				return false
			}
		}
		return len(bwe.WriteErrors) > 0
	}
	return false
}
