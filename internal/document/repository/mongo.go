package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pdfgallery/pdfgallery/internal/document"
)

// MongoRepo reads the media library from a MongoDB collection. Attachments
// are keyed by their string _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(ctx context.Context, col *mongo.Collection) *MongoRepo {
	// listing is ordered by creation time
	idx := mongo.IndexModel{Keys: bson.D{{Key: "createdAt", Value: 1}}}
	_, _ = col.Indexes().CreateOne(ctx, idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, a *document.Attachment) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if _, err := m.col.InsertOne(ctx, a); err != nil {
		return "", err
	}
	return a.ID, nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Attachment, error) {
	var a document.Attachment
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*document.Attachment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Attachment{}
	for cur.Next(ctx) {
		var a document.Attachment
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
