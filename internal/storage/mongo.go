package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hyperjump/lexilaw/internal/models"
)

// mongoRecord is the chat_logs document shape shared with the existing dashboard.
type mongoRecord struct {
	Timestamp         time.Time `bson:"timestamp"`
	UserQuestion      string    `bson:"user_question"`
	AssistantResponse string    `bson:"assistant_response"`
	UsedCase          *string   `bson:"used_case"`
	SourceDocuments   []string  `bson:"source_documents"`
	ChatID            string    `bson:"chat_id"`
}

func toMongo(rec *models.InteractionRecord) mongoRecord {
	return mongoRecord{
		Timestamp:         rec.Timestamp.UTC(),
		UserQuestion:      rec.Question,
		AssistantResponse: rec.Answer,
		UsedCase:          rec.UsedCase,
		SourceDocuments:   sourcesOrEmpty(rec.SourceDocumentIDs),
		ChatID:            rec.SessionID,
	}
}

func (m mongoRecord) record() *models.InteractionRecord {
	return &models.InteractionRecord{
		Timestamp:         m.Timestamp.UTC(),
		Question:          m.UserQuestion,
		Answer:            m.AssistantResponse,
		UsedCase:          m.UsedCase,
		SourceDocumentIDs: m.SourceDocuments,
		SessionID:         m.ChatID,
	}
}

// MongoLog implements Log over a MongoDB collection.
type MongoLog struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoLog connects to uri and uses database.collection for records.
func NewMongoLog(ctx context.Context, uri, database, collection string) (*MongoLog, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo log requires a connection uri")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoLog{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Append inserts one record.
func (m *MongoLog) Append(ctx context.Context, rec *models.InteractionRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if _, err := m.coll.InsertOne(ctx, toMongo(rec)); err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

// ListInteractions returns records sorted by timestamp.
func (m *MongoLog) ListInteractions(ctx context.Context, opts ListOptions) ([]*models.InteractionRecord, error) {
	dir := 1
	if opts.Newest {
		dir = -1
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: dir}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	cur, err := m.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("find chat logs: %w", err)
	}
	defer cur.Close(ctx)

	var out []*models.InteractionRecord
	for cur.Next(ctx) {
		var doc mongoRecord
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode chat log: %w", err)
		}
		out = append(out, doc.record())
	}
	return out, cur.Err()
}

// Close disconnects the client.
func (m *MongoLog) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
