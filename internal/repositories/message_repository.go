package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatapp/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts message persistence.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error)
	ListForChat(ctx context.Context, chatID primitive.ObjectID, limit, offset int) ([]models.Message, error)
	LastMessageTime(ctx context.Context, chatID primitive.ObjectID) (*time.Time, error)
	SetContent(ctx context.Context, id primitive.ObjectID, content, contentEnc string) error
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	SetReactions(ctx context.Context, id primitive.ObjectID, reactions []models.Reaction) error
	DeleteForChat(ctx context.Context, chatID primitive.ObjectID) error
}

// MessageRepo is the MongoDB implementation of MessageRepository.
type MessageRepo struct {
	col *mongo.Collection
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *mongo.Database) *MessageRepo {
	return &MessageRepo{col: db.Collection("messages")}
}

// Create inserts a message document.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return msg, nil
}

// GetByID fetches a single message, tombstoned or not.
func (r *MessageRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var msg models.Message
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListForChat returns non-tombstoned messages newest first, paginated.
func (r *MessageRepo) ListForChat(ctx context.Context, chatID primitive.ObjectID, limit, offset int) ([]models.Message, error) {
	filter := bson.M{"chat_id": chatID, "deleted_at": nil}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []models.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// LastMessageTime returns the newest message timestamp in the chat, nil if none.
func (r *MessageRepo) LastMessageTime(ctx context.Context, chatID primitive.ObjectID) (*time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"created_at": 1})
	var doc struct {
		CreatedAt time.Time `bson:"created_at"`
	}
	err := r.col.FindOne(ctx, bson.M{"chat_id": chatID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.CreatedAt, nil
}

// SetContent replaces the message body and marks it edited.
func (r *MessageRepo) SetContent(ctx context.Context, id primitive.ObjectID, content, contentEnc string) error {
	update := bson.M{"$set": bson.M{
		"content":     content,
		"content_enc": contentEnc,
		"edited":      true,
		"updated_at":  time.Now().UTC(),
	}}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SoftDelete stamps the tombstone. The record stays queryable by id.
func (r *MessageRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"deleted_at": time.Now().UTC()}}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// SetReactions replaces the reaction list. Last write wins.
func (r *MessageRepo) SetReactions(ctx context.Context, id primitive.ObjectID, reactions []models.Reaction) error {
	update := bson.M{"$set": bson.M{
		"reactions":  reactions,
		"updated_at": time.Now().UTC(),
	}}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// DeleteForChat removes every message belonging to the chat.
func (r *MessageRepo) DeleteForChat(ctx context.Context, chatID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"chat_id": chatID})
	return err
}
