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

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	Create(ctx context.Context, chat models.Chat) (models.Chat, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error)
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (models.Chat, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Chat, error)
	ListIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	AddParticipants(ctx context.Context, chatID primitive.ObjectID, userIDs []primitive.ObjectID) error
	Delete(ctx context.Context, chatID primitive.ObjectID) error
}

// ChatRepo is the MongoDB implementation of ChatRepository.
type ChatRepo struct {
	col *mongo.Collection
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *mongo.Database) *ChatRepo {
	return &ChatRepo{col: db.Collection("chats")}
}

// Create inserts a chat document.
func (r *ChatRepo) Create(ctx context.Context, chat models.Chat) (models.Chat, error) {
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, chat)
	if err != nil {
		return models.Chat{}, err
	}
	chat.ID = res.InsertedID.(primitive.ObjectID)
	return chat, nil
}

// GetByID fetches a chat by id.
func (r *ChatRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Chat, error) {
	var chat models.Chat
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// FindDirect looks up the direct chat whose participant set is exactly {a, b}.
func (r *ChatRepo) FindDirect(ctx context.Context, a, b primitive.ObjectID) (models.Chat, error) {
	var chat models.Chat
	filter := bson.M{
		"kind":         models.ChatDirect,
		"participants": bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
	err := r.col.FindOne(ctx, filter).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListForUser returns chats the user participates in, paginated.
func (r *ChatRepo) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int) ([]models.Chat, error) {
	opts := options.Find().SetSkip(int64(offset)).SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	var chats []models.Chat
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// ListIDsForUser returns the ids of every chat the user participates in.
func (r *ChatRepo) ListIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.col.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// AddParticipants adds users to a group chat. Idempotent per user.
func (r *ChatRepo) AddParticipants(ctx context.Context, chatID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"participants": bson.M{"$each": userIDs}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := r.col.UpdateByID(ctx, chatID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}

// Delete removes the chat record.
func (r *ChatRepo) Delete(ctx context.Context, chatID primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": chatID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrChatNotFound
	}
	return nil
}
