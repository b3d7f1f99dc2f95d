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

var ErrRequestNotFound = errors.New("friend request not found")

// FriendRequestRepository abstracts friend-request persistence.
type FriendRequestRepository interface {
	Create(ctx context.Context, senderID, receiverID primitive.ObjectID) (models.FriendRequest, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.FriendRequest, error)
	PendingExists(ctx context.Context, senderID, receiverID primitive.ObjectID) (bool, error)
	ListIncoming(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteBetween(ctx context.Context, a, b primitive.ObjectID) error
}

// FriendRequestRepo is the MongoDB implementation of FriendRequestRepository.
type FriendRequestRepo struct {
	col *mongo.Collection
}

// NewFriendRequestRepo constructs a FriendRequestRepo.
func NewFriendRequestRepo(db *mongo.Database) *FriendRequestRepo {
	return &FriendRequestRepo{col: db.Collection("friend_requests")}
}

// Create inserts a pending request.
func (r *FriendRequestRepo) Create(ctx context.Context, senderID, receiverID primitive.ObjectID) (models.FriendRequest, error) {
	now := time.Now().UTC()
	req := models.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.RequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	res, err := r.col.InsertOne(ctx, req)
	if err != nil {
		return models.FriendRequest{}, err
	}
	req.ID = res.InsertedID.(primitive.ObjectID)
	return req, nil
}

// GetByID fetches a request by id.
func (r *FriendRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// PendingExists reports whether a pending request exists for the ordered pair.
func (r *FriendRequestRepo) PendingExists(ctx context.Context, senderID, receiverID primitive.ObjectID) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"status":      models.RequestPending,
	})
	return count > 0, err
}

// ListIncoming returns pending requests addressed to the receiver, newest first.
func (r *FriendRequestRepo) ListIncoming(ctx context.Context, receiverID primitive.ObjectID) ([]models.FriendRequest, error) {
	filter := bson.M{"receiver_id": receiverID, "status": models.RequestPending}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var reqs []models.FriendRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// SetStatus moves the request to a terminal state.
func (r *FriendRequestRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	res, err := r.col.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// Delete removes a request.
func (r *FriendRequestRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// DeleteBetween purges all requests between two users, both directions,
// so a fresh request can be sent after a removal.
func (r *FriendRequestRepo) DeleteBetween(ctx context.Context, a, b primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}})
	return err
}
