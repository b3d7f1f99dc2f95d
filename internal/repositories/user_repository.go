package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatapp/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	BulkUsers(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Search(ctx context.Context, prefix string, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, avatar string) error
	SetOnline(ctx context.Context, id primitive.ObjectID, online bool) error
	AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error
	IncrementUnread(ctx context.Context, userID, chatID primitive.ObjectID, delta int) error
	ResetUnread(ctx context.Context, userID, chatID primitive.ObjectID) error
}

// UserRepo is the MongoDB implementation of UserRepository.
type UserRepo struct {
	col *mongo.Collection
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{col: db.Collection("users")}
}

// Create inserts a new user document.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return models.User{}, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByUsername fetches a user by its unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ExistsByUsernameOrEmail reports whether either identifier is taken.
func (r *UserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	count, err := r.col.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
	return count > 0, err
}

// BulkUsers fetches multiple users in one query.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Search returns users whose username starts with the prefix.
func (r *UserRepo) Search(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	filter := bson.M{"username": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile sets the mutable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, fullName, avatar string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if fullName != "" {
		set["full_name"] = fullName
	}
	if avatar != "" {
		set["avatar"] = avatar
	}
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// SetOnline flips the presence flag; going offline also stamps last seen.
func (r *UserRepo) SetOnline(ctx context.Context, id primitive.ObjectID, online bool) error {
	set := bson.M{"online": online}
	if !online {
		set["last_seen"] = time.Now().UTC()
	}
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// AddFriend adds friendID to the user's friend set. Idempotent.
func (r *UserRepo) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"friends": friendID}})
	return err
}

// RemoveFriend removes friendID from the user's friend set.
func (r *UserRepo) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) error {
	_, err := r.col.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"friends": friendID}})
	return err
}

// IncrementUnread bumps the user's unread counter for one chat.
func (r *UserRepo) IncrementUnread(ctx context.Context, userID, chatID primitive.ObjectID, delta int) error {
	field := "unread_counts." + chatID.Hex()
	_, err := r.col.UpdateByID(ctx, userID, bson.M{"$inc": bson.M{field: delta}})
	return err
}

// ResetUnread clears the user's unread counter for one chat.
func (r *UserRepo) ResetUnread(ctx context.Context, userID, chatID primitive.ObjectID) error {
	field := "unread_counts." + chatID.Hex()
	_, err := r.col.UpdateByID(ctx, userID, bson.M{"$unset": bson.M{field: ""}})
	return err
}
