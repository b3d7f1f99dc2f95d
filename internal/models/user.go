package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document. Password is a bcrypt hash and never serialized.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	Password     string               `bson:"password" json:"-"`
	FullName     string               `bson:"full_name" json:"full_name"`
	Phone        string               `bson:"phone,omitempty" json:"phone,omitempty"`
	DOB          *time.Time           `bson:"dob,omitempty" json:"dob,omitempty"`
	Avatar       string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Online       bool                 `bson:"online" json:"online"`
	LastSeen     time.Time            `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
	Friends      []primitive.ObjectID `bson:"friends,omitempty" json:"friends,omitempty"`
	UnreadCounts map[string]int       `bson:"unread_counts,omitempty" json:"unread_counts,omitempty"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the public projection embedded in broadcasts and listings.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"full_name" json:"full_name"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Online   bool               `bson:"online" json:"online"`
}

// Summary strips the user down to its public fields.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar,
		Online:   u.Online,
	}
}

// HasFriend reports whether id is in the user's friend set.
func (u User) HasFriend(id primitive.ObjectID) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}
