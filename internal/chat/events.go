package chat

import "go.mongodb.org/mongo-driver/bson/primitive"

// Server-to-client event names. One name per broadcast, shared by both
// transports so a REST mutation and a socket mutation emit identically.
const (
	EventNewMessage            = "newMessage"
	EventMessageEdited         = "messageEdited"
	EventMessageDeleted        = "messageDeleted"
	EventMessageReaction       = "messageReactionUpdate"
	EventUserTyping            = "userTyping"
	EventChatCreated           = "chatCreated"
	EventChatDeleted           = "chatDeleted"
	EventChatInvite            = "chatInvite"
	EventFriendRequestReceived = "friendRequestReceived"
	EventFriendRequestAccepted = "friendRequestAccepted"
	EventFriendRequestDeclined = "friendRequestDeclined"
	EventFriendRemoved         = "friendRemoved"
	EventUserOnline            = "userOnline"
	EventUserOffline           = "userOffline"
	EventError                 = "error"
)

// Broadcaster delivers events to live connections. Implemented by the
// websocket hub; services stay transport-agnostic behind it.
type Broadcaster interface {
	ToRoom(room, event string, data any)
	ToAll(event string, data any)
}

// UserRoom names the private room every connection of one user joins.
func UserRoom(userID primitive.ObjectID) string {
	return "user:" + userID.Hex()
}

// ChatRoom names the fanout room for one chat.
func ChatRoom(chatID primitive.ObjectID) string {
	return "chat:" + chatID.Hex()
}
