package chat

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"chatapp/internal/models"
	"chatapp/internal/repositories"
)

// FriendService implements the friend-request state machine and the
// friend set mutations: pending -> accepted | rejected, both terminal.
// A new request for a pair is possible only once no pending one exists.
type FriendService struct {
	users    repositories.UserRepository
	requests repositories.FriendRequestRepository
	hub      Broadcaster
}

// NewFriendService builds a FriendService.
func NewFriendService(users repositories.UserRepository, requests repositories.FriendRequestRepository, hub Broadcaster) *FriendService {
	return &FriendService{users: users, requests: requests, hub: hub}
}

// SendRequest creates a pending request and notifies the receiver's
// user room. Self-requests and duplicate pending requests are rejected.
func (s *FriendService) SendRequest(ctx context.Context, senderID, receiverID primitive.ObjectID) (models.FriendRequest, error) {
	if senderID == receiverID {
		return models.FriendRequest{}, fmt.Errorf("%w: cannot send a request to yourself", ErrValidation)
	}

	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.FriendRequest{}, fmt.Errorf("%w: user", ErrNotFound)
		}
		return models.FriendRequest{}, err
	}

	exists, err := s.requests.PendingExists(ctx, senderID, receiverID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if exists {
		return models.FriendRequest{}, fmt.Errorf("%w: request already pending", ErrConflict)
	}

	req, err := s.requests.Create(ctx, senderID, receiverID)
	if err != nil {
		return models.FriendRequest{}, err
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	s.hub.ToRoom(UserRoom(receiverID), EventFriendRequestReceived, map[string]any{
		"requestId": req.ID,
		"sender":    sender.Summary(),
	})
	return req, nil
}

// Accept marks the request accepted and adds each user to the other's
// friend set. Only the receiver may accept, and only while pending.
func (s *FriendService) Accept(ctx context.Context, callerID, requestID primitive.ObjectID) error {
	req, err := s.pendingForReceiver(ctx, callerID, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.SetStatus(ctx, requestID, models.RequestAccepted); err != nil {
		return err
	}
	if err := s.users.AddFriend(ctx, req.ReceiverID, req.SenderID); err != nil {
		return err
	}
	if err := s.users.AddFriend(ctx, req.SenderID, req.ReceiverID); err != nil {
		return err
	}

	senderPayload := map[string]any{"requestId": req.ID}
	if accepter, err := s.users.GetByID(ctx, callerID); err != nil {
		// Friendship is already committed; notify without the profile
		// rather than pushing a zero-value summary.
		log.Printf("accepter lookup failed: %v", err)
	} else {
		senderPayload["accepter"] = accepter.Summary()
	}
	s.hub.ToRoom(UserRoom(req.SenderID), EventFriendRequestAccepted, senderPayload)
	s.hub.ToRoom(UserRoom(req.ReceiverID), EventFriendRequestAccepted, map[string]any{
		"requestId": req.ID,
	})
	return nil
}

// Decline removes the pending request and notifies the sender.
func (s *FriendService) Decline(ctx context.Context, callerID, requestID primitive.ObjectID) error {
	req, err := s.pendingForReceiver(ctx, callerID, requestID)
	if err != nil {
		return err
	}

	if err := s.requests.Delete(ctx, requestID); err != nil {
		return err
	}

	s.hub.ToRoom(UserRoom(req.SenderID), EventFriendRequestDeclined, map[string]any{
		"requestId":  req.ID,
		"declinerId": callerID,
	})
	s.hub.ToRoom(UserRoom(req.ReceiverID), EventFriendRequestDeclined, map[string]any{
		"requestId": req.ID,
	})
	return nil
}

// Remove deletes the friendship both ways, purges any requests between
// the pair so a fresh one can be sent, and notifies the removed friend.
func (s *FriendService) Remove(ctx context.Context, callerID, friendID primitive.ObjectID) error {
	if callerID == friendID {
		return fmt.Errorf("%w: cannot remove yourself", ErrValidation)
	}

	if err := s.users.RemoveFriend(ctx, callerID, friendID); err != nil {
		return err
	}
	if err := s.users.RemoveFriend(ctx, friendID, callerID); err != nil {
		return err
	}
	if err := s.requests.DeleteBetween(ctx, callerID, friendID); err != nil {
		return err
	}

	s.hub.ToRoom(UserRoom(friendID), EventFriendRemoved, map[string]any{"removedBy": callerID})
	s.hub.ToRoom(UserRoom(callerID), EventFriendRemoved, map[string]any{"removedFriendId": friendID})
	return nil
}

// Friends returns the caller's friends as public profiles.
func (s *FriendService) Friends(ctx context.Context, userID primitive.ObjectID) ([]models.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	friends, err := s.users.BulkUsers(ctx, user.Friends)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.UserSummary, 0, len(friends))
	for _, f := range friends {
		summaries = append(summaries, f.Summary())
	}
	return summaries, nil
}

// IncomingRequests returns pending requests addressed to the user with
// senders resolved.
func (s *FriendService) IncomingRequests(ctx context.Context, userID primitive.ObjectID) ([]models.FriendRequestView, error) {
	reqs, err := s.requests.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]primitive.ObjectID, 0, len(reqs))
	for _, r := range reqs {
		senderIDs = append(senderIDs, r.SenderID)
	}
	senders, err := s.users.BulkUsers(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(senders))
	for _, u := range senders {
		byID[u.ID] = u.Summary()
	}

	views := make([]models.FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		views = append(views, models.FriendRequestView{
			ID:        r.ID,
			Sender:    byID[r.SenderID],
			CreatedAt: r.CreatedAt,
		})
	}
	return views, nil
}

// pendingForReceiver loads a request and enforces that the caller is
// its receiver and the request is still pending.
func (s *FriendService) pendingForReceiver(ctx context.Context, callerID, requestID primitive.ObjectID) (models.FriendRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if errors.Is(err, repositories.ErrRequestNotFound) {
		return models.FriendRequest{}, fmt.Errorf("%w: friend request", ErrNotFound)
	}
	if err != nil {
		return models.FriendRequest{}, err
	}
	if req.ReceiverID != callerID {
		return models.FriendRequest{}, fmt.Errorf("%w: not the request receiver", ErrNotAuthorized)
	}
	if req.Status != models.RequestPending {
		return models.FriendRequest{}, fmt.Errorf("%w: request already %s", ErrConflict, req.Status)
	}
	return req, nil
}
