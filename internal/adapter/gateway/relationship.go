package gateway

import (
	"context"
	"fmt"
	"net/http"

	"fap-client/internal/domain"
)

// RelationshipGateway implements domain.RelationshipService over the
// /friends REST API. Every call carries the session's bearer token.
type RelationshipGateway struct {
	client *apiClient
}

// NewRelationshipGateway creates a gateway for the relationship service.
func NewRelationshipGateway(opts Options) *RelationshipGateway {
	return &RelationshipGateway{client: newAPIClient("relationship", opts)}
}

func (g *RelationshipGateway) Friends(ctx context.Context) ([]domain.User, error) {
	return g.users(ctx, "/friends")
}

func (g *RelationshipGateway) AvailableUsers(ctx context.Context) ([]domain.User, error) {
	return g.users(ctx, "/friends/available-users")
}

func (g *RelationshipGateway) SentRequests(ctx context.Context) ([]domain.FriendRequest, error) {
	return g.requests(ctx, "/friends/requests/sent")
}

func (g *RelationshipGateway) ReceivedRequests(ctx context.Context) ([]domain.FriendRequest, error) {
	return g.requests(ctx, "/friends/requests/received")
}

func (g *RelationshipGateway) SendRequest(ctx context.Context, receiverID int64) (*domain.FriendRequest, error) {
	return g.post(ctx, fmt.Sprintf("/friends/requests/%d", receiverID))
}

func (g *RelationshipGateway) AcceptRequest(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return g.post(ctx, fmt.Sprintf("/friends/requests/%d/accept", requestID))
}

func (g *RelationshipGateway) DeclineRequest(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return g.post(ctx, fmt.Sprintf("/friends/requests/%d/decline", requestID))
}

func (g *RelationshipGateway) CancelRequest(ctx context.Context, requestID int64) (*domain.FriendRequest, error) {
	return g.post(ctx, fmt.Sprintf("/friends/requests/%d/cancel", requestID))
}

func (g *RelationshipGateway) RemoveFriend(ctx context.Context, friendID int64) error {
	return g.client.do(ctx, http.MethodDelete, fmt.Sprintf("/friends/%d", friendID), nil, nil, nil)
}

func (g *RelationshipGateway) users(ctx context.Context, endpoint string) ([]domain.User, error) {
	users := []domain.User{}
	if err := g.client.do(ctx, http.MethodGet, endpoint, nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *RelationshipGateway) requests(ctx context.Context, endpoint string) ([]domain.FriendRequest, error) {
	requests := []domain.FriendRequest{}
	if err := g.client.do(ctx, http.MethodGet, endpoint, nil, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (g *RelationshipGateway) post(ctx context.Context, endpoint string) (*domain.FriendRequest, error) {
	var req domain.FriendRequest
	if err := g.client.do(ctx, http.MethodPost, endpoint, nil, struct{}{}, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
