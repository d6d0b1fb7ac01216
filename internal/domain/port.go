//go:generate mockgen -source=port.go -destination=../mocks/mock_port.go -package=mocks

package domain

import (
	"context"
	"time"
)

// KeyValueStore persists session values across restarts.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// AvailabilityChecker answers whether a username or email is still free.
type AvailabilityChecker interface {
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckEmail(ctx context.Context, email string) (bool, error)
}

// IdentityIssuer registers identities and exchanges credentials for tokens.
type IdentityIssuer interface {
	AvailabilityChecker
	Register(ctx context.Context, profile Profile) (*User, error)
	Login(ctx context.Context, creds Credentials) (string, error)
}

// RelationshipService is the remote source of truth for friendships.
type RelationshipService interface {
	Friends(ctx context.Context) ([]User, error)
	AvailableUsers(ctx context.Context) ([]User, error)
	SentRequests(ctx context.Context) ([]FriendRequest, error)
	ReceivedRequests(ctx context.Context) ([]FriendRequest, error)
	SendRequest(ctx context.Context, receiverID int64) (*FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID int64) (*FriendRequest, error)
	DeclineRequest(ctx context.Context, requestID int64) (*FriendRequest, error)
	CancelRequest(ctx context.Context, requestID int64) (*FriendRequest, error)
	RemoveFriend(ctx context.Context, friendID int64) error
}

// TokenCodec reads claims out of bearer tokens.
type TokenCodec interface {
	Decode(token string) (Claims, error)
	ExtractIdentity(claims Claims) *User
	IsExpired(claims Claims, now time.Time) bool
	Expiry(claims Claims) (time.Time, bool)
}

// Authorizer lets outbound requests consult the session.
type Authorizer interface {
	// CheckExpiration logs the session out when its token has expired and
	// reports whether that happened.
	CheckExpiration(ctx context.Context) bool
	AuthorizationValue() (string, bool)
	HandleUnauthorized(ctx context.Context)
}

// Confirm asks the user whether friendID should really be removed.
type Confirm func(ctx context.Context, friend User) bool
