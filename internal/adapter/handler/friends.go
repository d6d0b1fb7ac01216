package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"fap-client/internal/domain"

	"github.com/labstack/echo/v4"
)

// RelationshipManager is the relationship store surface used by the local API.
type RelationshipManager interface {
	Projection() domain.Projection
	LoadAll(ctx context.Context) (domain.Projection, error)
	Create(ctx context.Context, targetID int64) (*domain.FriendRequest, error)
	Accept(ctx context.Context, requestID int64) (*domain.FriendRequest, error)
	Decline(ctx context.Context, requestID int64) (*domain.FriendRequest, error)
	Cancel(ctx context.Context, requestID int64) (*domain.FriendRequest, error)
	Remove(ctx context.Context, friendID int64, confirm domain.Confirm) error
}

// FriendsHandler serves /api/friends.
type FriendsHandler struct {
	store  RelationshipManager
	logger *slog.Logger
}

// NewFriendsHandler creates a new friends handler.
func NewFriendsHandler(store RelationshipManager, logger *slog.Logger) *FriendsHandler {
	return &FriendsHandler{store: store, logger: logger}
}

// List returns the projection, loading it on first use.
func (h *FriendsHandler) List(c echo.Context) error {
	p := h.store.Projection()
	if p.Loaded() {
		return c.JSON(http.StatusOK, p)
	}
	return h.Reload(c)
}

// Reload forces a full reload of the projection.
func (h *FriendsHandler) Reload(c echo.Context) error {
	p, err := h.store.LoadAll(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create sends a friend request to :targetId.
func (h *FriendsHandler) Create(c echo.Context) error {
	target, err := idParam(c, "targetId")
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusCreated, func(ctx context.Context) (*domain.FriendRequest, error) {
		return h.store.Create(ctx, target)
	})
}

// Accept accepts request :id.
func (h *FriendsHandler) Accept(c echo.Context) error {
	return h.transition(c, h.store.Accept)
}

// Decline declines request :id.
func (h *FriendsHandler) Decline(c echo.Context) error {
	return h.transition(c, h.store.Decline)
}

// Cancel withdraws request :id.
func (h *FriendsHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.store.Cancel)
}

// Remove ends the friendship with :id. The caller confirms with ?confirm=true.
func (h *FriendsHandler) Remove(c echo.Context) error {
	friendID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	confirmed, _ := strconv.ParseBool(c.QueryParam("confirm"))

	return h.respond(c, http.StatusOK, func(ctx context.Context) (*domain.FriendRequest, error) {
		return nil, h.store.Remove(ctx, friendID, func(context.Context, domain.User) bool {
			return confirmed
		})
	})
}

func (h *FriendsHandler) transition(c echo.Context, op func(context.Context, int64) (*domain.FriendRequest, error)) error {
	requestID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, func(ctx context.Context) (*domain.FriendRequest, error) {
		return op(ctx, requestID)
	})
}

type mutationResponse struct {
	Request    *domain.FriendRequest `json:"request,omitempty"`
	Projection domain.Projection     `json:"projection"`
	Stale      bool                  `json:"stale,omitempty"`
}

// respond runs a mutation. Only the reload after a successful mutation can
// fail with ErrProjectionUnavailable, so that case is reported as success
// with a stale projection.
func (h *FriendsHandler) respond(c echo.Context, status int, fn func(context.Context) (*domain.FriendRequest, error)) error {
	ctx := c.Request().Context()
	req, err := fn(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrProjectionUnavailable) {
			return mapDomainError(err)
		}
		h.logger.WarnContext(ctx, "projection reload failed after mutation", "error", err)
		return c.JSON(status, mutationResponse{Request: req, Projection: h.store.Projection(), Stale: true})
	}
	return c.JSON(status, mutationResponse{Request: req, Projection: h.store.Projection()})
}

func idParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
