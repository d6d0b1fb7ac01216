package domain

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a friend request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusDeclined RequestStatus = "DECLINED"
	StatusCanceled RequestStatus = "CANCELED"
)

// Terminal reports whether no further transition is possible. An accepted
// request is only retired by removing the friendship.
func (s RequestStatus) Terminal() bool {
	return s != StatusPending
}

// Transition is an action applied to a friend request.
type Transition string

const (
	TransitionAccept  Transition = "accept"
	TransitionDecline Transition = "decline"
	TransitionCancel  Transition = "cancel"
)

// Target returns the status a pending request moves to.
func (t Transition) Target() RequestStatus {
	switch t {
	case TransitionAccept:
		return StatusAccepted
	case TransitionDecline:
		return StatusDeclined
	case TransitionCancel:
		return StatusCanceled
	}
	return ""
}

// FriendRequest is a directed invitation from Sender to Receiver.
type FriendRequest struct {
	ID           int64         `json:"id"`
	Sender       User          `json:"sender"`
	Receiver     User          `json:"receiver"`
	RequestTime  Timestamp     `json:"requestTime"`
	ResponseTime *Timestamp    `json:"responseTime,omitempty"`
	Status       RequestStatus `json:"status"`
}

// CanApply checks that actorID may apply t to the request in its current state.
// Accept and decline belong to the receiver, cancel to the sender, and only
// pending requests move.
func (r FriendRequest) CanApply(t Transition, actorID int64) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: request %d is %s", ErrRelationshipConflict, r.ID, r.Status)
	}
	switch t {
	case TransitionAccept, TransitionDecline:
		if r.Receiver.ID != actorID {
			return fmt.Errorf("%w: only the receiver may %s request %d", ErrRelationshipConflict, t, r.ID)
		}
	case TransitionCancel:
		if r.Sender.ID != actorID {
			return fmt.Errorf("%w: only the sender may cancel request %d", ErrRelationshipConflict, r.ID)
		}
	default:
		return fmt.Errorf("%w: unknown transition %q", ErrRelationshipConflict, t)
	}
	return nil
}

// Apply moves the request to the status t leads to and stamps the response time.
func (r *FriendRequest) Apply(t Transition, actorID int64, at time.Time) error {
	if err := r.CanApply(t, actorID); err != nil {
		return err
	}
	r.Status = t.Target()
	r.ResponseTime = &Timestamp{Time: at}
	return nil
}
