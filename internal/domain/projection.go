package domain

import "time"

// Projection is the client-side view of the signed-in user's relationships.
// Discoverable is derived from the other four lists on every load.
type Projection struct {
	SelfID           int64           `json:"selfId,omitempty"`
	Friends          []User          `json:"friends"`
	ReceivedRequests []FriendRequest `json:"receivedRequests"`
	SentRequests     []FriendRequest `json:"sentRequests"`
	Available        []User          `json:"availableUsers"`
	Discoverable     []User          `json:"discoverable"`
	LoadedAt         time.Time       `json:"loadedAt"`
}

// EmptyProjection returns a projection with non-nil empty lists.
func EmptyProjection() Projection {
	return Projection{
		Friends:          []User{},
		ReceivedRequests: []FriendRequest{},
		SentRequests:     []FriendRequest{},
		Available:        []User{},
		Discoverable:     []User{},
	}
}

// Loaded reports whether the projection has been fetched at least once.
func (p Projection) Loaded() bool {
	return !p.LoadedAt.IsZero()
}

// FindRequest looks id up in both request lists.
func (p Projection) FindRequest(id int64) (FriendRequest, bool) {
	for _, r := range p.ReceivedRequests {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range p.SentRequests {
		if r.ID == id {
			return r, true
		}
	}
	return FriendRequest{}, false
}

// FindFriend returns the friend with the given id.
func (p Projection) FindFriend(id int64) (User, bool) {
	for _, f := range p.Friends {
		if f.ID == id {
			return f, true
		}
	}
	return User{}, false
}
