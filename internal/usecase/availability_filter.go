package usecase

import "fap-client/internal/domain"

// Discoverable returns the available users that are neither friends nor on
// either side of a listed request, preserving the order of p.Available.
func Discoverable(p domain.Projection) []domain.User {
	excluded := make(map[int64]struct{}, len(p.Friends)+len(p.SentRequests)+len(p.ReceivedRequests)+1)
	for _, f := range p.Friends {
		excluded[f.ID] = struct{}{}
	}
	for _, r := range p.SentRequests {
		excluded[r.Receiver.ID] = struct{}{}
	}
	for _, r := range p.ReceivedRequests {
		excluded[r.Sender.ID] = struct{}{}
	}
	if p.SelfID != 0 {
		excluded[p.SelfID] = struct{}{}
	}

	out := make([]domain.User, 0, len(p.Available))
	for _, u := range p.Available {
		if _, skip := excluded[u.ID]; !skip {
			out = append(out, u)
		}
	}
	return out
}
