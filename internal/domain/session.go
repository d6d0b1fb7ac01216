package domain

// Claims is the decoded payload of a bearer token.
type Claims map[string]any

// AuthState is the session snapshot published to observers.
// An empty Token means no token is held.
type AuthState struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	User            *User  `json:"user"`
	Token           string `json:"-"`
}

// Unauthenticated returns the zero session state.
func Unauthenticated() AuthState {
	return AuthState{}
}

// Authenticated returns a session state for user holding token.
func Authenticated(user User, token string) AuthState {
	return AuthState{IsAuthenticated: true, User: &user, Token: token}
}

// UserID returns the signed-in identity, if any.
func (s AuthState) UserID() (int64, bool) {
	if !s.IsAuthenticated || s.User == nil {
		return 0, false
	}
	return s.User.ID, true
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	State      AuthState
	RedirectTo string
}
