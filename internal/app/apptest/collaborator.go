// Package apptest provides an in-process identity and relationship service
// for exercising the wired client end to end.
package apptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fap-client/internal/domain"
)

// Password is accepted for every seeded user.
const Password = "Secret123!"

const signingKey = "apptest-signing-key-0123456789abcdef"

// Collaborator is a fake backend serving /auth and /friends.
type Collaborator struct {
	Server *httptest.Server
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	mu       sync.Mutex
	users    map[int64]domain.User
	friends  map[int64]map[int64]bool
	requests []domain.FriendRequest
	tokens   map[string]int64
	nextUser int64
	nextReq  int64
	hits     map[string]int
}

// NewCollaborator starts a backend seeded with users and closes it with t.
func NewCollaborator(t testing.TB, users ...domain.User) *Collaborator {
	t.Helper()
	c := &Collaborator{
		TokenTTL: time.Hour,
		users:    make(map[int64]domain.User),
		friends:  make(map[int64]map[int64]bool),
		tokens:   make(map[string]int64),
		hits:     make(map[string]int),
		nextReq:  1,
	}
	for _, u := range users {
		c.users[u.ID] = u
		if u.ID >= c.nextUser {
			c.nextUser = u.ID + 1
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", c.login)
	mux.HandleFunc("POST /auth/register", c.register)
	mux.HandleFunc("GET /auth/checkUsername", c.checkUsername)
	mux.HandleFunc("GET /auth/checkEmail", c.checkEmail)
	mux.HandleFunc("GET /friends", c.authed(c.listFriends))
	mux.HandleFunc("GET /friends/available-users", c.authed(c.availableUsers))
	mux.HandleFunc("GET /friends/requests/sent", c.authed(c.sentRequests))
	mux.HandleFunc("GET /friends/requests/received", c.authed(c.receivedRequests))
	mux.HandleFunc("POST /friends/requests/{id}", c.authed(c.sendRequest))
	mux.HandleFunc("POST /friends/requests/{id}/{action}", c.authed(c.respond))
	mux.HandleFunc("DELETE /friends/{id}", c.authed(c.removeFriend))

	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.hits[r.Method+" "+r.URL.Path]++
		c.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(c.Server.Close)
	return c
}

// URL is the backend's base URL.
func (c *Collaborator) URL() string {
	return c.Server.URL
}

// Hits counts requests for "METHOD /path".
func (c *Collaborator) Hits(route string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[route]
}

// Befriend records a friendship between a and b.
func (c *Collaborator) Befriend(a, b int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.link(a, b)
}

// Request adds a pending request and returns its id.
func (c *Collaborator) Request(senderID, receiverID int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addRequest(senderID, receiverID).ID
}

// RequestStatus reports the status of request id.
func (c *Collaborator) RequestStatus(id int64) domain.RequestStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.requests {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

// AreFriends reports whether a and b are friends.
func (c *Collaborator) AreFriends(a, b int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.friends[a][b]
}

// Mint issues a token for user expiring ttl from now.
func (c *Collaborator) Mint(user domain.User, ttl time.Duration) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   user.ID,
		"sub":      user.Email,
		"username": user.Username,
		"exp":      time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(signingKey))
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.tokens[signed] = user.ID
	c.mu.Unlock()
	return signed
}

func (c *Collaborator) link(a, b int64) {
	if c.friends[a] == nil {
		c.friends[a] = make(map[int64]bool)
	}
	if c.friends[b] == nil {
		c.friends[b] = make(map[int64]bool)
	}
	c.friends[a][b] = true
	c.friends[b][a] = true
}

func (c *Collaborator) addRequest(senderID, receiverID int64) domain.FriendRequest {
	req := domain.FriendRequest{
		ID:          c.nextReq,
		Sender:      c.users[senderID],
		Receiver:    c.users[receiverID],
		RequestTime: domain.Timestamp{Time: time.Now().UTC().Truncate(time.Second)},
		Status:      domain.StatusPending,
	}
	c.nextReq++
	c.requests = append(c.requests, req)
	return req
}

func (c *Collaborator) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	c.mu.Lock()
	var found *domain.User
	for _, u := range c.users {
		if strings.EqualFold(u.Email, creds.Email) {
			found = &u
			break
		}
	}
	c.mu.Unlock()
	if found == nil || creds.Password != Password {
		writeError(w, r, http.StatusUnauthorized, "Bad credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": c.Mint(*found, c.TokenTTL)})
}

func (c *Collaborator) register(w http.ResponseWriter, r *http.Request) {
	var profile domain.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid body")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if strings.EqualFold(u.Username, profile.Username) || strings.EqualFold(u.Email, profile.Email) {
			writeError(w, r, http.StatusConflict, "User already exists")
			return
		}
	}
	user := domain.User{
		ID:          c.nextUser,
		Username:    profile.Username,
		Email:       profile.Email,
		City:        profile.City,
		ZipCode:     profile.ZipCode,
		Street:      profile.Street,
		HouseNumber: profile.HouseNumber,
		Mobile:      profile.Mobile,
	}
	c.nextUser++
	c.users[user.ID] = user
	writeJSON(w, http.StatusCreated, user)
}

func (c *Collaborator) checkUsername(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")
	writeJSON(w, http.StatusOK, !c.exists(func(u domain.User) bool { return strings.EqualFold(u.Username, name) }))
}

func (c *Collaborator) checkEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	writeJSON(w, http.StatusOK, !c.exists(func(u domain.User) bool { return strings.EqualFold(u.Email, email) }))
}

func (c *Collaborator) exists(match func(domain.User) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range c.users {
		if match(u) {
			return true
		}
	}
	return false
}

type authedHandler func(w http.ResponseWriter, r *http.Request, self int64)

func (c *Collaborator) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		c.mu.Lock()
		self, known := c.tokens[token]
		c.mu.Unlock()
		if !ok || !known {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, self)
	}
}

func (c *Collaborator) listFriends(w http.ResponseWriter, _ *http.Request, self int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.User{}
	for id := range c.friends[self] {
		out = append(out, c.users[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *Collaborator) availableUsers(w http.ResponseWriter, _ *http.Request, self int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.User{}
	for id, u := range c.users {
		if id != self && !c.friends[self][id] {
			out = append(out, u)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *Collaborator) sentRequests(w http.ResponseWriter, _ *http.Request, self int64) {
	c.writeRequests(w, func(r domain.FriendRequest) bool { return r.Sender.ID == self })
}

func (c *Collaborator) receivedRequests(w http.ResponseWriter, _ *http.Request, self int64) {
	c.writeRequests(w, func(r domain.FriendRequest) bool { return r.Receiver.ID == self })
}

func (c *Collaborator) writeRequests(w http.ResponseWriter, match func(domain.FriendRequest) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.FriendRequest{}
	for _, r := range c.requests {
		if match(r) {
			out = append(out, r)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (c *Collaborator) sendRequest(w http.ResponseWriter, r *http.Request, self int64) {
	target, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[target]; !ok {
		writeError(w, r, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, c.addRequest(self, target))
}

func (c *Collaborator) respond(w http.ResponseWriter, r *http.Request, self int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	t := domain.Transition(r.PathValue("action"))
	if t.Target() == "" {
		writeError(w, r, http.StatusNotFound, "unknown action")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.requests {
		req := &c.requests[i]
		if req.ID != id {
			continue
		}
		if err := req.Apply(t, self, time.Now().UTC()); err != nil {
			writeError(w, r, http.StatusConflict, err.Error())
			return
		}
		if req.Status == domain.StatusAccepted {
			c.link(req.Sender.ID, req.Receiver.ID)
		}
		writeJSON(w, http.StatusOK, req)
		return
	}
	writeError(w, r, http.StatusNotFound, "Friend request not found")
}

func (c *Collaborator) removeFriend(w http.ResponseWriter, r *http.Request, self int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid id")
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.friends[self][id] {
		writeError(w, r, http.StatusNotFound, "Friendship not found")
		return
	}
	delete(c.friends[self], id)
	delete(c.friends[id], self)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]any{
		"path":       r.URL.Path,
		"message":    message,
		"statusCode": status,
		"statusName": strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")),
		"errorType":  fmt.Sprintf("HTTP_%d", status),
	})
}
