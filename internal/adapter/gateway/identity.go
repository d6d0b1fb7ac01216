package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"fap-client/internal/domain"
)

type loginResponse struct {
	Token string `json:"token"`
}

// IdentityGateway implements domain.IdentityIssuer over the /auth REST API.
type IdentityGateway struct {
	client *apiClient
}

// NewIdentityGateway creates a gateway for the identity issuer.
func NewIdentityGateway(opts Options) *IdentityGateway {
	return &IdentityGateway{client: newAPIClient("identity", opts)}
}

// Register forwards a registration profile.
func (g *IdentityGateway) Register(ctx context.Context, profile domain.Profile) (*domain.User, error) {
	var user domain.User
	if err := g.client.do(ctx, http.MethodPost, "/auth/register", nil, profile, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (g *IdentityGateway) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var resp loginResponse
	if err := g.client.do(ctx, http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: login response carries no token", domain.ErrMalformedToken)
	}
	return resp.Token, nil
}

// CheckUsername reports whether username is still available.
func (g *IdentityGateway) CheckUsername(ctx context.Context, username string) (bool, error) {
	return g.check(ctx, "/auth/checkUsername", "username", username)
}

// CheckEmail reports whether email is still available.
func (g *IdentityGateway) CheckEmail(ctx context.Context, email string) (bool, error) {
	return g.check(ctx, "/auth/checkEmail", "email", email)
}

func (g *IdentityGateway) check(ctx context.Context, endpoint, param, value string) (bool, error) {
	var available bool
	if err := g.client.do(ctx, http.MethodGet, endpoint, url.Values{param: {value}}, nil, &available); err != nil {
		return false, err
	}
	return available, nil
}
