package token

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"fap-client/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claim fallback chains. Order matters: downstream display depends on it.
var (
	emailClaims = []string{"email", "email_address", "mail", "emailAddress"}
	nameClaims  = []string{
		"username", "user_name", "preferred_username", "name", "given_name",
		"nickname", "login", "account_name", "display_name", "full_name",
	}
	idClaims = []string{"userId", "user_id", "id", "sub"}
)

// Codec decodes bearer tokens issued by the identity issuer. Signatures are
// not verified; the client only reads identity hints and the expiry.
type Codec struct {
	parser *jwt.Parser
}

// NewCodec creates a new Codec.
func NewCodec() *Codec {
	return &Codec{parser: jwt.NewParser()}
}

// Decode base64url-decodes the payload segment of raw into a claims map.
func (c *Codec) Decode(raw string) (domain.Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", domain.ErrMalformedToken, len(parts))
	}

	payload, err := c.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding: %w", domain.ErrMalformedToken, err)
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload json: %w", domain.ErrMalformedToken, err)
	}
	return domain.Claims(claims), nil
}

// ExtractIdentity derives a display identity from claims. Returns nil when no
// email can be found.
func (c *Codec) ExtractIdentity(claims domain.Claims) *domain.User {
	email, ok := extractEmail(claims)
	if !ok {
		return nil
	}

	username, ok := extractUsername(claims)
	if !ok {
		username = displayNameFromEmail(email)
	}

	return &domain.User{
		ID:          extractID(claims),
		Username:    username,
		Email:       email,
		City:        firstString(claims, "city"),
		ZipCode:     firstString(claims, "zipCode", "zip_code"),
		Street:      firstString(claims, "street"),
		HouseNumber: firstString(claims, "houseNumber", "house_number"),
		Mobile:      firstString(claims, "mobile", "phone"),
	}
}

// IsExpired reports whether claims are expired at now. Claims without a
// usable exp are expired.
func (c *Codec) IsExpired(claims domain.Claims, now time.Time) bool {
	exp, ok := c.Expiry(claims)
	if !ok {
		return true
	}
	return !exp.After(now)
}

// Expiry returns the exp claim as a time.
func (c *Codec) Expiry(claims domain.Claims) (time.Time, bool) {
	exp, err := jwt.MapClaims(claims).GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func extractEmail(claims domain.Claims) (string, bool) {
	for _, key := range emailClaims {
		if v, ok := claims[key].(string); ok && strings.Contains(v, "@") {
			return v, true
		}
	}
	if sub, ok := claims["sub"].(string); ok && strings.Contains(sub, "@") {
		return sub, true
	}
	return "", false
}

func extractUsername(claims domain.Claims) (string, bool) {
	for _, key := range nameClaims {
		v, ok := claims[key].(string)
		if !ok || v == "" || strings.Contains(v, "@") {
			continue
		}
		return v, true
	}
	return "", false
}

func extractID(claims domain.Claims) int64 {
	for _, key := range idClaims {
		if id, ok := numericID(claims[key]); ok {
			return id
		}
	}
	return 0
}

func numericID(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return id, err == nil
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func firstString(claims domain.Claims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// displayNameFromEmail turns "jane.doe@x" into "Jane Doe" and "jdoe@x" into "Jdoe".
func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	segments := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' })
	if !strings.ContainsAny(local, "._") {
		segments = []string{local}
	}
	for i, s := range segments {
		segments[i] = capitalize(s)
	}
	return strings.Join(segments, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
