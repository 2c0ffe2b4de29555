package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/models"
)

const issuer = "microlearn-be"

func init() {
	// exp and iat are encoded with millisecond fractions.
	jwt.TimePrecision = time.Millisecond
}

// Claims defines the JWT claims structure.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a session token.
type Identity struct {
	Subject   string
	Role      models.Role
	ExpiresAt time.Time
}

// TokenService issues and verifies stateless, signed session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret. ttl is the
// lifetime used by IssueDefault.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue creates a signed token for subject and role that expires after ttl.
func (s *TokenService) Issue(subject string, role models.Role, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %q", role)
	}

	now := s.now().UTC()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// expiryOf rounds now+ttl up to the encoded precision so a token never
// expires before ttl has elapsed.
func expiryOf(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if t := exp.Truncate(jwt.TimePrecision); t.Before(exp) {
		return t.Add(jwt.TimePrecision)
	}
	return exp
}

// IssueDefault creates a token with the service's configured lifetime.
func (s *TokenService) IssueDefault(subject string, role models.Role) (string, error) {
	return s.Issue(subject, role, s.ttl)
}

// Verify parses and validates a token string. It fails with ExpiredToken once
// the expiry has been reached and with InvalidToken for any other defect.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is checked below against the exact encoded value.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !token.Valid {
		return nil, apperrors.InvalidToken("invalid token")
	}

	if claims.ExpiresAt == nil || claims.Subject == "" || !claims.Role.Valid() {
		return nil, apperrors.InvalidToken("token is missing required claims")
	}

	// Decoding goes through float64, so snap back to the encoded precision.
	expiresAt := claims.ExpiresAt.Time.Round(jwt.TimePrecision)
	if !s.now().Before(expiresAt) {
		return nil, apperrors.ExpiredToken("token has expired")
	}

	return &Identity{
		Subject:   claims.Subject,
		Role:      claims.Role,
		ExpiresAt: expiresAt,
	}, nil
}
