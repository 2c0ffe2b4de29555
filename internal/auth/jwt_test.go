package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/microlearn-be/internal/apperrors"
	"github.com/isdelr/microlearn-be/internal/models"
)

const testSecret = "test-secret-key-for-testing"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newTestTokenService() (*TokenService, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewTokenService(testSecret, time.Hour).WithClock(clock.Now), clock
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, _ := newTestTokenService()

	for _, role := range models.Roles() {
		token, err := svc.Issue("ada", role, 10*time.Minute)
		require.NoError(t, err)

		id, err := svc.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "ada", id.Subject)
		assert.Equal(t, role, id.Role)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 10, 0, 0, time.UTC), id.ExpiresAt.UTC())
	}
}

func TestTokenService_IssueDefault_UsesConfiguredTTL(t *testing.T) {
	svc, clock := newTestTokenService()

	token, err := svc.IssueDefault("ada", models.RoleLearner)
	require.NoError(t, err)

	id, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), id.ExpiresAt.UTC())
}

func TestTokenService_Expiry(t *testing.T) {
	svc, clock := newTestTokenService()
	token, err := svc.Issue("ada", models.RoleTutor, 60*time.Minute)
	require.NoError(t, err)

	clock.t = clock.t.Add(59 * time.Minute)
	_, err = svc.Verify(token)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Minute)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrExpiredToken)

	clock.t = clock.t.Add(24 * time.Hour)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestTokenService_SubSecondIssueTime(t *testing.T) {
	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 500_000_000, time.UTC)

	tests := []struct {
		name      string
		issuedAt  time.Time
		ttl       time.Duration
		stillOK   time.Time
		expiredAt time.Time
	}{
		{"300ms", issuedAt, 300 * time.Millisecond, issuedAt.Add(299 * time.Millisecond), issuedAt.Add(300 * time.Millisecond)},
		{"1ns", issuedAt, time.Nanosecond, issuedAt, issuedAt.Add(time.Millisecond)},
		{
			"1h from .9s",
			issuedAt.Add(400 * time.Millisecond),
			time.Hour,
			time.Date(2024, 6, 1, 13, 0, 0, 500_000_000, time.UTC),
			time.Date(2024, 6, 1, 13, 0, 0, 900_000_000, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clock := &fakeClock{t: tc.issuedAt}
			svc := NewTokenService(testSecret, time.Hour).WithClock(clock.Now)

			token, err := svc.Issue("ada", models.RoleLearner, tc.ttl)
			require.NoError(t, err)

			_, err = svc.Verify(token)
			require.NoError(t, err, "valid right after issuance")

			clock.t = tc.stillOK
			_, err = svc.Verify(token)
			require.NoError(t, err)

			clock.t = tc.expiredAt
			_, err = svc.Verify(token)
			assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
		})
	}
}

func TestTokenService_TamperedToken(t *testing.T) {
	svc, _ := newTestTokenService()
	token, err := svc.Issue("ada", models.RoleLearner, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Swap the payload for one claiming the tutor role, keeping the old signature.
	forged, err := svc.Issue("ada", models.RoleTutor, time.Hour)
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, err = svc.Verify(parts[0] + "." + parts[1] + "." + string(sig))
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc, clock := newTestTokenService()
	other := NewTokenService("another-secret", time.Hour).WithClock(clock.Now)

	token, err := other.Issue("ada", models.RoleTutor, time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_Garbage(t *testing.T) {
	svc, _ := newTestTokenService()

	for _, token := range []string{"", "abc", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, token)
	}
}

func TestTokenService_MissingClaims(t *testing.T) {
	svc, clock := newTestTokenService()
	exp := jwt.NewNumericDate(clock.t.Add(time.Hour))

	sign := func(claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}

	noSubject := sign(&Claims{Role: models.RoleTutor, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})
	noRole := sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "ada", ExpiresAt: exp}})
	badRole := sign(&Claims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "ada", ExpiresAt: exp}})
	noExpiry := sign(&Claims{Role: models.RoleTutor, RegisteredClaims: jwt.RegisteredClaims{Subject: "ada"}})

	for name, token := range map[string]string{
		"no subject": noSubject,
		"no role":    noRole,
		"bad role":   badRole,
		"no expiry":  noExpiry,
	} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken, name)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc, clock := newTestTokenService()
	claims := &Claims{
		Role:             models.RoleTutor,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ada", ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_IssueRejectsBadInput(t *testing.T) {
	svc, _ := newTestTokenService()

	_, err := svc.Issue("", models.RoleTutor, time.Hour)
	assert.Error(t, err)

	_, err = svc.Issue("ada", models.Role("admin"), time.Hour)
	assert.Error(t, err)
}
