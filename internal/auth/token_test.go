package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/notes-api/internal/clock"
	"github.com/kuitang/notes-api/internal/users"
)

var testSecret = []byte("test-secret-at-least-16-chars")

func testToken_IssueVerify_Roundtrip(t *rapid.T) {
	fake := clock.NewFake(time.Unix(rapid.Int64Range(1_600_000_000, 2_000_000_000).Draw(t, "now"), 0))
	issuer := NewTokenIssuer(testSecret, time.Hour, fake)
	user := &users.User{
		ID:       rapid.Int64Range(1, 1<<50).Draw(t, "id"),
		Username: rapid.StringMatching(`[a-zA-Z0-9_]{3,30}`).Draw(t, "username"),
	}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	identity, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.UserID != user.ID || identity.Username != user.Username {
		t.Fatalf("identity mismatch: got %+v want id=%d username=%q", identity, user.ID, user.Username)
	}
}

func TestToken_IssueVerify_Roundtrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testToken_IssueVerify_Roundtrip)
}

func FuzzToken_IssueVerify_Roundtrip(f *testing.F) {
	f.Add([]byte{0x00})
	f.Fuzz(rapid.MakeFuzz(testToken_IssueVerify_Roundtrip))
}

func TestToken_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()
	fake := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer := NewTokenIssuer(testSecret, time.Hour, fake)

	token, err := issuer.Issue(&users.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	fake.Advance(59 * time.Minute)
	_, err = issuer.Verify(token)
	require.NoError(t, err)

	fake.Advance(2 * time.Minute)
	_, err = issuer.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken), "expected ErrInvalidToken, got %v", err)
}

func TestToken_RejectsForeignSignatureAndAlgorithms(t *testing.T) {
	t.Parallel()
	issuer := NewTokenIssuer(testSecret, time.Hour, nil)
	other := NewTokenIssuer([]byte("a-different-secret-value"), time.Hour, nil)

	forged, err := other.Issue(&users.User{ID: 1, Username: "alice"})
	require.NoError(t, err)
	_, err = issuer.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString(testSecret)
	require.NoError(t, err)
	_, err = issuer.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrInvalidToken)

	for _, garbage := range []string{"", "abc", strings.Repeat("x.", 3)} {
		_, err = issuer.Verify(garbage)
		assert.ErrorIs(t, err, ErrInvalidToken, garbage)
	}
}

func TestToken_ClaimsUseIDAndUsernameKeys(t *testing.T) {
	t.Parallel()
	issuer := NewTokenIssuer(testSecret, time.Hour, nil)
	token, err := issuer.Issue(&users.User{ID: 7, Username: "bob"})
	require.NoError(t, err)

	parsed := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, parsed)
	require.NoError(t, err)
	assert.EqualValues(t, 7, parsed["id"])
	assert.Equal(t, "bob", parsed["username"])
	assert.Contains(t, parsed, "exp")
	assert.Contains(t, parsed, "iat")
}
