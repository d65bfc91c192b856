package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken("s3cret", id, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestParseToken_Rejects(t *testing.T) {
	id := uuid.New()
	good, err := GenerateToken("s3cret", id, "alice", time.Hour)
	require.NoError(t, err)
	expired, err := GenerateToken("s3cret", id, "alice", -time.Minute)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret": {"other", good},
		"expired":      {"s3cret", expired},
		"garbage":      {"s3cret", "not.a.token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(tc.secret, tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestGenerateToken_RequiresSecret(t *testing.T) {
	_, err := GenerateToken("", uuid.New(), "alice", time.Hour)
	assert.Error(t, err)
}
