package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/shinrai/internal/model"
)

func TestHashAndVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("secret-key-123")
	require.NoError(t, err)
	assert.Contains(t, hash, "$")

	ok, err := VerifyAPIKey("secret-key-123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyAPIKey("wrong-key", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashAPIKeySalted(t *testing.T) {
	a, err := HashAPIKey("same-key")
	require.NoError(t, err)
	b, err := HashAPIKey("same-key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh salt per hash")
}

func TestVerifyAPIKeyMalformedHash(t *testing.T) {
	_, err := VerifyAPIKey("key", "not-a-valid-hash")
	assert.Error(t, err)

	_, err = VerifyAPIKey("key", "!!!$also-bad")
	assert.Error(t, err)
}

func newTestManager(t *testing.T, expiration time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("", "", expiration)
	require.NoError(t, err)
	return m
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, expiresAt, err := m.GenerateToken("workflow-1", model.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")), "JWT has three segments")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "workflow-1", claims.AgentID)
	assert.Equal(t, "workflow-1", claims.Subject)
	assert.Equal(t, model.RoleOperator, claims.Role)
	assert.Equal(t, "shinrai", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, _, err := m.GenerateToken("workflow-1", model.RoleReader)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	m := newTestManager(t, time.Hour)
	_, err := m.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestValidateTokenWrongKey(t *testing.T) {
	// Tokens signed under one key pair fail validation under another.
	signer := newTestManager(t, time.Hour)
	verifier := newTestManager(t, time.Hour)

	token, _, err := signer.GenerateToken("workflow-1", model.RoleReader)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenUnknownRole(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, _, err := m.GenerateToken("workflow-1", model.AgentRole("superuser"))
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}
