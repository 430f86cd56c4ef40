package utils_test

import (
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/expense_ledger/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func TestGenerateAndParseJWT(t *testing.T) {
	token, err := utils.GenerateJWT("user_1", testSecret, time.Hour, "ledger")
	require.NoError(t, err)

	claims, err := utils.ParseAndValidateJWT(token, testSecret, "ledger")
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "ledger", claims.Issuer)

	// An empty issuer skips the issuer check.
	_, err = utils.ParseAndValidateJWT(token, testSecret, "")
	assert.NoError(t, err)
}

func TestParseAndValidateJWT_Rejects(t *testing.T) {
	valid, err := utils.GenerateJWT("user_1", testSecret, time.Hour, "ledger")
	require.NoError(t, err)
	expired, err := utils.GenerateJWT("user_1", testSecret, -time.Minute, "ledger")
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
		issuer string
		target error
	}{
		{"wrong secret", valid, "another-secret-another-secret-123", "ledger", jwt.ErrTokenSignatureInvalid},
		{"wrong issuer", valid, testSecret, "someone-else", jwt.ErrTokenInvalidIssuer},
		{"expired", expired, testSecret, "ledger", jwt.ErrTokenExpired},
		{"garbage", "not-a-token", testSecret, "", jwt.ErrTokenMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := utils.ParseAndValidateJWT(tt.token, tt.secret, tt.issuer)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestParseAndValidateJWT_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "user_1"})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = utils.ParseAndValidateJWT(signed, testSecret, "")
	assert.Error(t, err)
}

func TestGenerateSecret(t *testing.T) {
	secret, err := utils.GenerateSecret(utils.MinSecretBytes)
	require.NoError(t, err)
	assert.Len(t, secret, 2*utils.MinSecretBytes)

	other, err := utils.GenerateSecret(utils.MinSecretBytes)
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)

	_, err = utils.GenerateSecret(8)
	assert.Error(t, err)
}
