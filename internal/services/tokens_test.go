package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TKTINC/tanvi-vanity-ai-sub001/internal/config"
)

func tokenFixture(secret string, ttl time.Duration) *TokenService {
	cfg := config.Config{}
	cfg.Auth.Secret = secret
	cfg.Auth.TokenTTL = ttl
	return NewTokenService(cfg)
}

func TestTokenIssueVerifyRoundTrip(t *testing.T) {
	svc := tokenFixture("test-secret", time.Hour)
	token, exp, jti, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	uid, gotJTI, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), uid)
	require.Equal(t, jti, gotJTI)
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	token, _, _, err := tokenFixture("secret-a", time.Hour).Issue(42)
	require.NoError(t, err)

	_, _, err = tokenFixture("secret-b", time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	svc := tokenFixture("test-secret", -time.Minute)
	token, _, _, err := svc.Issue(42)
	require.NoError(t, err)

	_, _, err = svc.Verify(token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	svc := tokenFixture("test-secret", time.Hour)
	_, _, err := svc.Verify("not-a-token")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Verify("")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCompletionPct(t *testing.T) {
	require.Zero(t, completionPct(map[string]any{}))
	half := map[string]any{
		"body_shape": "hourglass", "skin_tone": "warm",
		"style_personality": "classic", "preferred_fits": []string{"slim"},
	}
	require.InDelta(t, 50, completionPct(half), 1e-9)
	full := map[string]any{}
	for _, k := range styleProfileKeys {
		full[k] = "x"
	}
	require.InDelta(t, 100, completionPct(full), 1e-9)
}
