package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/model"
	"github.com/mbolis/gyp-site/testutil"
)

func TestValidateUser(t *testing.T) {
	a := testutil.NewApp(t)
	testutil.CreateUser(t, a.DB, "Ana", "ana@example.com", "secret1", model.RoleEditor)
	verifier := httpx.CredentialsVerifier(a.DB)
	r := httptest.NewRequest(http.MethodPost, "/token", nil)

	assert.NoError(t, verifier.ValidateUser("ANA@example.com ", "secret1", "", r))
	assert.Error(t, verifier.ValidateUser("ana@example.com", "wrong", "", r))
	assert.Error(t, verifier.ValidateUser("nobody@example.com", "secret1", "", r))
	assert.Error(t, verifier.ValidateUser("", "", "", r))
}

func TestValidateUserFailsClosedWithoutDatabase(t *testing.T) {
	a := testutil.NewApp(t)
	testutil.CreateUser(t, a.DB, "Ana", "ana@example.com", "secret1", model.RoleEditor)
	verifier := httpx.CredentialsVerifier(a.DB)
	require.NoError(t, a.DB.Close())

	r := httptest.NewRequest(http.MethodPost, "/token", nil)
	assert.Error(t, verifier.ValidateUser("ana@example.com", "secret1", "", r))
}

func TestTokensCarryClaims(t *testing.T) {
	a := testutil.NewApp(t)
	id := testutil.CreateUser(t, a.DB, "Ana", "ana@example.com", "secret1", model.RoleEditor)

	tokens := testutil.Tokens(t, a, "ana@example.com", "secret1")
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	session, found := sessionOf(a.TokenSecret, tokens.AccessToken)
	require.True(t, found)
	assert.Equal(t, model.Session{UserID: id, Name: "Ana", Email: "ana@example.com", Role: model.RoleEditor}, session)
}

func sessionOf(secret, accessToken string) (session model.Session, found bool) {
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, found = httpx.SessionFrom(r.Context())
	})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+accessToken)
	oauth.Authorize(secret, nil)(capture).ServeHTTP(httptest.NewRecorder(), r)
	return session, found
}

func TestInvalidTokenHasNoSession(t *testing.T) {
	_, found := sessionOf("test-secret", "garbage")
	assert.False(t, found)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	a := testutil.NewApp(t)
	testutil.CreateUser(t, a.DB, "Ana", "ana@example.com", "secret1", model.RoleEditor)
	tokens := testutil.Tokens(t, a, "ana@example.com", "secret1")
	ctx := context.Background()

	refreshed, status, err := httpx.RequestTokens(ctx, a.BearerServer, httpx.RefreshGrant(tokens.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)

	_, status, err = httpx.RequestTokens(ctx, a.BearerServer, httpx.RefreshGrant(tokens.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	a := testutil.NewApp(t)
	id := testutil.CreateUser(t, a.DB, "Ana", "ana@example.com", "secret1", model.RoleEditor)
	tokens := testutil.Tokens(t, a, "ana@example.com", "secret1")

	_, err := a.DB.Exec(`UPDATE users SET role = 'admin' WHERE id = $1`, id)
	require.NoError(t, err)

	refreshed, status, err := httpx.RequestTokens(context.Background(), a.BearerServer, httpx.RefreshGrant(tokens.RefreshToken))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	session, found := sessionOf(a.TokenSecret, refreshed.AccessToken)
	require.True(t, found)
	assert.Equal(t, model.RoleAdmin, session.Role)
}

func TestSessionFromEmptyContext(t *testing.T) {
	_, ok := httpx.SessionFrom(context.Background())
	assert.False(t, ok)
}
