package utils

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/TravisESimmons/GolfClubBAIST/internal/config"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	store := &TokenStore{Dir: filepath.Join(t.TempDir(), "tokens")}

	token, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, token)

	saved := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", Expiry: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, store.Save("test", saved))

	info, err := os.Stat(filepath.Join(store.Dir, "token-test.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	loaded, err := store.Load("test")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.AccessToken)
	assert.Equal(t, "def", loaded.RefreshToken)

	require.NoError(t, store.Delete("test"))
	require.NoError(t, store.Delete("test"))

	loaded, err = store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestTokenStore_TokenUsesValidStoredToken(t *testing.T) {
	store := &TokenStore{Dir: t.TempDir()}
	saved := &oauth2.Token{AccessToken: "still-valid", Expiry: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save("prod", saved))

	token, err := store.Token(context.Background(), &oauth2.Config{}, "prod", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "still-valid", token.AccessToken)
}

func TestGetOAuthConfig(t *testing.T) {
	cfg := &config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:     "client",
		ProjectID:    "golf-club",
		AuthURI:      "https://accounts.google.com/o/oauth2/auth",
		TokenURI:     "https://oauth2.googleapis.com/token",
		ClientSecret: "secret",
		RedirectURIs: []string{"http://localhost"},
	}}

	oauthConfig, err := GetOAuthConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeSheets}, oauthConfig.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", oauthConfig.RedirectURL)
}
