package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/TravisESimmons/GolfClubBAIST/internal/config"
)

const (
	AuthPort       = 3000
	authTimeout    = 5 * time.Minute
	callbackPath   = "/oauth/callback"
	tokenDirName   = ".golf-tee-sheet/tokens"
	tokenFilePerms = 0600
	tokenDirPerms  = 0700
)

// ScopeSheets is the only scope the tee sheet publisher needs
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

// GetOAuthConfig creates an OAuth2 config from the OAuth client configuration
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	raw, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(raw, ScopeSheets)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}

	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)
	return googleConfig, nil
}

// TokenStore persists one OAuth token per environment under Dir
type TokenStore struct {
	Dir string

	mu    sync.Mutex
	cache map[string]*oauth2.Token
}

// DefaultTokenStore stores tokens in ~/.golf-tee-sheet/tokens
func DefaultTokenStore() (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(homeDir, tokenDirName)}, nil
}

func (s *TokenStore) path(env string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("token-%s.json", env))
}

// Load returns the stored token for env, or nil if none has been saved
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// Save writes the token for env with owner-only permissions
func (s *TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the token for env; a missing file is not an error
func (s *TokenStore) Delete(env string) error {
	if err := os.Remove(s.path(env)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// Token returns a valid token for env, refreshing or running the browser flow when needed.
// Only one flow runs at a time.
func (s *TokenStore) Token(ctx context.Context, oauthConfig *oauth2.Config, env string, logger *zap.Logger) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache == nil {
		s.cache = make(map[string]*oauth2.Token)
	}
	if cached := s.cache[env]; cached != nil && cached.Valid() {
		return cached, nil
	}

	stored, err := s.Load(env)
	if err != nil {
		logger.Warn("Failed to load stored token", zap.Error(err))
	}

	if stored != nil {
		if stored.Valid() {
			s.cache[env] = stored
			return stored, nil
		}
		if stored.RefreshToken != "" {
			refreshed, err := oauthConfig.TokenSource(ctx, stored).Token()
			if err == nil {
				if err := s.Save(env, refreshed); err != nil {
					logger.Warn("Failed to save refreshed token", zap.Error(err))
				}
				logger.Debug("OAuth token refreshed")
				s.cache[env] = refreshed
				return refreshed, nil
			}
			logger.Warn("Token refresh failed, starting new OAuth flow", zap.Error(err))
		}
	}

	authURL := oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOffline)
	fmt.Printf("\nVisit this URL to authorize the application:\n%s\n\n", authURL)

	code, err := listenForAuthCallback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := s.Save(env, token); err != nil {
		logger.Warn("Failed to save token", zap.Error(err))
	}

	s.cache[env] = token
	return token, nil
}

// listenForAuthCallback starts a local HTTP server and waits for the OAuth callback
func listenForAuthCallback(ctx context.Context) (string, error) {
	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Authorization successful!</h1><p>You can close this window.</p></body></html>`)
		codeChan <- code
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", AuthPort), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	var code string
	var authErr error
	select {
	case code = <-codeChan:
	case authErr = <-errChan:
	case <-timeoutCtx.Done():
		authErr = fmt.Errorf("authorization timeout after %v", authTimeout)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	if authErr != nil {
		return "", authErr
	}
	return code, nil
}
