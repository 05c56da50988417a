package config

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// OAuthClientEnvVar overrides the OAuth client file search with an explicit path
const OAuthClientEnvVar = "TEE_SHEET_OAUTH_CLIENT"

// oauthHomeDir is where the publisher keeps its client file and tokens under $HOME
const oauthHomeDir = ".golf-tee-sheet"

// OAuthClientConfig is a Google "installed app" client used to publish the tee sheet
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled is the installed section of a Google client file. The publisher
// runs its own callback server, so at least one redirect must be a loopback URL.
type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url,omitempty" validate:"omitempty,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri,loopback"`
}

func registerOAuthValidations(v *validator.Validate) {
	v.RegisterValidation("loopback", func(fl validator.FieldLevel) bool {
		return IsLoopbackRedirect(fl.Field().String())
	})
}

// IsLoopbackRedirect reports whether raw is an http redirect to this machine
func IsLoopbackRedirect(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "http" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// OAuthClientFileName returns the client file name for env,
// e.g. "tee_sheet_oauth.test.json"
func OAuthClientFileName(env string) string {
	if env == "" {
		return "tee_sheet_oauth.json"
	}
	return "tee_sheet_oauth." + env + ".json"
}

// LoadOAuthClientWithEnv loads the OAuth client for env from $TEE_SHEET_OAUTH_CLIENT,
// the current directory or ~/.golf-tee-sheet, in that order
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	oauthPath, err := findOAuthFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}

	return LoadOAuthClientFromPath(oauthPath)
}

// LoadOAuthClientFromPath loads and validates the OAuth client from a specific path
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}

	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, err
	}

	return &oauthCfg, nil
}

func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	return nil
}

func findOAuthFile(env string) (string, error) {
	if path := os.Getenv(OAuthClientEnvVar); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s=%s: %w", OAuthClientEnvVar, path, err)
		}
		return path, nil
	}

	name := OAuthClientFileName(env)
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	path := filepath.Join(homeDir, oauthHomeDir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("oauth client file %s not found in current directory or %s", name, filepath.Join(homeDir, oauthHomeDir))
}
