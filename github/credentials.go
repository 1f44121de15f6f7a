// Package github implements release hosting over the GitHub REST API.
package github

import (
	"strings"

	"github.com/lanceccraig/Tooling.DevOps/errs"
	"github.com/lanceccraig/Tooling.DevOps/workspace"
)

const (
	// DefaultTokenEnv is the environment variable checked for a token.
	DefaultTokenEnv = "GITHUB_TOKEN"
	// DefaultTokenPath is the token file relative to the user's home.
	DefaultTokenPath = ".github/token"
)

// Home gives access to the environment and the user's home directory.
type Home interface {
	Env() workspace.Environment
	HomeExists(rel string) (bool, error)
	ReadHomeFile(rel string) ([]byte, error)
}

// TokenSource supplies an API token.
type TokenSource interface {
	Token() (string, error)
}

// CredentialStore reads the API token from the environment, falling back to
// a file in the user's home directory.
type CredentialStore struct {
	EnvVar    string
	TokenPath string
	home      Home
}

// NewCredentialStore creates a CredentialStore. Empty names disable the
// corresponding source.
func NewCredentialStore(envVar, tokenPath string, home Home) *CredentialStore {
	return &CredentialStore{EnvVar: envVar, TokenPath: tokenPath, home: home}
}

// Token returns the first non-empty token found.
func (s *CredentialStore) Token() (string, error) {
	if s.EnvVar != "" {
		if v, ok := s.home.Env().Lookup(s.EnvVar); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}

	if s.TokenPath != "" {
		ok, err := s.home.HomeExists(s.TokenPath)
		if err != nil {
			return "", err
		}
		if ok {
			data, err := s.home.ReadHomeFile(s.TokenPath)
			if err != nil {
				return "", err
			}
			if token := strings.TrimSpace(string(data)); token != "" {
				return token, nil
			}
		}
	}

	return "", errs.NotFound("GitHub token was not found; set %s or write it to ~/%s", s.EnvVar, s.TokenPath)
}
