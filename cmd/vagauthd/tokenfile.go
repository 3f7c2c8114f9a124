package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/carconnectivity/vag-auth/pkg/auth"
)

// persistedTokens is the on-disk shape of a token set.
type persistedTokens struct {
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// loadTokenFile reads a previously persisted token set. A missing file is not
// an error; it just means a fresh login.
func loadTokenFile(path string) (*auth.TokenStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var p persistedTokens
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return nil, nil
	}
	return &auth.TokenStore{
		IDToken:      p.IDToken,
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
	}, nil
}

// saveTokenFile writes the token set to path with owner-only permissions,
// creating parent directories as needed. The write goes through a temp file
// so a crash cannot leave a half-written token file behind.
func saveTokenFile(path string, tokens *auth.TokenStore) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(persistedTokens{
		IDToken:      tokens.IDToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
