package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carconnectivity/vag-auth/pkg/auth"
)

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	tokens := &auth.TokenStore{
		IDToken:      "id-1",
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresAt:    1_900_000_000,
	}
	require.NoError(t, saveTokenFile(path, tokens))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := loadTokenFile(path)
	require.NoError(t, err)
	assert.Equal(t, tokens, loaded)
}

func TestLoadTokenFileMissing(t *testing.T) {
	loaded, err := loadTokenFile(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadTokenFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := loadTokenFile(path)
	assert.Error(t, err)
}

func TestLoadTokenFileEmptyTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"expiresAt":0}`), 0o600))

	loaded, err := loadTokenFile(path)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
