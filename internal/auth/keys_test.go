package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey_GeneratesAndPersists(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	// Key file written hex-encoded with restricted permissions.
	keyPath := filepath.Join(dir, "auth.key")
	data, err := os.ReadFile(keyPath)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(key), string(data))

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second load returns the same key, not a new one.
	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrGenerateKey_CreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)
}

func TestLoadOrGenerateKey_RejectsCorruptKeyFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrong length", "abcdef"},
		{"not hex", "zz" + hex.EncodeToString(make([]byte, 31))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte(tt.content), 0o600))

			_, err := LoadOrGenerateKey(dir)
			assert.Error(t, err)
		})
	}
}

func TestLoadOrGenerateKey_TrimsWhitespace(t *testing.T) {
	dir := t.TempDir()

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)

	// Hand-edited key files often pick up a trailing newline.
	keyPath := filepath.Join(dir, "auth.key")
	require.NoError(t, os.WriteFile(keyPath, []byte(hex.EncodeToString(key)+"\n"), 0o600))

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}
