package alias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsEmptyStore(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "aliases.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Dirty())
}

func TestRecordAndLookup(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "aliases.yaml"))
	require.NoError(t, err)

	s.Record("NETFLIX.COM", "NETFLIX")
	assert.True(t, s.Dirty())

	canonical, ok := s.Canonical("NETFLIX.COM")
	require.True(t, ok)
	assert.Equal(t, "NETFLIX", canonical)

	_, ok = s.Canonical("SPOTIFY")
	assert.False(t, ok)
}

func TestRecord_IgnoresSelfMappings(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "aliases.yaml"))
	require.NoError(t, err)

	s.Record("NETFLIX", "NETFLIX")
	s.Record("", "NETFLIX")
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Dirty())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")

	s, err := Load(path)
	require.NoError(t, err)
	s.Record("NETFLIX.COM", "NETFLIX")
	s.Record("CUB  FOODS", "CUB FOODS")
	require.NoError(t, s.Save())
	assert.False(t, s.Dirty())

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Len())

	canonical, ok := reloaded.Canonical("CUB  FOODS")
	require.True(t, ok)
	assert.Equal(t, "CUB FOODS", canonical)
	assert.Equal(t, []string{"CUB  FOODS", "NETFLIX.COM"}, reloaded.Variants())
}

func TestSave_CleanStoreWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")

	s, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, s.Save())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n\t- broken"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
