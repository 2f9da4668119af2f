package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv_ExportsWithoutOverriding(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "STUDYBUDDY_TEST_NEW=from-file\nSTUDYBUDDY_TEST_SET=from-file\n")
	t.Setenv("STUDYBUDDY_TEST_SET", "from-env")
	t.Setenv("STUDYBUDDY_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("STUDYBUDDY_TEST_NEW"))

	err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", os.Getenv("STUDYBUDDY_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("STUDYBUDDY_TEST_SET"))
}

func TestLoadDotEnv_NoFiles(t *testing.T) {
	assert.NoError(t, LoadDotEnv())
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}
