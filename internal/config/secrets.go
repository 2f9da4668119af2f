package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Secrets is the managed-secrets store, a flat TOML file of string values.
// Lookups fall back to the process environment.
type Secrets struct {
	path   string
	values map[string]string
}

// LoadSecrets reads the secrets file at path. A missing file yields an empty
// store. Non-string values and nested tables are ignored.
func LoadSecrets(path string) (*Secrets, error) {
	secrets := &Secrets{path: path, values: map[string]string{}}
	if path == "" {
		return secrets, nil
	}

	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return secrets, nil
		}
		return nil, fmt.Errorf("failed to read secrets file %s: %v", path, err)
	}
	for key, value := range raw {
		if s, ok := value.(string); ok {
			secrets.values[key] = s
		}
	}
	return secrets, nil
}

// Lookup returns the secret named key, trying the secrets file first and
// the environment second.
func (s *Secrets) Lookup(key string) (string, bool) {
	if value, ok := s.values[key]; ok && value != "" {
		return value, true
	}
	return os.LookupEnv(key)
}

func (s *Secrets) Path() string { return s.path }

// SecretsPath picks the secrets file: $STUDYBUDDY_SECRETS_FILE, then
// ./.studybuddy/secrets.toml when it exists, then ~/.studybuddy/secrets.toml.
func SecretsPath() string {
	if path, ok := os.LookupEnv(GetEnvWithPrefix(ENV_SECRETS_FILE)); ok && path != "" {
		return path
	}
	local := filepath.Join(SECRETS_DIR, SECRETS_FILE)
	if _, err := os.Stat(local); err == nil {
		return local
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return local
	}
	return filepath.Join(home, SECRETS_DIR, SECRETS_FILE)
}
