package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/subosito/gotenv"
)

// LoadDotEnv exports the variables of each file into the process
// environment. Variables that are already set win. Missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		err := gotenv.Load(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		return fmt.Errorf("failed to load %s: %v", path, err)
	}
	return nil
}
