// Package envconf loads process configuration from environment variables.
//
// Fields are bound with `env:"KEY"` tags. A tagged field without an
// `envDefault` is required, and Load fails when its variable is unset.
package envconf

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrMissingRequired = errors.New("missing required environment variable")

// Load fills dst from the environment. Each dotenv file that exists is read
// first; variables already present in the environment take precedence.
func Load(dst any, dotenvFiles ...string) error {
	if dst == nil {
		return errors.New("destination is nil")
	}

	for _, f := range dotenvFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	err := env.ParseWithOptions(dst, env.Options{RequiredIfNoDef: true})
	if err != nil {
		var notSet env.VarIsNotSetError
		if errors.As(err, &notSet) {
			return fmt.Errorf("%w: %s", ErrMissingRequired, notSet.Key)
		}

		return fmt.Errorf("parse environment: %w", err)
	}

	return nil
}
