package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every featurebook environment variable.
const EnvPrefix = "FEATUREBOOK_"

// ParseEnv loads configuration from environment variables. Struct tags name
// the variable without EnvPrefix (for example `env:"DB_PATH"`).
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
