package validator

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// LoadEnvConfig builds one of parser.Config, cache.Config, monitor.Config,
// or pipeline.Config from process environment variables, following the
// same parse-then-validate sequence as every config loader in this module's
// lineage: env.Parse populates defaults/overrides from env tags, then
// validator.Struct enforces the struct's validate tags.
func LoadEnvConfig[T any]() (T, error) {
	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing env config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return cfg, fmt.Errorf("validating env config: %w", err)
	}
	return cfg, nil
}
