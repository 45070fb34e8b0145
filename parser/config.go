package parser

// Config hardens the non-validating parser against oversized or
// deeply-nested input. All limits are configurable.
type Config struct {
	MaxTokenSize   uint32 `env:"JWT_MAX_TOKEN_SIZE" envDefault:"8192" validate:"min=1"`
	MaxPayloadSize uint32 `env:"JWT_MAX_PAYLOAD_SIZE" envDefault:"2048" validate:"min=1"`
	MaxDepth       int    `env:"JWT_MAX_DEPTH" envDefault:"10" validate:"min=1"`
	MaxStringSize  uint32 `env:"JWT_MAX_STRING_SIZE" envDefault:"4096" validate:"min=1"`
	MaxArraySize   int    `env:"JWT_MAX_ARRAY_SIZE" envDefault:"64" validate:"min=1"`
}

// DefaultConfig returns the baseline hardening limits.
func DefaultConfig() Config {
	return Config{
		MaxTokenSize:   8192,
		MaxPayloadSize: 2048,
		MaxDepth:       10,
		MaxStringSize:  4096,
		MaxArraySize:   64,
	}
}
