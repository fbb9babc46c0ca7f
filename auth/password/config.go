package password

import "fmt"

const defaultMinLength = 8

// Algorithm names the scheme used for newly written hashes.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Config is the auth.password section.
type Config struct {
	Algorithm     Algorithm `yaml:"algorithm" mapstructure:"algorithm"`
	BcryptCost    int       `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	Argon2Time    uint32    `yaml:"argon2_time" mapstructure:"argon2_time"`
	Argon2Memory  uint32    `yaml:"argon2_memory" mapstructure:"argon2_memory"` // KiB
	Argon2Threads uint8     `yaml:"argon2_threads" mapstructure:"argon2_threads"`
	MinLength     int       `yaml:"min_length" mapstructure:"min_length"`
}

func (c *Config) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 10
	}
	if c.MinLength == 0 {
		c.MinLength = defaultMinLength
	}
}

// Validate rejects settings that would make every Hash call fail.
func (c *Config) Validate() error {
	if c.Algorithm != AlgorithmBcrypt && c.Algorithm != AlgorithmArgon2id {
		return fmt.Errorf("password: unknown algorithm %q", c.Algorithm)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("password: bcrypt_cost %d out of range 4..31", c.BcryptCost)
	}
	if c.MinLength < 1 || c.MinLength > bcryptMaxLength {
		return fmt.Errorf("password: min_length %d out of range 1..%d", c.MinLength, bcryptMaxLength)
	}
	return nil
}

func NewHasher(cfg Config) Hasher {
	cfg.ApplyDefaults()
	if cfg.Algorithm == AlgorithmArgon2id {
		return NewArgon2Hasher(Argon2Params{
			Time:    cfg.Argon2Time,
			Memory:  cfg.Argon2Memory,
			Threads: cfg.Argon2Threads,
		}, cfg.MinLength)
	}
	return NewBcryptHasher(WithCost(cfg.BcryptCost), WithMinLength(cfg.MinLength))
}
