// Package simulate drives a running cragrank service with a generated
// competition and checks the rankings it serves against a local computation.
package simulate

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Package-level validator for simulation configs.
var validate = validator.New()

// Config holds the simulation parameters.
type Config struct {
	BaseURL string `validate:"required,url"`

	// CompetitionID must not collide with a competition already loaded.
	CompetitionID int64 `validate:"gt=0"`
	Climbers      int   `validate:"gte=1,lte=10000"`
	Groups        int   `validate:"gte=1,ltefield=Climbers"`
	Boulders      int   `validate:"gte=1,lte=50"`
	// FinalSize is how many climbers reach the final round.
	FinalSize int `validate:"gte=1,ltefield=Climbers"`
	MaxTries  int `validate:"gte=1,lte=20"`

	// DuplicateRate is the share of submissions replayed with the same id.
	DuplicateRate float64 `validate:"gte=0,lte=1"`
	Seed          uint64

	Workers       int           `validate:"gte=1"`
	Timeout       time.Duration `validate:"gt=0"`
	SettleTimeout time.Duration `validate:"gt=0"`
	Verbose       bool
}

// DefaultConfig returns a small but non-trivial simulation.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "http://localhost:9080",
		CompetitionID: 900,
		Climbers:      40,
		Groups:        2,
		Boulders:      5,
		FinalSize:     8,
		MaxTries:      5,
		DuplicateRate: 0.05,
		Seed:          1,
		Workers:       8,
		Timeout:       10 * time.Second,
		SettleTimeout: 30 * time.Second,
	}
}

// Validate checks the config bounds.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid simulation config: %w", err)
	}
	return nil
}
