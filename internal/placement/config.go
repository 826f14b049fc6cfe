package placement

import (
	"fmt"
	"time"

	"github.com/banshee-data/broadside/internal/config"
	"github.com/banshee-data/broadside/internal/timeutil"
)

// SearchConfig provides a configuration builder for JointSearch options.
type SearchConfig struct {
	Mode       Mode          // Legality policy (default: NonConflicting)
	MaxLayouts int           // Cap on yielded layouts, 0 = unlimited (default: 100000)
	TimeBudget time.Duration // Wall time cap per run, 0 = unlimited (default: 10s)
	Clock      timeutil.Clock
}

// DefaultSearchConfig returns a SearchConfig built from the canonical
// defaults file. Panics if the file cannot be found.
func DefaultSearchConfig() *SearchConfig {
	return SearchConfigFromEngine(config.MustLoadDefaultConfig())
}

// SearchConfigFromEngine builds a SearchConfig from a loaded EngineConfig.
// An unparseable mode token falls back to NonConflicting; EngineConfig
// rejects such tokens on load.
func SearchConfigFromEngine(cfg *config.EngineConfig) *SearchConfig {
	mode, err := ParseMode(cfg.GetMode())
	if err != nil {
		mode = NonConflicting
	}
	return &SearchConfig{
		Mode:       mode,
		MaxLayouts: cfg.GetMaxJointLayouts(),
		TimeBudget: cfg.GetJointTimeBudget(),
		Clock:      timeutil.RealClock{},
	}
}

// WithMode sets the legality policy.
func (c *SearchConfig) WithMode(m Mode) *SearchConfig {
	c.Mode = m
	return c
}

// WithMaxLayouts sets the layout cap.
func (c *SearchConfig) WithMaxLayouts(n int) *SearchConfig {
	c.MaxLayouts = n
	return c
}

// WithTimeBudget sets the time budget.
func (c *SearchConfig) WithTimeBudget(d time.Duration) *SearchConfig {
	c.TimeBudget = d
	return c
}

// WithClock sets the clock the time budget is measured against.
func (c *SearchConfig) WithClock(clock timeutil.Clock) *SearchConfig {
	c.Clock = clock
	return c
}

// Validate checks if the configuration is valid.
func (c *SearchConfig) Validate() error {
	if c.Mode != NonConflicting && c.Mode != FullyConsistent {
		return fmt.Errorf("%w: %v", ErrUnknownMode, c.Mode)
	}
	if c.MaxLayouts < 0 {
		return fmt.Errorf("MaxLayouts must be non-negative, got %d", c.MaxLayouts)
	}
	if c.TimeBudget < 0 {
		return fmt.Errorf("TimeBudget must be non-negative, got %v", c.TimeBudget)
	}
	return nil
}

// Options converts the configuration into JointSearch options.
func (c *SearchConfig) Options() []Option {
	opts := []Option{
		WithMode(c.Mode),
		WithMaxLayouts(c.MaxLayouts),
		WithTimeBudget(c.TimeBudget),
	}
	if c.Clock != nil {
		opts = append(opts, WithClock(c.Clock))
	}
	return opts
}
