package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultConfigPath is the path to the canonical engine defaults file.
const DefaultConfigPath = "config/engine.defaults.json"

// Fallbacks used by the Get* accessors when a field is omitted.
const (
	DefaultBoardHeight     = 14
	DefaultBoardWidth      = 14
	DefaultMode            = "non_conflicting"
	DefaultMaxJointLayouts = 100000
	DefaultJointTimeBudget = 10 * time.Second
)

// FleetEntry describes one object in the configured fleet. Orientation is
// "horizontal", "vertical" or empty for both.
type FleetEntry struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Orientation string `json:"orientation,omitempty"`
}

// EngineConfig is the root configuration for board dimensions, the fleet and
// joint search limits. The same JSON is served by /api/config.
type EngineConfig struct {
	BoardHeight *int `json:"board_height,omitempty"`
	BoardWidth  *int `json:"board_width,omitempty"`

	// Placement legality policy: "non_conflicting" or "fully_consistent".
	Mode *string `json:"mode,omitempty"`

	// Joint search limits. Zero disables a limit.
	MaxJointLayouts *int    `json:"max_joint_layouts,omitempty"`
	JointTimeBudget *string `json:"joint_time_budget,omitempty"` // duration string like "10s"

	Fleet []FleetEntry `json:"fleet,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptyEngineConfig returns an EngineConfig with every field unset.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// DefaultEngineConfig returns the built-in defaults with every field set.
// The fleet is left empty; the defaults file carries the standard fleet.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		BoardHeight:     ptrInt(DefaultBoardHeight),
		BoardWidth:      ptrInt(DefaultBoardWidth),
		Mode:            ptrString(DefaultMode),
		MaxJointLayouts: ptrInt(DefaultMaxJointLayouts),
		JointTimeBudget: ptrString(DefaultJointTimeBudget.String()),
	}
}

// LoadEngineConfig loads an EngineConfig from a JSON file. The path must have
// a .json extension and the file must be under 1MB. Omitted fields fall
// back to the Get* defaults.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *EngineConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadEngineConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *EngineConfig) Validate() error {
	if c.BoardHeight != nil && *c.BoardHeight <= 0 {
		return fmt.Errorf("board_height must be positive, got %d", *c.BoardHeight)
	}
	if c.BoardWidth != nil && *c.BoardWidth <= 0 {
		return fmt.Errorf("board_width must be positive, got %d", *c.BoardWidth)
	}
	if c.Mode != nil {
		switch normaliseToken(*c.Mode) {
		case "", "non_conflicting", "fully_consistent":
		default:
			return fmt.Errorf("unknown mode %q", *c.Mode)
		}
	}
	if c.MaxJointLayouts != nil && *c.MaxJointLayouts < 0 {
		return fmt.Errorf("max_joint_layouts must be non-negative, got %d", *c.MaxJointLayouts)
	}
	if c.JointTimeBudget != nil && *c.JointTimeBudget != "" {
		d, err := time.ParseDuration(*c.JointTimeBudget)
		if err != nil {
			return fmt.Errorf("invalid joint_time_budget '%s': %w", *c.JointTimeBudget, err)
		}
		if d < 0 {
			return fmt.Errorf("joint_time_budget must be non-negative, got %v", d)
		}
	}
	for i, f := range c.Fleet {
		if f.Size <= 0 {
			return fmt.Errorf("fleet[%d] %q: size must be positive, got %d", i, f.Name, f.Size)
		}
		switch strings.ToLower(f.Orientation) {
		case "", "h", "horizontal", "v", "vertical":
		default:
			return fmt.Errorf("fleet[%d] %q: unknown orientation %q", i, f.Name, f.Orientation)
		}
	}
	return nil
}

func normaliseToken(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// GetBoardHeight returns board_height or the default.
func (c *EngineConfig) GetBoardHeight() int {
	if c.BoardHeight == nil {
		return DefaultBoardHeight
	}
	return *c.BoardHeight
}

// GetBoardWidth returns board_width or the default.
func (c *EngineConfig) GetBoardWidth() int {
	if c.BoardWidth == nil {
		return DefaultBoardWidth
	}
	return *c.BoardWidth
}

// GetMode returns the mode token or the default.
func (c *EngineConfig) GetMode() string {
	if c.Mode == nil || *c.Mode == "" {
		return DefaultMode
	}
	return normaliseToken(*c.Mode)
}

// GetMaxJointLayouts returns max_joint_layouts or the default.
func (c *EngineConfig) GetMaxJointLayouts() int {
	if c.MaxJointLayouts == nil {
		return DefaultMaxJointLayouts
	}
	return *c.MaxJointLayouts
}

// GetJointTimeBudget parses joint_time_budget as a time.Duration.
func (c *EngineConfig) GetJointTimeBudget() time.Duration {
	if c.JointTimeBudget == nil || *c.JointTimeBudget == "" {
		return DefaultJointTimeBudget
	}
	d, err := time.ParseDuration(*c.JointTimeBudget)
	if err != nil {
		return DefaultJointTimeBudget // default on parse error
	}
	return d
}

// GetFleet returns a copy of the configured fleet entries.
func (c *EngineConfig) GetFleet() []FleetEntry {
	out := make([]FleetEntry, len(c.Fleet))
	copy(out, c.Fleet)
	return out
}
