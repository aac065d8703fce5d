package config

import "fmt"

// DomainConfig holds the business limits of lineage exploration and event listing
type DomainConfig struct {
	// Lineage constraints
	MaxLineageNodes int

	// Event listing
	DefaultEventLimit int
	MaxEventLimit     int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxLineageNodes:   100,
		DefaultEventLimit: 100,
		MaxEventLimit:     1000,
	}
}

// Validate checks that the limits are coherent
func (c *DomainConfig) Validate() error {
	if c.MaxLineageNodes <= 0 || c.MaxLineageNodes > 100 {
		return fmt.Errorf("max lineage nodes must be between 1 and 100, got %d", c.MaxLineageNodes)
	}
	if c.DefaultEventLimit <= 0 {
		return fmt.Errorf("default event limit must be positive")
	}
	if c.MaxEventLimit < c.DefaultEventLimit {
		return fmt.Errorf("max event limit (%d) must not be below the default (%d)", c.MaxEventLimit, c.DefaultEventLimit)
	}
	return nil
}
