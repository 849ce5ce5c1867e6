package mirror

import "time"

// Config holds configuration for the mirror poller.
type Config struct {
	// CooldownSeconds is the pause between two poll cycles in seconds.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"30"`
}

// Cooldown returns the poll period as a duration, falling back to 30s for
// non-positive values.
func (c Config) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}
