package model

// AppConfig holds service-wide preferences and the defaults applied to new workspaces.
type AppConfig struct {
	// Server
	Port           int    `json:"port"`
	DataDir        string `json:"data_dir"`  // Workspaces and inventory; empty = ~/.optimystic
	LogLevel       string `json:"log_level"` // "debug", "info", "warn", "error"
	BodyLimitBytes int    `json:"body_limit_bytes"`

	// Solve defaults applied to new workspaces
	DefaultKerf             float64 `json:"default_kerf"`
	DefaultTimeLimitSeconds float64 `json:"default_time_limit_seconds"`
	MinTimeLimitSeconds     float64 `json:"min_time_limit_seconds"`
	MaxTimeLimitSeconds     float64 `json:"max_time_limit_seconds"`
	RemnantMinLength        float64 `json:"remnant_min_length"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultSettings()
	return AppConfig{
		Port:                    8050,
		LogLevel:                "info",
		BodyLimitBytes:          8 * 1024 * 1024,
		DefaultKerf:             defaults.Kerf,
		DefaultTimeLimitSeconds: defaults.TimeLimitSeconds,
		MinTimeLimitSeconds:     5,
		MaxTimeLimitSeconds:     60,
		RemnantMinLength:        defaults.RemnantMinLength,
	}
}

// ApplyToSettings copies the default values from AppConfig into a CutSettings struct.
// This is used when creating a new workspace so it inherits the saved defaults.
func (c AppConfig) ApplyToSettings(s *CutSettings) {
	s.Kerf = c.DefaultKerf
	s.TimeLimitSeconds = c.DefaultTimeLimitSeconds
	s.RemnantMinLength = c.RemnantMinLength
}

// ClampTimeLimit bounds a requested solver time limit to the configured range.
// Zero or negative requests fall back to the default.
func (c AppConfig) ClampTimeLimit(seconds float64) float64 {
	if seconds <= 0 {
		seconds = c.DefaultTimeLimitSeconds
	}
	if c.MinTimeLimitSeconds > 0 && seconds < c.MinTimeLimitSeconds {
		return c.MinTimeLimitSeconds
	}
	if c.MaxTimeLimitSeconds > 0 && seconds > c.MaxTimeLimitSeconds {
		return c.MaxTimeLimitSeconds
	}
	return seconds
}
