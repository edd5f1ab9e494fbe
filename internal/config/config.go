package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"gte=0"` // seconds
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig tunes the memory model. Zero values fall back to the
// research-derived defaults, so a deployment only overrides what it
// has optimized.
type SchedulerConfig struct {
	// RequestRetention is the target recall probability (0,1).
	RequestRetention float64 `mapstructure:"request_retention" validate:"gte=0,lt=1"`

	// MaximumIntervalDays caps scheduled review intervals.
	MaximumIntervalDays float64 `mapstructure:"maximum_interval_days" validate:"gte=0"`

	// Weights is the 17-entry FSRS weight vector. Empty keeps defaults;
	// anything else must be exactly 17 entries.
	Weights []float64 `mapstructure:"weights" validate:"omitempty,len=17"`

	// DefaultSessionSize is the card count targeted when a session
	// request does not specify one.
	DefaultSessionSize int `mapstructure:"default_session_size" validate:"gte=0"`
}
