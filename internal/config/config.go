package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cartridge/replay/internal/storage"
)

// Server holds all replay service configuration
type Server struct {
	// Listeners
	GRPCAddr string `mapstructure:"grpc_addr"`
	HTTPAddr string `mapstructure:"http_addr"`

	// Buffer layout
	SpecFile  string `mapstructure:"spec_file"`
	BatchSize int    `mapstructure:"batch_size"`
	Capacity  int    `mapstructure:"capacity"` // 0 keeps every record
	Seed      int64  `mapstructure:"seed"`     // 0 seeds from the clock

	// Per-request limits
	MaxSampleBatchSize int `mapstructure:"max_sample_batch_size"`

	// Admin API
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`

	NATS   NATSConfig   `mapstructure:"nats"`
	Health HealthConfig `mapstructure:"health"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	LogLevel        string        `mapstructure:"log_level"`
}

// NATSConfig holds NATS configuration. An empty URL disables publishing.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// HealthConfig holds fill monitoring configuration
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

// DefaultServer returns a config with sensible defaults
func DefaultServer() *Server {
	return &Server{
		GRPCAddr:           ":8080",
		HTTPAddr:           ":8081",
		BatchSize:          1,
		Capacity:           100000,
		MaxSampleBatchSize: 4096,
		RateLimit:          50,
		RateBurst:          100,
		NATS:               NATSConfig{Subject: "cartridge.replay"},
		Health:             HealthConfig{CheckInterval: 15 * time.Second},
		ShutdownTimeout:    30 * time.Second,
		LogLevel:           "info",
	}
}

// Validate checks if the configuration is valid
func (c *Server) Validate() error {
	if c.GRPCAddr == "" {
		return errors.New("grpc_addr is required")
	}
	if c.SpecFile == "" {
		return errors.New("spec_file is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch_size must be positive")
	}
	if c.Capacity < 0 {
		return errors.New("capacity must not be negative")
	}
	if c.MaxSampleBatchSize <= 0 || c.MaxSampleBatchSize > storage.MaxSampleBatchSize {
		return fmt.Errorf("max_sample_batch_size must be in [1, %d]", storage.MaxSampleBatchSize)
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must not be negative")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return errors.New("nats.subject is required when nats.url is set")
	}
	if c.Health.CheckInterval <= 0 {
		return errors.New("health.check_interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

// RegisterFlags defines the server flags on fs, defaulted from c.
func (c *Server) RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("grpc-addr", c.GRPCAddr, "gRPC listen address")
	fs.String("http-addr", c.HTTPAddr, "Admin HTTP listen address, empty to disable")
	fs.String("spec-file", c.SpecFile, "YAML file describing one step record")
	fs.Int("batch-size", c.BatchSize, "Number of parallel rows written per AddBatch")
	fs.Int("capacity", c.Capacity, "Records kept per row, 0 for unbounded")
	fs.Int64("seed", c.Seed, "Sampling seed, 0 to seed from the clock")
	fs.Int("max-sample-batch-size", c.MaxSampleBatchSize, "Largest sample batch size a request may ask for")
	fs.Float64("rate-limit", c.RateLimit, "Admin API requests per second, 0 to disable")
	fs.Int("rate-burst", c.RateBurst, "Admin API burst size")
	fs.String("nats-url", c.NATS.URL, "NATS server URL, empty to disable events")
	fs.String("nats-subject", c.NATS.Subject, "Base subject for buffer events")
	fs.Duration("health-check-interval", c.Health.CheckInterval, "Fill monitor interval")
	fs.Duration("shutdown-timeout", c.ShutdownTimeout, "Graceful shutdown timeout")
	fs.String("log-level", c.LogLevel, "Log level (debug, info, warn, error)")
}

// LoadServer resolves the server config from defaults, an optional config
// file, REPLAY_ environment variables and fs, lowest precedence first.
func LoadServer(v *viper.Viper, fs *pflag.FlagSet) (*Server, error) {
	cfg := DefaultServer()
	if err := load(v, fs, "REPLAY", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Actor holds all synthetic producer configuration
type Actor struct {
	ReplayAddr string `mapstructure:"replay_addr"`
	ActorID    string `mapstructure:"actor_id"`

	// Policy is "random" or "counter".
	Policy     string  `mapstructure:"policy"`
	Low        float64 `mapstructure:"low"`
	High       float64 `mapstructure:"high"`
	IntLimit   int     `mapstructure:"int_limit"`
	Seed       int64   `mapstructure:"seed"`
	MaxBatches int     `mapstructure:"max_batches"` // -1 runs until stopped

	BatchesPerSecond float64       `mapstructure:"batches_per_second"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`

	LogLevel string `mapstructure:"log_level"`
}

// DefaultActor returns a config with sensible defaults
func DefaultActor() *Actor {
	return &Actor{
		ReplayAddr:       "localhost:8080",
		ActorID:          "actor-1",
		Policy:           "random",
		Low:              -1,
		High:             1,
		IntLimit:         10,
		MaxBatches:       -1,
		BatchesPerSecond: 10,
		RequestTimeout:   5 * time.Second,
		LogLevel:         "info",
	}
}

// Validate checks if the configuration is valid
func (c *Actor) Validate() error {
	if c.ReplayAddr == "" {
		return errors.New("replay_addr is required")
	}
	if c.Policy != "random" && c.Policy != "counter" {
		return fmt.Errorf("policy must be random or counter, got %q", c.Policy)
	}
	if c.High < c.Low {
		return errors.New("high must not be below low")
	}
	if c.IntLimit <= 0 {
		return errors.New("int_limit must be positive")
	}
	if c.BatchesPerSecond <= 0 {
		return errors.New("batches_per_second must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	return nil
}

// RegisterFlags defines the actor flags on fs, defaulted from c.
func (c *Actor) RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Optional config file (yaml, json or toml)")
	fs.String("replay-addr", c.ReplayAddr, "Replay service address")
	fs.String("actor-id", c.ActorID, "Unique actor identifier")
	fs.String("policy", c.Policy, "Step policy (random, counter)")
	fs.Float64("low", c.Low, "Lower bound for random float leaves")
	fs.Float64("high", c.High, "Upper bound for random float leaves")
	fs.Int("int-limit", c.IntLimit, "Random integer leaves are drawn from [0, int-limit)")
	fs.Int64("seed", c.Seed, "Policy seed, 0 to seed from the clock")
	fs.Int("max-batches", c.MaxBatches, "Batches to send before exiting (-1 for unlimited)")
	fs.Float64("batches-per-second", c.BatchesPerSecond, "AddBatch rate")
	fs.Duration("request-timeout", c.RequestTimeout, "Timeout per replay call")
	fs.String("log-level", c.LogLevel, "Log level (debug, info, warn, error)")
}

// LoadActor resolves the actor config the way LoadServer does, with the
// ACTOR_ environment prefix.
func LoadActor(v *viper.Viper, fs *pflag.FlagSet) (*Actor, error) {
	cfg := DefaultActor()
	if err := load(v, fs, "ACTOR", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// load binds every flag to its config key (dashes become underscores, a
// known section prefix becomes a nested key) and unmarshals into out.
func load(v *viper.Viper, fs *pflag.FlagSet, envPrefix string, out interface{}) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(flagKey(f.Name), f)
	})
	if bindErr != nil {
		return bindErr
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return v.Unmarshal(out)
}

func flagKey(name string) string {
	for _, section := range []string{"nats", "health"} {
		if rest, ok := strings.CutPrefix(name, section+"-"); ok {
			return section + "." + strings.ReplaceAll(rest, "-", "_")
		}
	}
	return strings.ReplaceAll(name, "-", "_")
}
