package portfoliolive

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"

	defaultRateLimit = "60-M"
)

type Config struct {
	Port          string
	DataDir       string
	StorageDriver string
	SQLitePath    string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	RateLimit     string
	LogFile       string
	TranspileOnly bool
}

// LoadConfig reads flags, then PORTFOLIO_* environment variables (optionally
// from a .env file). An explicitly set flag wins over the environment.
func LoadConfig(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to load .env file: %v", err)
	}

	flags := pflag.NewFlagSet("portfoliolive", pflag.ContinueOnError)
	flags.String("port", "8080", "port to run on")
	flags.String("data-dir", "data", "directory for the persisted records")
	flags.String("storage", StorageFile, "record storage: file or sqlite")
	flags.String("sqlite-path", "", "sqlite database path (default <data-dir>/portfoliolive.db)")
	flags.Duration("session-ttl", DefaultSessionTTL, "how long a returning client is not counted again")
	flags.Duration("sweep-interval", DefaultSweepInterval, "how often expired sessions are removed")
	flags.String("rate-limit", defaultRateLimit, "per-IP limit for POST endpoints, e.g. 60-M")
	flags.String("log-file", "", "also write logs to this rotating file")
	flags.Bool("transpile", false, "transpile only and exit")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	if portFromEnv, ok := os.LookupEnv("PORT"); ok && portFromEnv != "" && !flags.Changed("port") {
		log.Println("Overriding the PORT via the environment variable")
		v.Set("port", portFromEnv)
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		DataDir:       v.GetString("data-dir"),
		StorageDriver: strings.ToLower(v.GetString("storage")),
		SQLitePath:    v.GetString("sqlite-path"),
		SessionTTL:    v.GetDuration("session-ttl"),
		SweepInterval: v.GetDuration("sweep-interval"),
		RateLimit:     v.GetString("rate-limit"),
		LogFile:       v.GetString("log-file"),
		TranspileOnly: v.GetBool("transpile"),
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, "portfoliolive.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port must be set")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	switch c.StorageDriver {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("invalid storage: %s. Must be '%s' or '%s'", c.StorageDriver, StorageFile, StorageSQLite)
	}
	if _, err := c.Rate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Rate() (limiter.Rate, error) {
	rate, err := limiter.NewRateFromFormatted(c.RateLimit)
	if err != nil {
		return limiter.Rate{}, fmt.Errorf("invalid rate limit '%s': %w", c.RateLimit, err)
	}
	return rate, nil
}
