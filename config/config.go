// Package config turns command line flags and environment variables into a
// ServerConfig. Every flag can also be set through the environment variable
// of the same name in upper case with dashes replaced by underscores
// (e.g. --storage-mode / STORAGE_MODE).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type StorageMode string

const (
	InMemory StorageMode = "inmemory"
	Redis    StorageMode = "redis"
	Mongo    StorageMode = "mongo"
	Postgres StorageMode = "postgres"
)

type ServerConfig struct {
	Port        string
	StorageMode StorageMode

	// remote backend parameters
	RedisUrl    string
	MongoUrl    string
	MongoDbName string
	PostgresUrl string

	// machinery broker; empty disables async comment purges
	BrokerUrl         string
	WorkerConcurrency int

	RequestTimeout  time.Duration
	RemoteTimeout   time.Duration
	CancelOnTimeout bool

	LogLevel string
}

func (c *ServerConfig) Addr() string {
	return "0.0.0.0:" + c.Port
}

func (c *ServerConfig) Validate() error {
	switch c.StorageMode {
	case InMemory:
	case Redis:
		if c.RedisUrl == "" {
			return fmt.Errorf("'redis-url' was not specified for '%s' storage mode", c.StorageMode)
		}
	case Mongo:
		if c.MongoUrl == "" || c.MongoDbName == "" {
			return fmt.Errorf("'mongo-url' and 'mongo-dbname' are required for '%s' storage mode", c.StorageMode)
		}
	case Postgres:
		if c.PostgresUrl == "" {
			return fmt.Errorf("'postgres-url' was not specified for '%s' storage mode", c.StorageMode)
		}
	default:
		return fmt.Errorf("invalid storage mode: %s (expected one of: inmemory, redis, mongo, postgres)", c.StorageMode)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote-timeout must be positive, got %s", c.RemoteTimeout)
	}
	if c.WorkerConcurrency < 0 {
		return fmt.Errorf("worker-concurrency must not be negative, got %d", c.WorkerConcurrency)
	}
	return nil
}

// RegisterFlags adds every configuration flag to cmd.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("server-port", "8080", "port the HTTP API listens on")
	flags.String("storage-mode", string(InMemory), "remote backend: inmemory, redis, mongo or postgres")
	flags.String("redis-url", "", "redis address (host:port or redis:// URL)")
	flags.String("mongo-url", "", "mongo connection URI")
	flags.String("mongo-dbname", "", "mongo database name")
	flags.String("postgres-url", "", "postgres connection string")
	flags.String("broker-url", "", "machinery broker URL for async comment purges (e.g. redis://localhost:6379)")
	flags.Int("worker-concurrency", 0, "concurrent tasks per worker, 0 means number of CPUs")
	flags.Duration("request-timeout", 10*time.Second, "deadline after which a request is answered with 504")
	flags.Duration("remote-timeout", 2*time.Second, "deadline for a single remote backend call")
	flags.Bool("cancel-on-timeout", false, "cancel the request context when the request deadline fires")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

// Load reads the flags registered by RegisterFlags, falling back to the
// environment, and validates the result.
func Load(cmd *cobra.Command) (*ServerConfig, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	c := &ServerConfig{
		Port:              v.GetString("server-port"),
		StorageMode:       StorageMode(strings.ToLower(v.GetString("storage-mode"))),
		RedisUrl:          v.GetString("redis-url"),
		MongoUrl:          v.GetString("mongo-url"),
		MongoDbName:       v.GetString("mongo-dbname"),
		PostgresUrl:       v.GetString("postgres-url"),
		BrokerUrl:         v.GetString("broker-url"),
		WorkerConcurrency: v.GetInt("worker-concurrency"),
		RequestTimeout:    v.GetDuration("request-timeout"),
		RemoteTimeout:     v.GetDuration("remote-timeout"),
		CancelOnTimeout:   v.GetBool("cancel-on-timeout"),
		LogLevel:          v.GetString("log-level"),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
