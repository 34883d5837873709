package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the server
// and its tools.
type Config struct {
	// Hostname or IP address on which the servers will listen for connections.
	Hostname string `mapstructure:"hostname"`
	// Port on which the line protocol (TCP) server will listen.
	Port int `mapstructure:"port"`
	// Port on which the WebSocket server will listen. 0 disables it.
	WebsocketPort int `mapstructure:"websocket_port"`
	// Maximum number of concurrent connections the server will allow.
	MaxConnections int `mapstructure:"max_connections"`
	// Longest handle (in runes) a player may register.
	MaxHandleLength int `mapstructure:"max_handle_length"`
	// Number of lines buffered for a client before it is considered stalled.
	OutboundQueueSize int `mapstructure:"outbound_queue_size"`
	// How long a single write to a client may block before the client is dropped.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
		// Include the file and line number of the caller in each log.
		IncludeCaller bool `mapstructure:"include_caller"`
	} `mapstructure:"logging"`

	Ledger struct {
		// Where scores are kept. Options: file, sqlite, postgres
		Engine string `mapstructure:"engine"`
		// Scores file (file engine) or database file (sqlite engine), relative
		// to the config directory unless absolute.
		Path string `mapstructure:"path"`
	} `mapstructure:"ledger"`

	Database struct {
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on db_host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${db_name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		Enabled bool `mapstructure:"enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`

	configDir string
}

const envVarPrefix = "CONNECT4"

var defaults = map[string]interface{}{
	"hostname":            "0.0.0.0",
	"port":                5555,
	"websocket_port":      0,
	"max_connections":     100,
	"max_handle_length":   24,
	"outbound_queue_size": 64,
	"write_timeout":       "10s",

	"logging.log_file_path":  "",
	"logging.log_level":      "info",
	"logging.include_caller": false,

	"ledger.engine": "file",
	"ledger.path":   "scores.yaml",

	"database.host":     "localhost",
	"database.port":     5432,
	"database.name":     "connect4",
	"database.username": "connect4",
	"database.password": "",
	"database.sslmode":  "disable",

	"debugging.enabled":                  false,
	"debugging.pprof_port":               4000,
	"debugging.database_logging_enabled": false,
}

// LoadConfig reads config.yaml from configPath (if one exists) on top of the
// built-in defaults and any CONNECT4_* environment overrides.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if configPath == "" {
		configPath = "."
	}
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envVarPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range v.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := v.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			return nil, fmt.Errorf("error binding %s to %s: %w", k, envVarPrefix+"_"+envVar, err)
		}
	}

	config := &Config{configDir: configPath}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config object: %w", err)
	}
	return config, nil
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a database URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// QualifiedPath resolves a path from the config file against the directory
// the config was loaded from.
func (c *Config) QualifiedPath(p string) string {
	if filepath.IsAbs(p) || c.configDir == "" {
		return p
	}
	return filepath.Join(c.configDir, p)
}

// ListenAddress returns the host:port the line protocol server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Hostname, c.Port)
}

// WebsocketAddress returns the host:port the WebSocket server binds to, or
// an empty string if the WebSocket server is disabled.
func (c *Config) WebsocketAddress() string {
	if c.WebsocketPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Hostname, c.WebsocketPort)
}
