package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "AGENT_NETWORK"

	KeyDB          = "db"
	KeyLogPath     = "log_path"
	KeySessionsDir = "sessions_dir"
	KeySessionID   = "session_id"
	KeyMachineName = "machine_name"
	KeyHTTPURL     = "http_url"
	KeyListen      = "listen"
	KeyLogLevel    = "log_level"
	KeyPeerTimeout = "peer_timeout"

	configName = "agent_network"
	configType = "toml"
	configDir  = ".claude"

	DefaultListen      = "0.0.0.0:7777"
	DefaultLogLevel    = "warn"
	DefaultPeerTimeout = 10 * time.Second
)

var keys = []string{
	KeyDB, KeyLogPath, KeySessionsDir, KeySessionID, KeyMachineName,
	KeyHTTPURL, KeyListen, KeyLogLevel, KeyPeerTimeout,
}

// Settings is the resolved configuration of one process.
type Settings struct {
	DB          string
	LogPath     string
	SessionsDir string
	SessionID   string
	MachineName string
	HTTPURL     string
	Listen      string
	LogLevel    string
	PeerTimeout time.Duration
}

// Load layers defaults, the optional ~/.claude/agent_network.toml file, .env
// files and AGENT_NETWORK_* environment variables, in increasing priority.
// Missing env files are ignored.
func Load(home string, envFiles ...string) (*viper.Viper, error) {
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
	}

	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	cfg := viper.New()
	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(home, configDir))
	cfg.SetEnvPrefix(EnvPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	for _, key := range keys {
		if err := cfg.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	base := filepath.Join(home, configDir)
	cfg.SetDefault(KeyDB, filepath.Join(base, "agent_network.db"))
	cfg.SetDefault(KeyLogPath, filepath.Join(base, "agent_network.log"))
	cfg.SetDefault(KeySessionsDir, filepath.Join(base, "agent_network", "sessions"))
	cfg.SetDefault(KeyListen, DefaultListen)
	cfg.SetDefault(KeyLogLevel, DefaultLogLevel)
	cfg.SetDefault(KeyPeerTimeout, DefaultPeerTimeout)
	if hostname, err := os.Hostname(); err == nil {
		cfg.SetDefault(KeyMachineName, hostname)
	}

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

func FromViper(cfg *viper.Viper) Settings {
	timeout := cfg.GetDuration(KeyPeerTimeout)
	if timeout <= 0 {
		timeout = DefaultPeerTimeout
	}

	return Settings{
		DB:          cfg.GetString(KeyDB),
		LogPath:     cfg.GetString(KeyLogPath),
		SessionsDir: cfg.GetString(KeySessionsDir),
		SessionID:   strings.TrimSpace(cfg.GetString(KeySessionID)),
		MachineName: cfg.GetString(KeyMachineName),
		HTTPURL:     strings.TrimRight(strings.TrimSpace(cfg.GetString(KeyHTTPURL)), "/"),
		Listen:      cfg.GetString(KeyListen),
		LogLevel:    cfg.GetString(KeyLogLevel),
		PeerTimeout: timeout,
	}
}
