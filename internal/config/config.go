package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRPCURL    = "https://api.devnet.solana.com"
	DefaultProgramID = "42auxsnfr5yGL6kj1jWD7dWuwYU1CHYkfNgtW2yPuX3A"
)

type Config struct {
	RPC     RPCConfig     `yaml:"rpc"`
	Program ProgramConfig `yaml:"program"`
	Wallet  WalletConfig  `yaml:"wallet"`
	Confirm ConfirmConfig `yaml:"confirm"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

type RPCConfig struct {
	URL   string `yaml:"url"`
	WSURL string `yaml:"ws_url"`
}

type ProgramConfig struct {
	ID string `yaml:"id"`
}

type WalletConfig struct {
	Keypairs []string `yaml:"keypairs"`
	Owner    string   `yaml:"owner"`
}

type ConfirmConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
}

type WatchConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Env looks up an environment variable.
type Env func(key string) (string, bool)

// Environment variables read by ApplyEnv.
const (
	EnvRPCURL    = "COUNTER_RPC_URL"
	EnvWSURL     = "COUNTER_WS_URL"
	EnvProgramID = "COUNTER_PROGRAM_ID"
	EnvKeypair   = "COUNTER_KEYPAIR"
	EnvOwner     = "COUNTER_OWNER"
	EnvLogFile   = "COUNTER_LOG_FILE"
)

func defaultConfig() *Config {
	return &Config{
		RPC: RPCConfig{
			URL: DefaultRPCURL,
		},
		Program: ProgramConfig{
			ID: DefaultProgramID,
		},
		Confirm: ConfirmConfig{
			PollInterval: 500 * time.Millisecond,
			Timeout:      60 * time.Second,
		},
		Watch: WatchConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "counter-tui.yaml"
	}
	return filepath.Join(dir, "counter-tui", "config.yaml")
}

// DefaultKeypair returns the Solana CLI's default keypair location.
func DefaultKeypair() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// Load reads the YAML file at path over the compiled-in defaults. A missing
// file is an error unless optional is set.
func Load(path string, optional bool) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays values from env. Set variables win over the file.
func (c *Config) ApplyEnv(env Env) {
	if v, ok := env(EnvRPCURL); ok && v != "" {
		c.RPC.URL = v
	}
	if v, ok := env(EnvWSURL); ok && v != "" {
		c.RPC.WSURL = v
	}
	if v, ok := env(EnvProgramID); ok && v != "" {
		c.Program.ID = v
	}
	if v, ok := env(EnvKeypair); ok && v != "" {
		c.Wallet.Keypairs = strings.Split(v, string(os.PathListSeparator))
	}
	if v, ok := env(EnvOwner); ok && v != "" {
		c.Wallet.Owner = v
	}
	if v, ok := env(EnvLogFile); ok && v != "" {
		c.Log.File = v
	}
}

// Validate checks addresses, URLs and durations.
func (c *Config) Validate() error {
	if _, err := c.ProgramID(); err != nil {
		return err
	}
	if c.Wallet.Owner != "" {
		if _, err := solana.PublicKeyFromBase58(c.Wallet.Owner); err != nil {
			return fmt.Errorf("wallet.owner: %w", err)
		}
	}
	if err := checkURL("rpc.url", c.RPC.URL, "http", "https"); err != nil {
		return err
	}
	if c.RPC.WSURL != "" {
		if err := checkURL("rpc.ws_url", c.RPC.WSURL, "ws", "wss"); err != nil {
			return err
		}
	}
	if c.Confirm.PollInterval <= 0 {
		return fmt.Errorf("confirm.poll_interval must be positive, got %v", c.Confirm.PollInterval)
	}
	if c.Confirm.Timeout < c.Confirm.PollInterval {
		return fmt.Errorf("confirm.timeout %v is shorter than poll_interval %v", c.Confirm.Timeout, c.Confirm.PollInterval)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not a %s URL", field, raw, strings.Join(schemes, "/"))
}

// ProgramID parses the configured program address.
func (c *Config) ProgramID() (solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.Program.ID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("program.id %q: %w", c.Program.ID, err)
	}
	return id, nil
}

// WebSocketURL returns rpc.ws_url, or the RPC URL with its scheme switched
// to ws/wss. An explicit port is bumped by one, matching solana-test-validator
// (8899 for HTTP, 8900 for pubsub).
func (c *Config) WebSocketURL() string {
	if c.RPC.WSURL != "" {
		return c.RPC.WSURL
	}
	u, err := url.Parse(c.RPC.URL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(n+1))
		}
	}
	return u.String()
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
