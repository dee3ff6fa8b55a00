package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func envMap(m map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
rpc:
  url: "http://127.0.0.1:8899"
program:
  id: "BPFLoader1111111111111111111111111111111111"
wallet:
  keypairs:
    - "/tmp/a.json"
    - "/tmp/b.json"
confirm:
  timeout: 30s
watch:
  enabled: false
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath, false)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.RPC.URL != "http://127.0.0.1:8899" {
		t.Errorf("RPC.URL = %q, want %q", cfg.RPC.URL, "http://127.0.0.1:8899")
	}
	if cfg.Program.ID != "BPFLoader1111111111111111111111111111111111" {
		t.Errorf("Program.ID = %q", cfg.Program.ID)
	}
	if diff := cmp.Diff([]string{"/tmp/a.json", "/tmp/b.json"}, cfg.Wallet.Keypairs); diff != "" {
		t.Errorf("Wallet.Keypairs mismatch (-want +got):\n%s", diff)
	}
	if cfg.Confirm.Timeout != 30*time.Second {
		t.Errorf("Confirm.Timeout = %v, want 30s", cfg.Confirm.Timeout)
	}
	if cfg.Watch.Enabled {
		t.Error("Watch.Enabled = true, want false")
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Confirm.PollInterval != 500*time.Millisecond {
		t.Errorf("Confirm.PollInterval = %v, want default 500ms", cfg.Confirm.PollInterval)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load(optional) error: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("optional missing file should yield defaults (-want +got):\n%s", diff)
	}

	if _, err := Load(path, false); err == nil {
		t.Error("Load() of missing required file succeeded")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rpc: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, false); err == nil {
		t.Error("Load() accepted invalid YAML")
	}
}

func TestApplyEnvLayering(t *testing.T) {
	cfg := defaultConfig()
	cfg.RPC.URL = "https://file.example"
	cfg.Program.ID = "BPFLoader1111111111111111111111111111111111"

	cfg.ApplyEnv(envMap(map[string]string{
		EnvRPCURL:  "https://env.example",
		EnvKeypair: "/k/one.json" + string(os.PathListSeparator) + "/k/two.json",
		EnvOwner:   "",
	}))

	if cfg.RPC.URL != "https://env.example" {
		t.Errorf("RPC.URL = %q, want env value", cfg.RPC.URL)
	}
	if cfg.Program.ID != "BPFLoader1111111111111111111111111111111111" {
		t.Errorf("Program.ID = %q, want file value kept", cfg.Program.ID)
	}
	if diff := cmp.Diff([]string{"/k/one.json", "/k/two.json"}, cfg.Wallet.Keypairs); diff != "" {
		t.Errorf("Wallet.Keypairs mismatch (-want +got):\n%s", diff)
	}
	if cfg.Wallet.Owner != "" {
		t.Errorf("empty env var should not override, got %q", cfg.Wallet.Owner)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad program id", mutate: func(c *Config) { c.Program.ID = "not-base58!" }, wantErr: "program.id"},
		{name: "bad owner", mutate: func(c *Config) { c.Wallet.Owner = "xyz" }, wantErr: "wallet.owner"},
		{name: "ws rpc url", mutate: func(c *Config) { c.RPC.URL = "ws://localhost:8900" }, wantErr: "rpc.url"},
		{name: "http ws url", mutate: func(c *Config) { c.RPC.WSURL = "http://localhost:8900" }, wantErr: "rpc.ws_url"},
		{name: "zero poll", mutate: func(c *Config) { c.Confirm.PollInterval = 0 }, wantErr: "poll_interval"},
		{name: "short timeout", mutate: func(c *Config) { c.Confirm.Timeout = time.Millisecond }, wantErr: "timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		rpc, ws, want string
	}{
		{rpc: "https://api.devnet.solana.com", want: "wss://api.devnet.solana.com"},
		{rpc: "http://127.0.0.1:8899", want: "ws://127.0.0.1:8900"},
		{rpc: "https://rpc.example/path?key=1", want: "wss://rpc.example/path?key=1"},
		{rpc: "https://api.devnet.solana.com", ws: "wss://pubsub.example", want: "wss://pubsub.example"},
	}

	for _, tt := range tests {
		cfg := defaultConfig()
		cfg.RPC.URL = tt.rpc
		cfg.RPC.WSURL = tt.ws
		if got := cfg.WebSocketURL(); got != tt.want {
			t.Errorf("WebSocketURL(%q, %q) = %q, want %q", tt.rpc, tt.ws, got, tt.want)
		}
	}
}
