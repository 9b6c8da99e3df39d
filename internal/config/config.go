package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default configuration values
const (
	DefaultServerURL     = "ws://localhost:8080/ws"
	DefaultSTUN          = "stun:stun.l.google.com:19302"
	DefaultAddr          = ":8080"
	DefaultLedgerWorkers = 2
)

var (
	ErrMissingLedgerDSN = errors.New("LEDGER_DSN is required")
	ErrRelayWithoutTURN = errors.New("cannot force relay mode without a TURN server")
)

// Config holds the peer-side configuration.
type Config struct {
	// ServerURL is the signaling websocket endpoint
	ServerURL string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	// ForceRelay restricts ICE to TURN relay candidates
	ForceRelay bool
}

// Options carries CLI flag values. Empty fields fall through to the
// environment and then to defaults.
type Options struct {
	ServerURL  string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
	ForceRelay bool
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	cfg := &Config{
		ServerURL:  pick(opts.ServerURL, "ROOMDROP_SERVER", DefaultServerURL),
		STUNServer: pick(opts.STUNServer, "STUN_SERVER", DefaultSTUN),
		TURNServer: pick(opts.TURNServer, "TURN_SERVER", ""),
		TURNUser:   pick(opts.TURNUser, "TURN_USERNAME", ""),
		TURNPass:   pick(opts.TURNPass, "TURN_PASSWORD", ""),
		ForceRelay: opts.ForceRelay,
	}

	if !strings.HasPrefix(cfg.ServerURL, "ws://") && !strings.HasPrefix(cfg.ServerURL, "wss://") {
		return nil, fmt.Errorf("server URL must use ws:// or wss://, got %q", cfg.ServerURL)
	}
	if cfg.ForceRelay && cfg.TURNServer == "" {
		return nil, ErrRelayWithoutTURN
	}
	return cfg, nil
}

// GetSTUNServers returns STUN server URLs
func (c *Config) GetSTUNServers() []string {
	if c.STUNServer == "" {
		return nil
	}
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	host := strings.TrimPrefix(c.TURNServer, "turn:")
	return []string{
		fmt.Sprintf("turn:%s:3478?transport=udp", host),
		fmt.Sprintf("turn:%s:3478?transport=tcp", host),
		fmt.Sprintf("turns:%s:5349?transport=tcp", host),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}

// ServerConfig holds the signaling server configuration.
type ServerConfig struct {
	Addr          string
	LedgerDSN     string
	LedgerWorkers int
}

// ServerOptions carries flag values for the server; zero values fall
// through to the environment and then to defaults.
type ServerOptions struct {
	Addr          string
	LedgerDSN     string
	LedgerWorkers int
}

// LoadServer resolves the server configuration. A ledger DSN has no
// default: startup must fail when neither the flag nor LEDGER_DSN is set.
func LoadServer(opts ServerOptions) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Addr:          pick(opts.Addr, "ROOMDROP_ADDR", DefaultAddr),
		LedgerDSN:     pick(opts.LedgerDSN, "LEDGER_DSN", ""),
		LedgerWorkers: opts.LedgerWorkers,
	}

	if cfg.LedgerDSN == "" {
		return nil, ErrMissingLedgerDSN
	}

	if cfg.LedgerWorkers <= 0 {
		cfg.LedgerWorkers = DefaultLedgerWorkers
		if v := os.Getenv("LEDGER_WORKERS"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("LEDGER_WORKERS must be a positive integer, got %q", v)
			}
			cfg.LedgerWorkers = n
		}
	}
	return cfg, nil
}

// pick returns flag if set, else the environment variable env, else def.
func pick(flag, env, def string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}
