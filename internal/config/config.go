// Package config loads the client configuration from command line flags
// with environment-variable overrides.
package config

import (
	"flag"
	"os"
	"strings"
	"time"
)

// Config holds the call client configuration.
type Config struct {
	// SignalingURL is the marketplace signaling server websocket URL.
	SignalingURL string
	// AuthToken authenticates the signaling connection.
	AuthToken string

	// Role is "user" (places calls) or "telecaller" (answers calls).
	Role string
	// Identity is this client's participant ID.
	Identity string

	// APIBind is the local control API listen address. The UI layer is
	// the only intended client, so the default binds loopback.
	APIBind string

	LogLevel string
	// LogFile enables rotating file output when non-empty.
	LogFile string

	// Demo runs a scripted in-process user/telecaller call instead of
	// connecting to a real signaling server.
	Demo bool

	// DialTimeout bounds the signaling server dial.
	DialTimeout time.Duration
}

// Load loads configuration from command line flags and environment
// variables.
func Load() *Config {
	cfg := &Config{
		DialTimeout: 10 * time.Second,
	}

	flag.StringVar(&cfg.SignalingURL, "signaling", "wss://localhost:8443/socket", "Signaling server websocket URL")
	flag.StringVar(&cfg.AuthToken, "token", "", "Signaling auth token")
	flag.StringVar(&cfg.Role, "role", "user", "Client role (user, telecaller)")
	flag.StringVar(&cfg.Identity, "identity", "", "Participant ID of this client")
	flag.StringVar(&cfg.APIBind, "api", "127.0.0.1:7880", "Local control API bind address")
	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFile, "logfile", "", "Rotating log file path (stdout only if empty)")
	flag.BoolVar(&cfg.Demo, "demo", false, "Run a scripted loopback call and exit")
	flag.Parse()

	if v := os.Getenv("SIGNALING_URL"); v != "" {
		cfg.SignalingURL = v
	}
	if v := os.Getenv("SIGNALING_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("ROLE"); v != "" {
		cfg.Role = v
	}
	if v := os.Getenv("IDENTITY"); v != "" {
		cfg.Identity = v
	}
	if v := os.Getenv("API_BIND"); v != "" {
		cfg.APIBind = v
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOGFILE"); v != "" {
		cfg.LogFile = v
	}

	cfg.Role = normalizeRole(cfg.Role)
	return cfg
}

// normalizeRole maps any spelling to the two supported roles, defaulting
// to "user".
func normalizeRole(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "telecaller", "receiver":
		return "telecaller"
	default:
		return "user"
	}
}

// IsTelecaller reports whether this client answers calls.
func (c *Config) IsTelecaller() bool {
	return c.Role == "telecaller"
}
