// Package config provides functionality for managing configuration options
// for the CodePath binaries using command-line flags, a JSON config file,
// a .env file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Token store kinds accepted by ClientOptions.Store.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// ClientOptions holds the configuration values for the terminal client.
type ClientOptions struct {
	// APIURL is the base URL of the CodePath API.
	APIURL string `json:"api_url"`

	// Store selects the token store backend (file, sqlite, postgres, memory).
	Store string `json:"store"`

	// TokenPath is the session file (file store) or database file (sqlite store).
	TokenPath string `json:"token_path"`

	// TokenDSN is the connection string of the postgres token store.
	TokenDSN string `json:"token_dsn"`

	// CAFile is an optional PEM bundle trusted for HTTPS.
	CAFile string `json:"ca_file"`

	// Timeout bounds every HTTP request.
	Timeout time.Duration `json:"timeout"`

	// Revalidate is the interval of background profile refreshes in the shell; 0 disables them.
	Revalidate time.Duration `json:"revalidate"`

	// LogLevel is the zap level.
	LogLevel string `json:"log_level"`

	// Version asks the client to print build information and exit.
	Version bool `json:"-"`

	// Config is the path to the JSON config file.
	Config string `json:"-"`

	// Args are the positional arguments left after the flags.
	Args []string `json:"-"`
}

// ServerOptions holds the configuration values for the development API.
type ServerOptions struct {
	// Addr is the listening address (ip:port).
	Addr string `json:"addr"`

	// TokenTTL is how long an access token is accepted.
	TokenTTL time.Duration `json:"token_ttl"`

	// RefreshGrace is how long after expiry a token may still be refreshed.
	RefreshGrace time.Duration `json:"refresh_grace"`

	// SweepInterval is the period of the expired-token sweeper.
	SweepInterval time.Duration `json:"sweep_interval"`

	// LogLevel is the zap level.
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Demo seeds a demo account (alice@example.com / testpass123).
	Demo bool `json:"demo"`

	// Config is the path to the JSON config file.
	Config string `json:"-"`
}

// DefaultTokenPath returns ~/.codepath/session.json, or a relative path when
// the home directory is unknown.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".codepath", "session.json")
	}
	return filepath.Join(home, ".codepath", "session.json")
}

// ParseClient parses args, then overlays the config file and the environment.
func ParseClient(args []string) (*ClientOptions, error) {
	opts := &ClientOptions{}
	fs := flag.NewFlagSet("codepath", flag.ContinueOnError)
	fs.StringVar(&opts.APIURL, "url", "http://localhost:8000", "API base URL")
	fs.StringVar(&opts.Store, "store", StoreFile, "token store: file | sqlite | postgres | memory")
	fs.StringVar(&opts.TokenPath, "token", DefaultTokenPath(), "token file or sqlite database path")
	fs.StringVar(&opts.TokenDSN, "dsn", "", "postgres DSN for the token store")
	fs.StringVar(&opts.CAFile, "ca", "", "path to CA bundle for HTTPS")
	fs.DurationVar(&opts.Timeout, "timeout", 15*time.Second, "HTTP request timeout")
	fs.DurationVar(&opts.Revalidate, "revalidate", 5*time.Minute, "shell session revalidation interval (0 disables)")
	fs.StringVar(&opts.LogLevel, "log", "warn", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	fs.StringVar(&opts.Config, "c", "", "path to config file (shorthand)")
	fs.BoolVar(&opts.Version, "version", false, "show build version and date")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.Args = fs.Args()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CODEPATH_CONFIG"); configPath != "" {
		opts.Config = configPath
	}
	if err := readConfigFile(opts.Config, opts); err != nil {
		return nil, err
	}

	if v := os.Getenv("CODEPATH_API_URL"); v != "" {
		opts.APIURL = v
	}
	if v := os.Getenv("CODEPATH_STORE"); v != "" {
		opts.Store = v
	}
	if v := os.Getenv("CODEPATH_TOKEN_PATH"); v != "" {
		opts.TokenPath = v
	}
	if v := os.Getenv("CODEPATH_TOKEN_DSN"); v != "" {
		opts.TokenDSN = v
	}
	if v := os.Getenv("CODEPATH_LOG_LEVEL"); v != "" {
		opts.LogLevel = v
	}

	switch opts.Store {
	case StoreFile, StoreSQLite, StorePostgres, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown token store %q", opts.Store)
	}
	if opts.Store == StorePostgres && opts.TokenDSN == "" {
		return nil, errors.New("postgres token store requires -dsn")
	}
	return opts, nil
}

// ParseServer parses args for the development API, then overlays the config
// file and the environment.
func ParseServer(args []string) (*ServerOptions, error) {
	opts := &ServerOptions{}
	fs := flag.NewFlagSet("devapi", flag.ContinueOnError)
	fs.StringVar(&opts.Addr, "a", "localhost:8000", "run on ip:port server")
	fs.DurationVar(&opts.TokenTTL, "ttl", 15*time.Minute, "access token lifetime")
	fs.DurationVar(&opts.RefreshGrace, "grace", 24*time.Hour, "refresh window after token expiry")
	fs.DurationVar(&opts.SweepInterval, "sweep", time.Minute, "expired token sweep interval")
	fs.StringVar(&opts.LogLevel, "log", "info", "log level")
	fs.StringVar(&opts.TLSCert, "tls-cert", "", "server certificate PEM (enables HTTPS)")
	fs.StringVar(&opts.TLSKey, "tls-key", "", "server key PEM")
	fs.BoolVar(&opts.Demo, "demo", true, "seed the demo account")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	fs.StringVar(&opts.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}
	if err := readConfigFile(opts.Config, opts); err != nil {
		return nil, err
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Addr = serverAddress
	}
	if (opts.TLSCert == "") != (opts.TLSKey == "") {
		return nil, errors.New("-tls-cert and -tls-key must be set together")
	}
	return opts, nil
}

// loadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win. A missing file is not an error; a
// malformed one is.
func loadDotEnv() error {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
