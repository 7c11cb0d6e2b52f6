// Package config provides functionality for managing configuration options
// for the auth server using command-line flags, a JSON config file and
// environment variables, and for the chat client using a YAML file.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Options holds the configuration values for the auth server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// RedisURL locates the redis holding verification codes.
	RedisURL string `json:"redis_url"`

	// JWTSecret signs issued login tokens.
	JWTSecret string `json:"jwt_secret"`

	TokenTTL time.Duration `json:"-"`
	CodeTTL  time.Duration `json:"-"`

	// Cooldown is the minimum delay between two codes sent to one phone.
	Cooldown time.Duration `json:"-"`

	// DailyLimit caps the codes sent to one phone per day.
	DailyLimit int `json:"daily_limit"`

	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// fileDurations carries the duration settings of the JSON config file,
// written as Go duration strings ("10m").
type fileDurations struct {
	TokenTTL string `json:"token_ttl"`
	CodeTTL  string `json:"code_ttl"`
	Cooldown string `json:"cooldown"`
}

// Parse parses the process flags and environment. Invalid settings are fatal.
func Parse() *Options {
	opts, err := ParseArgs(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return opts
}

// ParseArgs builds Options from args, then the config file, then the
// environment looked up with getenv. Later sources win.
func ParseArgs(args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.RedisURL, "r", "redis://localhost:6379/0", "redis url")
	fs.StringVar(&options.JWTSecret, "s", "", "token signing secret")
	fs.DurationVar(&options.TokenTTL, "token-ttl", 24*time.Hour, "login token lifetime")
	fs.DurationVar(&options.CodeTTL, "code-ttl", 5*time.Minute, "verification code lifetime")
	fs.DurationVar(&options.Cooldown, "cooldown", time.Minute, "delay between two codes to one phone")
	fs.IntVar(&options.DailyLimit, "limit", 10, "codes per phone per day")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "server certificate (PEM)")
	fs.StringVar(&options.TLSKey, "tls-key", "", "server private key (PEM)")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			if err := options.readFile(options.Config); err != nil {
				return nil, err
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		options.Port = v
	}
	if v := getenv("DATABASE_DSN"); v != "" {
		options.DatabaseDSN = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		options.RedisURL = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		options.JWTSecret = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}
	if v := getenv("DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("DAILY_LIMIT: %w", err)
		}
		options.DailyLimit = n
	}

	if (options.TLSCert == "") != (options.TLSKey == "") {
		return nil, fmt.Errorf("tls-cert and tls-key must be set together")
	}
	if options.JWTSecret == "" {
		return nil, fmt.Errorf("token signing secret is required")
	}
	return options, nil
}

func (o *Options) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, o); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	var d fileDurations
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	for _, f := range []struct {
		raw string
		dst *time.Duration
	}{
		{d.TokenTTL, &o.TokenTTL},
		{d.CodeTTL, &o.CodeTTL},
		{d.Cooldown, &o.Cooldown},
	} {
		if f.raw == "" {
			continue
		}
		v, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("error while parsing config file: %w", err)
		}
		*f.dst = v
	}
	return nil
}
