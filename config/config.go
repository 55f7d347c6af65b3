// Package config resolves client settings from defaults, .env files and
// SNAKE_* environment variables. Command-line flags are applied by main.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"

	"snake-client/auth"
	"snake-client/constants"
)

type Transport string

const (
	WebSocket Transport = "websocket"
	WebRTC    Transport = "webrtc"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	ServerURL string
	Transport Transport
	// SignalURL is the WebRTC offer endpoint; empty means derive it from ServerURL.
	SignalURL string
	ICEURLs   []string
	Token     string
	Username  string
	LogLevel  string
	// LogFile receives the log; empty means stderr.
	LogFile string
}

func Default() Config {
	return Config{
		ServerURL: constants.DEFAULT_SERVER_URL,
		Transport: WebSocket,
		LogLevel:  "info",
		LogFile:   "snake-client.log",
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment without overriding variables already set, then
// resolves the configuration from the environment. Missing files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv, Default()), nil
}

// FromEnv overlays the SNAKE_* variables present in getenv onto base.
func FromEnv(getenv func(string) string, base Config) Config {
	c := base
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.ServerURL, "SNAKE_SERVER_URL")
	set(&c.SignalURL, "SNAKE_SIGNAL_URL")
	set(&c.Token, "SNAKE_TOKEN")
	set(&c.Username, "SNAKE_USERNAME")
	set(&c.LogLevel, "SNAKE_LOG_LEVEL")
	set(&c.LogFile, "SNAKE_LOG_FILE")

	if v := strings.TrimSpace(getenv("SNAKE_TRANSPORT")); v != "" {
		c.Transport = Transport(strings.ToLower(v))
	}
	if v := getenv("SNAKE_ICE_URLS"); v != "" {
		c.ICEURLs = SplitList(v)
	}
	return c
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the settings and fills Username from the token when it
// is empty.
func (c *Config) Validate() error {
	var errs error

	u, err := url.Parse(c.ServerURL)
	switch {
	case err != nil:
		errs = multierr.Append(errs, fmt.Errorf("server url: %v", err))
	case c.Transport == WebSocket && u.Scheme != "ws" && u.Scheme != "wss":
		errs = multierr.Append(errs, fmt.Errorf("server url %q: scheme must be ws or wss", c.ServerURL))
	}

	switch c.Transport {
	case WebSocket:
	case WebRTC:
		if _, err := c.SignalingURL(); err != nil {
			errs = multierr.Append(errs, err)
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("transport %q: want %s or %s", c.Transport, WebSocket, WebRTC))
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log level: %v", err))
	}

	if c.Token != "" {
		claims, err := auth.Inspect(c.Token)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("token: %v", err))
		} else if c.Username == "" {
			c.Username = claims.Username
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, errs)
	}
	return nil
}

// SignalingURL returns SignalURL, or the /webrtc/offer endpoint on the
// server's host when it is unset.
func (c Config) SignalingURL() (string, error) {
	raw := c.SignalURL
	if raw == "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("signal url: cannot derive from %q", c.ServerURL)
		}
		scheme := "http"
		if u.Scheme == "wss" || u.Scheme == "https" {
			scheme = "https"
		}
		return (&url.URL{Scheme: scheme, Host: u.Host, Path: "/webrtc/offer"}).String(), nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("signal url %q: want an http or https url", raw)
	}
	return raw, nil
}
