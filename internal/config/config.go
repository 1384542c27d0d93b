// Package config loads the storefront configuration.
//
// Values are layered: built-in defaults, then the YAML file, then
// environment variables, then command-line flags (applied by the caller).
// Validate checks the result against an embedded CUE schema.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvConfig     = "STOREFRONT_CONFIG"
	EnvURL        = "STOREFRONT_URL"
	EnvAnonKey    = "STOREFRONT_ANON_KEY"
	EnvTable      = "STOREFRONT_TABLE"
	EnvState      = "STOREFRONT_STATE"
	EnvPassphrase = "STOREFRONT_PASSPHRASE"
	EnvTimeout    = "STOREFRONT_TIMEOUT"
)

// Config is the full configuration.
type Config struct {
	Backend Backend `yaml:"backend" json:"backend"`
	Storage Storage `yaml:"storage" json:"storage"`
	Auth    Auth    `yaml:"auth" json:"auth"`
	Display Display `yaml:"display" json:"display"`
}

// Backend locates the hosted backend.
type Backend struct {
	URL     string        `yaml:"url" json:"url"`
	AnonKey string        `yaml:"anon_key" json:"anon_key"`
	Table   string        `yaml:"table" json:"table"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

// Duration is a time.Duration written as a Go duration ("15s") or a
// whole number of seconds.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts the same forms as STOREFRONT_TIMEOUT.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timeout must be a duration or a number of seconds", node.Line)
	}
	v, err := parseTimeout(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// Storage locates the local state database.
type Storage struct {
	Path       string `yaml:"path" json:"path"`
	Passphrase string `yaml:"passphrase" json:"passphrase"`
}

// Auth holds sign-up rules.
type Auth struct {
	MinPasswordLength int `yaml:"min_password_length" json:"min_password_length"`
}

// Display controls how prices are rendered.
type Display struct {
	Locale   string `yaml:"locale" json:"locale"`
	Currency string `yaml:"currency" json:"currency"`
}

// Default returns the built-in configuration. Backend URL and key have
// no default.
func Default() *Config {
	return &Config{
		Backend: Backend{Table: "PRODUTOS"},
		Storage: Storage{Path: filepath.Join(DefaultDir(), "state.db")},
		Auth:    Auth{MinPasswordLength: 6},
		Display: Display{Locale: "pt-BR", Currency: "R$"},
	}
}

// DefaultDir is ~/.storefront, or .storefront when the home directory
// is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// Load builds the configuration from defaults, the file at path, and the
// environment read through getenv (os.Getenv when nil).
//
// When path is empty, $STOREFRONT_CONFIG or ~/.storefront/config.yaml is
// used and a missing file is not an error. An explicit path must exist.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	explicit := path != ""
	if !explicit {
		path = getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(DefaultDir(), "config.yaml")
	}

	cfg := Default()
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv(EnvURL); v != "" {
		c.Backend.URL = v
	}
	if v := getenv(EnvAnonKey); v != "" {
		c.Backend.AnonKey = v
	}
	if v := getenv(EnvTable); v != "" {
		c.Backend.Table = v
	}
	if v := getenv(EnvState); v != "" {
		c.Storage.Path = v
	}
	if v := getenv(EnvPassphrase); v != "" {
		c.Storage.Passphrase = v
	}
	if v := getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Backend.Timeout = Duration(d)
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a whole number of
// seconds.
func parseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// LanguageTag returns the display locale as a language tag, falling back
// to Brazilian Portuguese when the locale does not parse.
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Display.Locale)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Backend.AnonKey != "" {
		out.Backend.AnonKey = redact(out.Backend.AnonKey)
	}
	if out.Storage.Passphrase != "" {
		out.Storage.Passphrase = "********"
	}
	return &out
}

func redact(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
