// Package config loads sparqlviz settings from a TOML file.
//
// Every section is optional; missing values take the same defaults as the
// command-line flags:
//
//	[prefixes]
//	ex = "http://example.org/"
//
//	[layout]
//	width = 1200
//	ticks = 500
//
//	[render]
//	renderer = "nodelink"
//	formats = ["svg", "json"]
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	sverrors "github.com/matzehuels/sparqlviz/pkg/errors"
	"github.com/matzehuels/sparqlviz/pkg/layout"
	"github.com/matzehuels/sparqlviz/pkg/pipeline"
	"github.com/matzehuels/sparqlviz/pkg/sparql/parser"
)

const appName = "sparqlviz"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the contents of a configuration file.
type Config struct {
	// Prefixes are declared in front of every query in addition to the
	// built-in rdf, rdfs and owl prefixes. An entry with a built-in name
	// overrides it.
	Prefixes map[string]string `toml:"prefixes"`
	Layout   layout.Options    `toml:"layout"`
	Render   Render            `toml:"render"`
	Cache    Cache             `toml:"cache"`
	Server   Server            `toml:"server"`
}

// Render holds output defaults.
type Render struct {
	Renderer string   `toml:"renderer"`
	Formats  []string `toml:"formats"`
	Detailed bool     `toml:"detailed"`
	Scale    float64  `toml:"scale"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	// KeyPrefix scopes all keys, e.g. to share one Redis between
	// deployments.
	KeyPrefix string `toml:"key_prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `toml:"addr"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	c := Config{
		Render: Render{
			Renderer: pipeline.DefaultRenderer,
			Formats:  []string{pipeline.FormatSVG},
			Scale:    pipeline.DefaultScale,
		},
		Cache: Cache{Backend: BackendFile},
		Server: Server{
			Addr:         ":8080",
			MaxBodyBytes: sverrors.MaxQueryLength,
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{60 * time.Second},
		},
	}
	c.Layout.SetDefaults()
	return c
}

// Parse decodes TOML on top of the defaults and validates the result.
// Unknown keys are rejected so that typos do not go unnoticed.
func Parse(data []byte) (Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return Config{}, sverrors.Wrap(sverrors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, sverrors.New(sverrors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, sverrors.New(sverrors.ErrCodeFileNotFound, "config file %s not found", path)
	}
	if err != nil {
		return Config{}, sverrors.Wrap(sverrors.ErrCodeInternal, err, "read config")
	}
	return Parse(data)
}

// LoadOrDefault loads path, or DefaultPath when path is empty. A missing
// default file yields the defaults; a missing explicit file is an error.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	c, err := Load(path)
	if sverrors.Is(err, sverrors.ErrCodeFileNotFound) {
		return Default(), nil
	}
	return c, err
}

// DefaultPath is config.toml under $XDG_CONFIG_HOME/sparqlviz, falling
// back to ~/.config/sparqlviz.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Validate checks every section.
func (c Config) Validate() error {
	for name, iri := range c.Prefixes {
		if err := sverrors.ValidatePrefixName(name); err != nil {
			return err
		}
		if err := sverrors.ValidateNamespace(iri); err != nil {
			return err
		}
	}
	if err := c.Layout.Validate(); err != nil {
		return sverrors.Wrap(sverrors.ErrCodeInvalidConfig, err, "[layout]")
	}
	opts := pipeline.Options{Formats: append([]string(nil), c.Render.Formats...), Renderer: c.Render.Renderer, Scale: c.Render.Scale}
	if err := opts.ValidateForRender(); err != nil {
		return sverrors.Wrap(sverrors.ErrCodeInvalidConfig, err, "[render]")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return sverrors.New(sverrors.ErrCodeInvalidConfig, "[cache] redis backend needs redis_addr")
		}
	default:
		return sverrors.New(sverrors.ErrCodeInvalidConfig, "[cache] unknown backend %q", c.Cache.Backend)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return sverrors.New(sverrors.ErrCodeInvalidConfig, "[server] max_body_bytes must be positive")
	}
	return nil
}

// AllPrefixes returns the built-in prefixes overlaid with the configured
// ones.
func (c Config) AllPrefixes() map[string]string {
	all := maps.Clone(parser.DefaultPrefixes)
	maps.Copy(all, c.Prefixes)
	return all
}

// Apply fills the unset fields of opts from c.
func (c Config) Apply(opts *pipeline.Options) {
	if opts.Prefixes == nil {
		opts.Prefixes = c.AllPrefixes()
	}
	l := c.Layout
	setFloat(&opts.Width, l.Width)
	setFloat(&opts.Height, l.Height)
	if opts.Ticks == 0 {
		opts.Ticks = l.Ticks
	}
	setFloat(&opts.CollideRadius, l.CollideRadius)
	setFloat(&opts.ChargeStrength, l.ChargeStrength)
	setFloat(&opts.LinkStrength, l.LinkStrength)
	setFloat(&opts.LinkDistance, l.LinkDistance)
	setFloat(&opts.FontSize, l.FontSize)

	if len(opts.Formats) == 0 {
		opts.Formats = append([]string(nil), c.Render.Formats...)
	}
	if opts.Renderer == "" {
		opts.Renderer = c.Render.Renderer
	}
	if !opts.Detailed {
		opts.Detailed = c.Render.Detailed
	}
	setFloat(&opts.Scale, c.Render.Scale)
}

func setFloat(dst *float64, v float64) {
	if *dst == 0 {
		*dst = v
	}
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return sverrors.Wrap(sverrors.ErrCodeInternal, err, "encode config")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
