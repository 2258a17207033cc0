// Package config loads the CLI configuration file.
//
// The file is CUE, unified with an embedded schema that supplies defaults
// and rejects unknown fields:
//
//	db: path: "/var/lib/ndb"
//	query: default_limit: 50
//	watch: poll_interval: "500ms"
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// DefaultFile is the config file looked up when none is given.
const DefaultFile = "ndb.cue"

// Config is the decoded configuration.
type Config struct {
	DB    DBConfig    `json:"db"`
	Query QueryConfig `json:"query"`
	Watch WatchConfig `json:"watch"`
	Log   LogConfig   `json:"log"`
}

type DBConfig struct {
	Path          string `json:"path"`
	NoteCacheSize int    `json:"note_cache_size"`
}

type QueryConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

type WatchConfig struct {
	PollInterval time.Duration `json:"-"`
	RawInterval  string        `json:"poll_interval"`
	BatchSize    int           `json:"batch_size"`
}

type LogConfig struct {
	Level string `json:"level"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg, err := Parse(nil, "default")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema invalid: %v", err))
	}
	return cfg
}

// Load reads path. A missing file yields Default(); an empty path means
// DefaultFile.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Parse unifies CUE source with the schema and decodes the result.
// filename is used in error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) == 0 {
		data = []byte("{}")
	}
	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	value := def.Unify(user)

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	d, err := time.ParseDuration(cfg.Watch.RawInterval)
	if err != nil {
		return nil, fmt.Errorf("%s: watch.poll_interval: %w", filename, err)
	}
	if d <= 0 {
		return nil, fmt.Errorf("%s: watch.poll_interval must be positive", filename)
	}
	cfg.Watch.PollInterval = d

	return &cfg, nil
}
