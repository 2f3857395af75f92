// Package config loads runtime settings for the command-line tool and the
// HTTP server. Values come from defaults, an optional JSON or YAML file and
// TRIPSIM_ environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/cxd309/trip-engine/internal/engine"
)

const EnvPrefix = "TRIPSIM"

// Config holds every runtime setting.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Engine EngineConfig `mapstructure:"engine"`
}

type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

// LogConfig mirrors log.Options field for field so it converts directly.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Debug      bool   `mapstructure:"debug"`
	File       string `mapstructure:"file"` // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // json or msgpack
}

type EngineConfig struct {
	StrictGeometry bool    `mapstructure:"strictGeometry"`
	DefaultStep    float64 `mapstructure:"defaultStep"` // m, used when a request omits step_m
}

var ErrBadFormat = errors.New("config: output format must be json or msgpack")

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowOrigins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.debug", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxSizeMB", 50)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.maxAgeDays", 28)

	v.SetDefault("output.format", "json")

	v.SetDefault("engine.strictGeometry", false)
	v.SetDefault("engine.defaultStep", 30.0)
}

// Load reads the settings. An empty path uses defaults and the environment
// only; a named file that cannot be read is an error.
func Load(path string) (*Config, error) {
	v, err := open(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads path and calls onChange with the new settings each time the
// file is written. Decode failures are passed through with a nil Config.
func Watch(path string, onChange func(*Config, error)) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: watch needs a file")
	}
	v, err := open(path)
	if err != nil {
		return nil, err
	}
	c, err := decode(v)
	if err != nil {
		return nil, err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return c, nil
}

func open(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Output.Format != "json" && c.Output.Format != "msgpack" {
		return nil, fmt.Errorf("%w: %q", ErrBadFormat, c.Output.Format)
	}
	return &c, nil
}

// ApplyTo fills the engine settings a request left unset. An explicit zero
// step is kept so the engine rejects it. Strict geometry can be switched on
// by either side.
func (e EngineConfig) ApplyTo(in *engine.TripInput) {
	if !in.StepGiven() {
		in.Step = e.DefaultStep
	}
	in.StrictGeometry = in.StrictGeometry || e.StrictGeometry
}
