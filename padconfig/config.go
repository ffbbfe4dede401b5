// Package padconfig loads the settings of the digit pad:
// classification endpoint, canvas style, submission and display
// behavior, and logging.
//
// Files are read as TOML, YAML or JSON depending on their extension,
// a missing file yields DefaultConfig, and a few DIGITPAD_* environment
// variables take precedence over the file.
package padconfig

import (
	"encoding/json"
	"fmt"
	"image/color"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/benoitkugler/digitpad/padraster"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the configuration file.
const (
	EnvEndpoint = "DIGITPAD_ENDPOINT"
	EnvLogLevel = "DIGITPAD_LOG_LEVEL"
)

// Duration is a time.Duration written as "3s", "500ms"...
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the complete configuration.
type Config struct {
	// Endpoint is the URL of the prediction route.
	Endpoint string `toml:"endpoint" yaml:"endpoint" json:"endpoint"`

	Canvas CanvasConfig `toml:"canvas" yaml:"canvas" json:"canvas"`
	Submit SubmitConfig `toml:"submit" yaml:"submit" json:"submit"`
	Result ResultConfig `toml:"result" yaml:"result" json:"result"`
	Log    LogConfig    `toml:"log" yaml:"log" json:"log"`
}

// CanvasConfig describes the drawing surface.
type CanvasConfig struct {
	Width       int     `toml:"width" yaml:"width" json:"width"`
	Height      int     `toml:"height" yaml:"height" json:"height"`
	StrokeWidth float64 `toml:"stroke_width" yaml:"stroke_width" json:"stroke_width"`
	StrokeColor string  `toml:"stroke_color" yaml:"stroke_color" json:"stroke_color"`
	Background  string  `toml:"background" yaml:"background" json:"background"`
}

// SubmitConfig tunes the requests sent to the classification service.
type SubmitConfig struct {
	// Timeout bounds one request. 0 means no limit.
	Timeout Duration `toml:"timeout" yaml:"timeout" json:"timeout"`
	// Discover looks up the endpoint with mDNS instead of using Endpoint.
	Discover bool   `toml:"discover" yaml:"discover" json:"discover"`
	Service  string `toml:"service" yaml:"service" json:"service"`
	// SchemaMode is one of strict, warn or ignore.
	SchemaMode string `toml:"schema_mode" yaml:"schema_mode" json:"schema_mode"`
}

type ResultConfig struct {
	ErrorTimeout Duration `toml:"error_timeout" yaml:"error_timeout" json:"error_timeout"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"`
}

// DefaultConfig returns the settings used when no file is provided.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://127.0.0.1:8000/predict/",
		Canvas: CanvasConfig{
			Width:       280,
			Height:      280,
			StrokeWidth: 15,
			StrokeColor: "#000000",
			Background:  "#ffffff",
		},
		Submit: SubmitConfig{
			Service:    "_digitclassifier._tcp",
			SchemaMode: "strict",
		},
		Result: ResultConfig{ErrorTimeout: Duration(3 * time.Second)},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration at `path`.
// If the file doesn't exist, the defaults are returned.
// Environment overrides are applied but the result is not validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := decode(path, data, cfg); err != nil {
				return nil, err
			}
		}
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	}
	return nil
}

// ApplyEnvOverrides applies DIGITPAD_ENDPOINT and DIGITPAD_LOG_LEVEL.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(EnvEndpoint); v != "" {
		c.Endpoint = v
		c.Submit.Discover = false
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// ValidationError describes an invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every field and reports all the problems found.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if !c.Submit.Discover {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			add("endpoint", "%s", err)
		} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("endpoint", "expected an absolute http(s) URL, got %q", c.Endpoint)
		}
	} else if c.Submit.Service == "" {
		add("submit.service", "required when discovery is enabled")
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		add("canvas", "invalid size %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.StrokeWidth <= 0 {
		add("canvas.stroke_width", "must be positive, got %g", c.Canvas.StrokeWidth)
	}
	if _, err := ParseColor(c.Canvas.StrokeColor); err != nil {
		add("canvas.stroke_color", "%s", err)
	}
	if _, err := ParseColor(c.Canvas.Background); err != nil {
		add("canvas.background", "%s", err)
	}

	if c.Submit.Timeout < 0 {
		add("submit.timeout", "must not be negative")
	}
	switch strings.ToLower(c.Submit.SchemaMode) {
	case "", "strict", "warn", "ignore":
	default:
		add("submit.schema_mode", "unknown mode %q", c.Submit.SchemaMode)
	}
	if c.Result.ErrorTimeout <= 0 {
		add("result.error_timeout", "must be positive")
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format", "unknown format %q", c.Log.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Style returns the pen and background of the canvas.
func (c CanvasConfig) Style() (padraster.Style, error) {
	stroke, err := ParseColor(c.StrokeColor)
	if err != nil {
		return padraster.Style{}, err
	}
	bg, err := ParseColor(c.Background)
	if err != nil {
		return padraster.Style{}, err
	}
	return padraster.Style{LineWidth: c.StrokeWidth, Stroke: stroke, Background: bg}, nil
}

// ParseColor accepts the CSS hexadecimal notations
// #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
