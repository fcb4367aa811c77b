package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/vango-dev/outlet/internal/errors"
	"github.com/vango-dev/outlet/pkg/link"
	"github.com/vango-dev/outlet/pkg/router"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "outlet.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "OUTLET_"

	// DefaultRoutes is the default routes source, relative to the config.
	DefaultRoutes = "routes.json"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = "localhost:3000"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "outlet"
)

// Config represents outlet.json. Every field can be overridden from the
// environment; the variable name is given in the env tag after the
// OUTLET_ prefix.
type Config struct {
	// Routes is the route config source: a .json/.yaml file path, relative
	// to the config file, or an s3://bucket/key URI.
	Routes string `json:"routes,omitempty" env:"ROUTES"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"logLevel,omitempty" env:"LOG_LEVEL"`

	Router  RouterConfig  `json:"router,omitempty" envPrefix:"ROUTER_"`
	Link    LinkConfig    `json:"link,omitempty" envPrefix:"LINK_"`
	Server  ServerConfig  `json:"server,omitempty" envPrefix:"SERVER_"`
	Metrics MetricsConfig `json:"metrics,omitempty" envPrefix:"METRICS_"`
	S3      S3Config      `json:"s3,omitempty" envPrefix:"S3_"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RouterConfig configures the router tree.
type RouterConfig struct {
	// ExtraParams is "query" or "reject".
	ExtraParams string `json:"extraParams,omitempty" env:"EXTRA_PARAMS"`

	// Policy is "supersede" or "queue".
	Policy string `json:"policy,omitempty" env:"POLICY"`

	// NavigationTimeout bounds each navigation. Zero disables it.
	NavigationTimeout Duration `json:"navigationTimeout,omitempty" env:"NAVIGATION_TIMEOUT"`
}

// LinkConfig configures link bindings.
type LinkConfig struct {
	Prefix      string `json:"prefix,omitempty" env:"PREFIX"`
	ActiveClass string `json:"activeClass,omitempty" env:"ACTIVE_CLASS"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr            string   `json:"addr,omitempty" env:"ADDR"`
	Title           string   `json:"title,omitempty" env:"TITLE"`
	HistoryPath     string   `json:"historyPath,omitempty" env:"HISTORY_PATH"`
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" env:"SHUTDOWN_TIMEOUT"`

	// AllowedOrigins lists origins allowed to open the history socket.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Disabled turns off metrics collection and the metrics endpoint.
	Disabled  bool   `json:"disabled,omitempty" env:"DISABLED"`
	Namespace string `json:"namespace,omitempty" env:"NAMESPACE"`
	Path      string `json:"path,omitempty" env:"PATH"`
}

// S3Config configures the S3 routes source.
type S3Config struct {
	Region       string `json:"region,omitempty" env:"REGION"`
	Endpoint     string `json:"endpoint,omitempty" env:"ENDPOINT"`
	UsePathStyle bool   `json:"usePathStyle,omitempty" env:"USE_PATH_STYLE"`
}

// Duration is a time.Duration written as a string such as "5s" in JSON
// and in the environment.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// New creates a config with defaults applied.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads outlet.json from dir and applies environment overrides.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path and applies
// environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R221").WithDetail("No outlet.json found in " + filepath.Dir(path))
		}
		return nil, errors.New("R220").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("R220").
			WithDetail("Failed to parse outlet.json: " + err.Error()).
			WithSource(path)
	}
	cfg.configPath = path

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// LoadOrDefault loads outlet.json from dir, falling back to defaults plus
// environment overrides when the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.CodeOf(err) != "R221" {
		return cfg, err
	}
	cfg = &Config{}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from OUTLET_* environment variables. Unset
// variables leave fields untouched.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(env.Options{Prefix: EnvPrefix})
}

func (c *Config) applyEnv(opts env.Options) error {
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("R222").WithDetail("environment override: " + err.Error())
	}
	return nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("R220").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R220").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Routes == "" {
		c.Routes = DefaultRoutes
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Router.ExtraParams == "" {
		c.Router.ExtraParams = string(router.ExtraParamsQuery)
	}
	if c.Router.Policy == "" {
		c.Router.Policy = string(router.PolicySupersede)
	}
	if c.Link.Prefix == "" {
		c.Link.Prefix = link.DefaultPrefix
	}
	if c.Link.ActiveClass == "" {
		c.Link.ActiveClass = link.DefaultActiveClass
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.HistoryPath == "" {
		c.Server.HistoryPath = "/ws"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks enumerated values and paths.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New("R222").WithDetail(fmt.Sprintf(format, args...)).WithSource(c.configPath)
	}

	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return invalid("logLevel must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	switch router.ExtraParamsMode(c.Router.ExtraParams) {
	case router.ExtraParamsQuery, router.ExtraParamsReject:
	default:
		return invalid("router.extraParams must be query or reject; got %q", c.Router.ExtraParams)
	}
	switch router.Policy(c.Router.Policy) {
	case router.PolicySupersede, router.PolicyQueue:
	default:
		return invalid("router.policy must be supersede or queue; got %q", c.Router.Policy)
	}
	if c.Router.NavigationTimeout < 0 {
		return invalid("router.navigationTimeout must not be negative")
	}
	for _, p := range []string{c.Server.HistoryPath, c.Metrics.Path} {
		if !strings.HasPrefix(p, "/") {
			return invalid("server paths must start with /; got %q", p)
		}
	}
	return nil
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	return levels[strings.ToLower(c.LogLevel)]
}

// RouterOptions returns router options for the configured modes.
func (c *Config) RouterOptions() []router.Option {
	return []router.Option{
		router.WithExtraParams(router.ExtraParamsMode(c.Router.ExtraParams)),
		router.WithPolicy(router.Policy(c.Router.Policy)),
	}
}

// LinkOptions returns link binding options for the configured prefix and
// active class.
func (c *Config) LinkOptions() []link.Option {
	return []link.Option{
		link.WithPrefix(c.Link.Prefix),
		link.WithActiveClass(c.Link.ActiveClass),
	}
}

// RoutesSource returns Routes resolved against the config directory.
// S3 URIs and absolute paths are returned unchanged.
func (c *Config) RoutesSource() string {
	if strings.Contains(c.Routes, "://") || filepath.IsAbs(c.Routes) || c.Dir() == "" {
		return c.Routes
	}
	return filepath.Join(c.Dir(), c.Routes)
}

// Exists checks if outlet.json exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot searches upward from startDir for outlet.json.
func FindProjectRoot(startDir string) (string, error) {
	dir := startDir
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R221").WithDetail("No outlet.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
