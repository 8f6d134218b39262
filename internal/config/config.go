package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

// DefaultFile is read when no --config flag is given and the file exists.
const DefaultFile = "routedoc.yaml"

type Config struct {
	Manifest              string   `koanf:"manifest"`
	Output                string   `koanf:"output"`
	Format                string   `koanf:"format"`
	GeneratorService      string   `koanf:"generator-service"`
	Hosts                 []string `koanf:"hosts"`
	SkipUnresolvedActions *bool    `koanf:"skip-unresolved-actions"`
	OnlyLocal             bool     `koanf:"only-local"`
	Validate              bool     `koanf:"validate"`

	Go        GoConfig       `koanf:"go"`
	Templates TemplateConfig `koanf:"templates"`
	Log       LogConfig      `koanf:"log"`
	Serve     ServeConfig    `koanf:"serve"`
	Cache     CacheConfig    `koanf:"cache"`
}

type GoConfig struct {
	Package string `koanf:"package"`
	VarName string `koanf:"var-name"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ServeConfig struct {
	Listen string `koanf:"listen"`
}

type CacheConfig struct {
	Size int `koanf:"size"`
}

var defaults = map[string]any{
	"output":            "-",
	"format":            "json",
	"generator-service": "openapi",
	"go.package":        "apidoc",
	"go.var-name":       "OpenAPIDocument",
	"log.level":         "info",
	"log.format":        "logfmt",
	"serve.listen":      ":8080",
	"cache.size":        8,
}

// BindFlags binds the flags shared by every command.
func BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: "+DefaultFile+")")
	flags.StringP("manifest", "m", "", "Service registry manifest")
	flags.String("generator-service", "", "Service whose settings.openapi is the global fragment")
	flags.StringSlice("hosts", nil, "Endpoint-host services (default: every service declaring settings.routes)")
	flags.Bool("skip-unresolved-actions", true, "Drop aliases whose action is not registered")
	flags.Bool("only-local", false, "Only document local services")
	flags.String("log.level", "", "Log level: debug, info, warn, error")
	flags.String("log.format", "", "Log format: logfmt, json")
}

// BindGenerateFlags binds the flags of the generate command.
func BindGenerateFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringP("output", "o", "", "Output file, - for stdout")
	flags.StringP("format", "f", "", "Output format: json, yaml, go")
	flags.StringP("package", "p", "", "Go package name (format go)")
	flags.String("var-name", "", "Go accessor name (format go)")
	flags.String("templates", "", "Custom templates directory")
	flags.Bool("validate", false, "Validate the generated document")
	flags.Bool("dry-run", false, "Print output without writing files")
}

// BindServeFlags binds the flags of the serve command.
func BindServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("listen", "", "Listen address")
	flags.Int("cache-size", 0, "Number of generated documents kept in memory")
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			configFile = DefaultFile
		}
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKeys maps flag names to config keys. Only flags set on the command line
// override the config file.
var flagKeys = map[string]string{
	"manifest":                "manifest",
	"generator-service":       "generator-service",
	"hosts":                   "hosts",
	"skip-unresolved-actions": "skip-unresolved-actions",
	"only-local":              "only-local",
	"log.level":               "log.level",
	"log.format":              "log.format",
	"output":                  "output",
	"format":                  "format",
	"package":                 "go.package",
	"var-name":                "go.var-name",
	"templates":               "templates.dir",
	"validate":                "validate",
	"listen":                  "serve.listen",
	"cache-size":              "cache.size",
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)
	flags := cmd.Flags()

	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		var (
			v   any
			err error
		)
		switch f.Value.Type() {
		case "bool":
			v, err = flags.GetBool(name)
		case "int":
			v, err = flags.GetInt(name)
		case "stringSlice":
			v, err = flags.GetStringSlice(name)
		default:
			v, err = flags.GetString(name)
		}
		if err == nil {
			m[key] = v
		}
	}
	return m
}

var (
	validFormats    = []string{"json", "yaml", "go"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"logfmt", "json"}
)

// Check rejects incomplete or invalid configuration.
func (c *Config) Check() error {
	if c.Manifest == "" {
		return fmt.Errorf("manifest file is required")
	}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("invalid format: %s (valid: json, yaml, go)", c.Format)
	}
	if c.Format == "go" && c.Go.Package == "" {
		return fmt.Errorf("package name is required for format go")
	}
	if c.Output == "" {
		return fmt.Errorf("output is required (- for stdout)")
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}
	if !slices.Contains(validLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %s (valid: logfmt, json)", c.Log.Format)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("cache size must be positive, got %d", c.Cache.Size)
	}
	return nil
}

// ToStdout reports whether output goes to stdout.
func (c *Config) ToStdout() bool {
	return c.Output == "-"
}
