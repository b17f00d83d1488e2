package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/pubmap/pkg/constants"
	"github.com/agentstation/pubmap/pkg/errors"
	"github.com/agentstation/pubmap/pkg/identity"
	"github.com/agentstation/pubmap/pkg/sources"
	pkgsync "github.com/agentstation/pubmap/pkg/sync"
)

// envPrefix namespaces pubmap settings in the environment (PUBMAP_CATALOG, ...).
const envPrefix = "PUBMAP"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog and source
	CatalogPath string
	Source      string
	Author      string
	APIKey      string
	Input       string
	BaseURL     string

	// Fetching
	MaxPages  int
	PageSize  int
	PageDelay time.Duration
	Timeout   time.Duration

	// Identity
	KeyPrefix string
	Identity  string

	// Enhancement
	NoEnhance bool
	Crossref  bool
	Mailto    string

	// Scheduling
	SyncInterval time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.pubmap.yaml or ./.pubmap.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return loadConfig(os.Getenv(envPrefix + "_CONFIG"))
}

func loadConfig(configFile string) (*Config, error) {
	// .env files go first so viper sees their values
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := bindEnvAliases(v); err != nil {
		return nil, errors.NewConfigError("env", "failed to bind environment variables", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".pubmap")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit config file must exist; the search paths are optional.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "failed to read config file", err)
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		CatalogPath: v.GetString("catalog"),
		Source:      v.GetString("source"),
		Author:      v.GetString("author"),
		APIKey:      v.GetString("api_key"),
		Input:       v.GetString("input"),
		BaseURL:     v.GetString("base_url"),

		MaxPages:  v.GetInt("max_pages"),
		PageSize:  v.GetInt("page_size"),
		PageDelay: v.GetDuration("page_delay"),
		Timeout:   v.GetDuration("timeout"),

		KeyPrefix: v.GetString("key_prefix"),
		Identity:  v.GetString("identity"),

		NoEnhance: v.GetBool("no_enhance"),
		Crossref:  v.GetBool("crossref"),
		Mailto:    v.GetString("mailto"),

		SyncInterval: v.GetDuration("sync_interval"),

		// Empty LOG_LEVEL lets -v/-q decide, see determineLogLevel
		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog", constants.DefaultCatalogPath)
	v.SetDefault("source", string(sources.SerpAPIID))
	v.SetDefault("timeout", constants.SyncTimeout)
	v.SetDefault("identity", "keyed")
}

// bindEnvAliases binds the conventional variable names that are not
// prefixed with PUBMAP_.
func bindEnvAliases(v *viper.Viper) error {
	aliases := map[string][]string{
		"api_key": {"PUBMAP_API_KEY", "SERPAPI_API_KEY", "SERPAPI_KEY"},
		"author":  {"PUBMAP_AUTHOR", "SCHOLAR_AUTHOR_ID"},
		"mailto":  {"PUBMAP_MAILTO", "CROSSREF_MAILTO"},
	}
	for key, names := range aliases {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, catalog string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if catalog != "" {
		c.CatalogPath = catalog
	}
}

// SyncOptions converts the configured sync settings. Zero values are left
// to the sync defaults.
func (c *Config) SyncOptions() []pkgsync.Option {
	opts := []pkgsync.Option{pkgsync.WithCrossref(c.Crossref, c.Mailto)}
	if c.CatalogPath != "" {
		opts = append(opts, pkgsync.WithCatalogPath(c.CatalogPath))
	}
	if c.Source != "" {
		opts = append(opts, pkgsync.WithSource(sources.ID(c.Source)))
	}
	if c.Identity != "" {
		opts = append(opts, pkgsync.WithIdentity(identity.Mode(c.Identity)))
	}
	if c.Author != "" {
		opts = append(opts, pkgsync.WithAuthor(c.Author))
	}
	if c.APIKey != "" {
		opts = append(opts, pkgsync.WithAPIKey(c.APIKey))
	}
	if c.Input != "" {
		opts = append(opts, pkgsync.WithInput(c.Input))
	}
	if c.BaseURL != "" {
		opts = append(opts, pkgsync.WithBaseURL(c.BaseURL))
	}
	if c.MaxPages > 0 {
		opts = append(opts, pkgsync.WithMaxPages(c.MaxPages))
	}
	if c.PageSize > 0 {
		opts = append(opts, pkgsync.WithPageSize(c.PageSize))
	}
	if c.PageDelay > 0 {
		opts = append(opts, pkgsync.WithPageDelay(c.PageDelay))
	}
	if c.Timeout > 0 {
		opts = append(opts, pkgsync.WithTimeout(c.Timeout))
	}
	if c.KeyPrefix != "" {
		opts = append(opts, pkgsync.WithKeyPrefix(c.KeyPrefix))
	}
	if c.NoEnhance {
		opts = append(opts, pkgsync.WithoutEnhancement())
	}
	return opts
}

// loadEnvFiles loads environment variables from .env files.
// .env.local is loaded first because godotenv never overrides a value
// that is already set.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
