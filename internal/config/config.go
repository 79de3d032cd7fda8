package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the archive API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Folders   FoldersConfig   `yaml:"folders"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// DatabaseConfig holds document store settings.
type DatabaseConfig struct {
	URI                 string `yaml:"uri"`
	Name                string `yaml:"name"`
	ArchiveCollection   string `yaml:"archive_collection"`
	ThesaurusCollection string `yaml:"thesaurus_collection"`
	ReadinessTimeout    int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds key-value store settings. Sessions and the embedding cache live here.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
}

// EmbeddingConfig holds query embedding settings.
type EmbeddingConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// SearchConfig holds Atlas Search index names and document paths.
type SearchConfig struct {
	TextIndex      string `yaml:"text_index"`
	VectorIndex    string `yaml:"vector_index"`
	FullTextPath   string `yaml:"full_text_path"`
	EmbeddingPath  string `yaml:"embedding_path"`
	MaxListResults int    `yaml:"max_list_results"`
}

// FoldersConfig describes the browse hierarchy.
type FoldersConfig struct {
	GeographyField    string `yaml:"geography_field"`
	GenreField        string `yaml:"genre_field"`
	SubCategoryPrefix string `yaml:"sub_category_prefix"`
	MaxDepth          int    `yaml:"max_depth"`
}

// StorageConfig holds object storage settings for scanned originals.
type StorageConfig struct {
	Driver    string `yaml:"driver"` // s3, minio (default: s3)
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// AuthConfig holds OpenID Connect settings. Auth is disabled when ClientID is empty.
type AuthConfig struct {
	ClientID        string   `yaml:"client_id"`
	ClientSecret    string   `yaml:"client_secret"`
	AuthorityURL    string   `yaml:"authority_url"`
	Issuer          string   `yaml:"issuer"`
	Audience        string   `yaml:"audience"`
	JWKSURL         string   `yaml:"jwks_url"`
	RedirectURL     string   `yaml:"redirect_url"`
	FrontendURL     string   `yaml:"frontend_url"`
	Scopes          []string `yaml:"scopes"`
	SessionTTLMin   int      `yaml:"session_ttl_min"`
	CookieMaxAgeMin int      `yaml:"cookie_max_age_min"`
	InsecureCookies bool     `yaml:"insecure_cookies"`
}

// Enabled reports whether OIDC login is configured.
func (a AuthConfig) Enabled() bool { return a.ClientID != "" }

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Database.Name == "" {
		c.Database.Name = "folklore"
	}
	if c.Database.ArchiveCollection == "" {
		c.Database.ArchiveCollection = "Archive"
	}
	if c.Database.ThesaurusCollection == "" {
		c.Database.ThesaurusCollection = "Thesaurus"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24
	}

	if c.Search.TextIndex == "" {
		c.Search.TextIndex = "search"
	}
	if c.Search.VectorIndex == "" {
		c.Search.VectorIndex = "vector_index"
	}
	if c.Search.FullTextPath == "" {
		c.Search.FullTextPath = "cleaned_full_text"
	}
	if c.Search.EmbeddingPath == "" {
		c.Search.EmbeddingPath = "cleaned_full_text_embedding"
	}
	if c.Search.MaxListResults <= 0 {
		c.Search.MaxListResults = 500
	}

	if c.Folders.GeographyField == "" {
		c.Folders.GeographyField = "geography"
	}
	if c.Folders.GenreField == "" {
		c.Folders.GenreField = "genre"
	}
	if c.Folders.SubCategoryPrefix == "" {
		c.Folders.SubCategoryPrefix = "sub_category_"
	}
	if c.Folders.MaxDepth <= 0 {
		c.Folders.MaxDepth = 6
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = "s3"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "folklorearchive"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-west-1"
	}

	if c.Auth.SessionTTLMin <= 0 {
		c.Auth.SessionTTLMin = 15
	}
	if c.Auth.CookieMaxAgeMin <= 0 {
		c.Auth.CookieMaxAgeMin = 30
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "folklore-archive"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}
	if c.Database.URI == "" {
		errs = append(errs, errors.New("database.uri is required"))
	}
	if c.Auth.Enabled() && len(c.Cache.Addrs) == 0 {
		errs = append(errs, errors.New("cache.addrs is required when auth is enabled"))
	}
	if c.Auth.Enabled() && c.Auth.AuthorityURL == "" {
		errs = append(errs, errors.New("auth.authority_url is required when auth.client_id is set"))
	}
	if c.Auth.Enabled() && c.Auth.FrontendURL == "" {
		errs = append(errs, errors.New("auth.frontend_url is required when auth.client_id is set"))
	}
	if c.Auth.Enabled() && c.Auth.RedirectURL == "" {
		errs = append(errs, errors.New("auth.redirect_url is required when auth.client_id is set"))
	}
	if c.Embedding.Enabled {
		if c.Embedding.Model == "" {
			errs = append(errs, errors.New("embedding.model is required when embedding is enabled"))
		}
		if c.Embedding.Dimensions < 0 {
			errs = append(errs, fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions))
		}
	}
	switch c.Storage.Driver {
	case "s3", "minio":
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be \"s3\" or \"minio\", got %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "minio" && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("storage.endpoint is required for the minio driver"))
	}
	if c.Folders.MaxDepth < 2 {
		errs = append(errs, fmt.Errorf("folders.max_depth must be at least 2, got %d", c.Folders.MaxDepth))
	}
	return errors.Join(errs...)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
