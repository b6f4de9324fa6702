package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Pipeline      PipelineConfig
	AI            AIConfig
	ObjectStore   ObjectStoreConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	User            string
	Password        string
	Host            string
	Port            int
	Name            string
	SSLMode         string
	CSVTables       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type PipelineConfig struct {
	TopK          int
	SampleRows    int
	IncludeTables []string
}

type AIConfig struct {
	Provider      string
	BaseURL       string
	APIKey        string
	Model         string
	Temperature   float64
	Timeout       time.Duration
	RatePerSecond float64
	RateBurst     int
	SummaryModel  string
	JudgeModel    string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

// Enabled reports whether archiving to the object store was configured.
func (c ObjectStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != "" && strings.TrimSpace(c.Bucket) != ""
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

// LoadFromEnv reads an optional .env file from the working directory and then
// resolves the configuration from the process environment. Values already set
// in the environment win over the file.
func LoadFromEnv(serviceName string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("BOOKRAG_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid BOOKRAG_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	var includeTables string
	steps := []func() error{
		func() error { return applyString(lookup, "BOOKRAG_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "BOOKRAG_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "BOOKRAG_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "BOOKRAG_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "BOOKRAG_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "BOOKRAG_DB_DRIVER", &cfg.Database.Driver) },
		func() error { return applyString(lookup, "BOOKRAG_DB_DSN", &cfg.Database.DSN) },
		func() error { return applyString(lookup, "DB_USER", &cfg.Database.User) },
		func() error { return applyString(lookup, "DB_PASSWORD", &cfg.Database.Password) },
		func() error { return applyString(lookup, "DB_HOST", &cfg.Database.Host) },
		func() error { return applyInt(lookup, "DB_PORT", &cfg.Database.Port) },
		func() error { return applyString(lookup, "DB_NAME", &cfg.Database.Name) },
		func() error { return applyString(lookup, "BOOKRAG_DB_SSLMODE", &cfg.Database.SSLMode) },
		func() error { return applyString(lookup, "BOOKRAG_DB_CSV_TABLES", &cfg.Database.CSVTables) },
		func() error { return applyInt(lookup, "BOOKRAG_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "BOOKRAG_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "BOOKRAG_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "BOOKRAG_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error { return applyInt(lookup, "BOOKRAG_PIPELINE_TOP_K", &cfg.Pipeline.TopK) },
		func() error { return applyInt(lookup, "BOOKRAG_PIPELINE_SAMPLE_ROWS", &cfg.Pipeline.SampleRows) },
		func() error { return applyString(lookup, "BOOKRAG_PIPELINE_INCLUDE_TABLES", &includeTables) },
		func() error { return applyString(lookup, "BOOKRAG_AI_PROVIDER", &cfg.AI.Provider) },
		func() error { return applyString(lookup, "BOOKRAG_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyAPIKey(lookup, &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "BOOKRAG_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "BOOKRAG_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "BOOKRAG_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyFloat(lookup, "BOOKRAG_AI_RATE_PER_SECOND", &cfg.AI.RatePerSecond) },
		func() error { return applyInt(lookup, "BOOKRAG_AI_RATE_BURST", &cfg.AI.RateBurst) },
		func() error { return applyString(lookup, "BOOKRAG_AI_SUMMARY_MODEL", &cfg.AI.SummaryModel) },
		func() error { return applyString(lookup, "BOOKRAG_AI_JUDGE_MODEL", &cfg.AI.JudgeModel) },
		func() error { return applyString(lookup, "BOOKRAG_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint) },
		func() error { return applyString(lookup, "BOOKRAG_OBJECTSTORE_REGION", &cfg.ObjectStore.Region) },
		func() error { return applyString(lookup, "BOOKRAG_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket) },
		func() error {
			return applyString(lookup, "BOOKRAG_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID)
		},
		func() error {
			return applyString(lookup, "BOOKRAG_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
		},
		func() error { return applyBool(lookup, "BOOKRAG_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL) },
		func() error { return applyString(lookup, "BOOKRAG_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix) },
		func() error {
			return applyBool(lookup, "BOOKRAG_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)
		},
		func() error { return applyBool(lookup, "BOOKRAG_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "BOOKRAG_LOG_LEVEL", &cfg.Observability.LogLevel) },
		func() error { return applyBool(lookup, "BOOKRAG_AUTH_REQUIRED", &cfg.Auth.Required) },
		func() error { return applyString(lookup, "BOOKRAG_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Config{}, err
		}
	}
	cfg.Pipeline.IncludeTables = splitList(includeTables)
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.AI.Provider = strings.ToLower(cfg.AI.Provider)
	if _, ok := lookup("BOOKRAG_AI_BASE_URL"); !ok && cfg.AI.Provider == ProviderOpenAI {
		cfg.AI.BaseURL = "https://api.openai.com"
	}
	if _, ok := lookup("BOOKRAG_AI_MODEL"); !ok && cfg.AI.Provider == ProviderOpenAI {
		cfg.AI.Model = "gpt-5"
	}
	if cfg.AI.SummaryModel == "" {
		cfg.AI.SummaryModel = cfg.AI.Model
		if cfg.AI.Provider == ProviderGemini {
			cfg.AI.SummaryModel = "gemini-2.5-flash-lite"
		}
	}
	if cfg.AI.JudgeModel == "" {
		cfg.AI.JudgeModel = cfg.AI.Model
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Database.Driver {
	case DriverPostgres, DriverDuckDB:
	default:
		return Config{}, fmt.Errorf("invalid BOOKRAG_DB_DRIVER: %q", cfg.Database.Driver)
	}
	switch cfg.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("invalid BOOKRAG_AI_PROVIDER: %q", cfg.AI.Provider)
	}
	if cfg.Pipeline.TopK <= 0 {
		return Config{}, fmt.Errorf("BOOKRAG_PIPELINE_TOP_K must be > 0")
	}
	if cfg.AI.RatePerSecond > 0 && cfg.AI.RateBurst <= 0 {
		return Config{}, fmt.Errorf("BOOKRAG_AI_RATE_BURST must be > 0 when rate limiting is enabled")
	}
	return cfg, nil
}

// PostgresDSN returns the explicit DSN when one is configured, otherwise a
// connection URL assembled from the DB_* variables.
func (c DatabaseConfig) PostgresDSN() string {
	if strings.TrimSpace(c.DSN) != "" {
		return c.DSN
	}
	if c.Host == "" || c.Name == "" {
		return ""
	}
	port := c.Port
	if port <= 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + c.Name,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}
	return u.String()
}

// CSVTableMap parses BOOKRAG_DB_CSV_TABLES ("table=path,table=path").
func (c DatabaseConfig) CSVTableMap() (map[string]string, error) {
	tables := map[string]string{}
	for _, entry := range splitList(c.CSVTables) {
		name, path, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		path = strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid csv table entry %q: expected table=path", entry)
		}
		tables[name] = path
	}
	return tables, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "bookrag-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			User:            "postgres",
			Password:        "postgres",
			Host:            "localhost",
			Port:            5432,
			Name:            "bookstores",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Pipeline: PipelineConfig{
			TopK:       5,
			SampleRows: 3,
		},
		AI: AIConfig{
			Provider:      ProviderGemini,
			BaseURL:       "https://generativelanguage.googleapis.com",
			Model:         "gemini-2.5-flash",
			Temperature:   0,
			Timeout:       60 * time.Second,
			RatePerSecond: 0.1,
			RateBurst:     10,
		},
		ObjectStore: ObjectStoreConfig{
			Region:           "us-east-1",
			AutoCreateBucket: true,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required: false,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.AI.RatePerSecond = 0
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Database.SSLMode = "require"
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

// applyAPIKey prefers BOOKRAG_AI_API_KEY and falls back to the variables the
// provider SDKs read on their own.
func applyAPIKey(lookup LookupFunc, dst *string) error {
	for _, key := range []string{"BOOKRAG_AI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"} {
		if raw, ok := lookup(key); ok && strings.TrimSpace(raw) != "" {
			*dst = strings.TrimSpace(raw)
			return nil
		}
	}
	return nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
