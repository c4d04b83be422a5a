package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"usdataexplorer/internal/election"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "EXPLORER"

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server" envconfig:"SERVER"`
	Security    SecurityConfig    `yaml:"security" envconfig:"SECURITY"`
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Datasets    DatasetsConfig    `yaml:"datasets" envconfig:"DATASETS"`
	Aggregation AggregationConfig `yaml:"aggregation" envconfig:"AGGREGATION"`
	Export      ExportConfig      `yaml:"export" envconfig:"EXPORT"`
	WebSocket   WebSocketConfig   `yaml:"websocket" envconfig:"WEBSOCKET"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// Addr is the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths. Relative paths resolve against
// BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	WebDir    string `yaml:"web_dir" envconfig:"WEB_DIR"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ExportDir string `yaml:"export_dir" envconfig:"EXPORT_DIR"`
}

// DatasetsConfig describes where the source CSV files come from
type DatasetsConfig struct {
	// Source is "file" (read from the data dir) or "http" (fetch from BaseURL)
	Source          string        `yaml:"source" envconfig:"SOURCE"`
	BaseURL         string        `yaml:"base_url" envconfig:"BASE_URL"`
	PresidentFile   string        `yaml:"president_file" envconfig:"PRESIDENT_FILE"`
	SenateFile      string        `yaml:"senate_file" envconfig:"SENATE_FILE"`
	HouseFile       string        `yaml:"house_file" envconfig:"HOUSE_FILE"`
	EVFile          string        `yaml:"ev_file" envconfig:"EV_FILE"`
	BorderFile      string        `yaml:"border_file" envconfig:"BORDER_FILE"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
	FetchRPS        float64       `yaml:"fetch_rps" envconfig:"FETCH_RPS"`
	CacheTTL        time.Duration `yaml:"cache_ttl" envconfig:"CACHE_TTL"`
	WarmOnStart     bool          `yaml:"warm_on_start" envconfig:"WARM_ON_START"`
	WarmConcurrency int           `yaml:"warm_concurrency" envconfig:"WARM_CONCURRENCY"`
	MaxFileSize     int64         `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE"`
	Lenient         bool          `yaml:"lenient" envconfig:"LENIENT"`
}

// Files maps dataset keys to their file names
func (d DatasetsConfig) Files() map[string]string {
	return map[string]string{
		"president": d.PresidentFile,
		"senate":    d.SenateFile,
		"house":     d.HouseFile,
		"ev":        d.EVFile,
		"border":    d.BorderFile,
	}
}

// AggregationConfig tunes the derived views
type AggregationConfig struct {
	ThresholdPercent float64                `yaml:"threshold_percent" envconfig:"THRESHOLD_PERCENT"`
	TopN             int                    `yaml:"top_n" envconfig:"TOP_N"`
	MarginPalette    election.MarginPalette `yaml:"margin_palette" envconfig:"MARGIN_PALETTE"`
}

// ExportConfig contains export defaults
type ExportConfig struct {
	DefaultFormat string `yaml:"default_format" envconfig:"DEFAULT_FORMAT"`
	SQLDriver     string `yaml:"sql_driver" envconfig:"SQL_DRIVER"`
	DSN           string `yaml:"dsn" envconfig:"DSN"`
	Table         string `yaml:"table" envconfig:"TABLE"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in increasing order of precedence. A .env file in
// the working directory is loaded into the environment first; variables
// that are already set win over it.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file; an empty path skips the file
func LoadFrom(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate checks ranges and normalizes enumerations
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	c.Datasets.Source = strings.ToLower(c.Datasets.Source)
	switch c.Datasets.Source {
	case "file":
	case "http":
		if c.Datasets.BaseURL == "" {
			return fmt.Errorf("datasets base url is required for the http source")
		}
	default:
		return fmt.Errorf("unsupported dataset source: %q", c.Datasets.Source)
	}

	if c.Aggregation.ThresholdPercent < 0 || c.Aggregation.ThresholdPercent > 100 {
		return fmt.Errorf("threshold percent must be between 0 and 100: %v", c.Aggregation.ThresholdPercent)
	}
	c.Aggregation.MarginPalette = c.Aggregation.MarginPalette.WithDefaults()

	switch c.Export.SQLDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported sql driver: %q", c.Export.SQLDriver)
	}

	// Logs are always structured
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "console"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the first config file found in the usual
// locations, or "" when there is none
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:   "data",
			WebDir:    "web",
			LogsDir:   "logs",
			ExportDir: "exports",
		},
		Datasets: DatasetsConfig{
			Source:          "file",
			PresidentFile:   DefaultPresidentFile,
			SenateFile:      DefaultSenateFile,
			HouseFile:       DefaultHouseFile,
			EVFile:          DefaultEVFile,
			BorderFile:      DefaultBorderFile,
			FetchTimeout:    2 * time.Minute,
			FetchRPS:        2,
			CacheTTL:        time.Hour,
			WarmOnStart:     false,
			WarmConcurrency: 3,
			MaxFileSize:     512 << 20,
		},
		Aggregation: AggregationConfig{
			ThresholdPercent: 1.0,
			TopN:             15,
			MarginPalette:    election.DefaultPalette,
		},
		Export: ExportConfig{
			DefaultFormat: "csv",
			SQLDriver:     "sqlite3",
			Table:         "aggregate",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
