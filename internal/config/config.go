package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/logger"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Data       DataConfig       `yaml:"data"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    logger.Config    `yaml:"logging"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Env     string `yaml:"env"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DataConfig represents market data source configuration
type DataConfig struct {
	// Directory holding one <symbol>_<interval>.csv file per market
	CSVDir string `yaml:"csv_dir"`
}

// EvaluationConfig represents default factor evaluation parameters.
// Request-level overrides take precedence over these values.
type EvaluationConfig struct {
	Horizons       []int             `yaml:"horizons"`
	Quantiles      int               `yaml:"quantiles"`
	RollingWindow  int               `yaml:"rolling_window"`
	MinSampleSize  int               `yaml:"min_sample_size"`
	PeriodsPerYear float64           `yaml:"periods_per_year"`
	ICMethod       string            `yaml:"ic_method"`
	Weights        *analysis.Weights `yaml:"weights"`
}

// ToAnalysis converts the section into an engine configuration
func (e EvaluationConfig) ToAnalysis() analysis.Config {
	cfg := analysis.Config{
		Horizons:       e.Horizons,
		Quantiles:      e.Quantiles,
		RollingWindow:  e.RollingWindow,
		MinSampleSize:  e.MinSampleSize,
		PeriodsPerYear: e.PeriodsPerYear,
		ICMethod:       analysis.Method(e.ICMethod),
		Weights:        analysis.DefaultWeights(),
	}
	if e.Weights != nil {
		cfg.Weights = *e.Weights
	}
	return cfg
}

// MonitoringConfig represents monitoring configuration
type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPath    string `yaml:"prometheus_path"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

// LoadEnv loads variables from a .env file if present. Missing files are not
// an error so production deployments can rely on real environment variables.
func LoadEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		logger.Debug("No .env file loaded", "error", err.Error())
	}
}

// Load loads configuration from a YAML file. ${VAR} references in the file
// are expanded from the environment before parsing.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// applyDefaults fills zero-valued fields with working defaults
func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "factor-mining"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 15 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 30 * time.Second
	}
	if len(config.Evaluation.Horizons) == 0 {
		config.Evaluation.Horizons = []int{1, 5, 10, 20}
	}
	if config.Evaluation.Quantiles == 0 {
		config.Evaluation.Quantiles = 5
	}
	if config.Evaluation.RollingWindow == 0 {
		config.Evaluation.RollingWindow = 60
	}
	if config.Evaluation.MinSampleSize == 0 {
		config.Evaluation.MinSampleSize = 10
	}
	if config.Evaluation.PeriodsPerYear == 0 {
		config.Evaluation.PeriodsPerYear = 365
	}
	if config.Evaluation.ICMethod == "" {
		config.Evaluation.ICMethod = "pearson"
	}
	if config.Monitoring.PrometheusPath == "" {
		config.Monitoring.PrometheusPath = "/metrics"
	}
	if config.RateLimit.RequestsPerSecond == 0 {
		config.RateLimit.RequestsPerSecond = 20
	}
	if config.RateLimit.Burst == 0 {
		config.RateLimit.Burst = 40
	}
	if config.Logging.Level == "" {
		config.Logging = logger.DefaultConfig()
	}
}

// Validate checks configuration invariants
func Validate(config *Config) error {
	if config.Server.Port < 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Evaluation.Quantiles < 2 {
		return fmt.Errorf("evaluation.quantiles must be >= 2, got %d", config.Evaluation.Quantiles)
	}
	if config.Evaluation.RollingWindow < 2 {
		return fmt.Errorf("evaluation.rolling_window must be >= 2, got %d", config.Evaluation.RollingWindow)
	}
	if config.Evaluation.PeriodsPerYear <= 0 {
		return fmt.Errorf("evaluation.periods_per_year must be positive, got %v", config.Evaluation.PeriodsPerYear)
	}
	for _, h := range config.Evaluation.Horizons {
		if h < 1 {
			return fmt.Errorf("evaluation.horizons entries must be positive, got %d", h)
		}
	}
	switch config.Evaluation.ICMethod {
	case "pearson", "spearman":
	default:
		return fmt.Errorf("evaluation.ic_method must be pearson or spearman, got %q", config.Evaluation.ICMethod)
	}
	return nil
}
