package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ingestion/internal/frame"
	"ingestion/pkg/exception"

	"github.com/joho/godotenv"
	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultReportInterval = 10 * time.Second
	defaultStoreBatchSize = 256
	defaultPostgresPort   = 5432
)

// Environment overrides, applied after the file is read.
const (
	EnvInputPath        = "INGEST_INPUT_PATH"
	EnvMaxMessageSize   = "INGEST_MAX_MESSAGE_SIZE"
	EnvStrictValidation = "INGEST_STRICT_VALIDATION"
	EnvStoreConnString  = "INGEST_STORE_DSN"
	EnvPyroscopeAddress = "INGEST_PYROSCOPE_ADDRESS"
)

// Config mirrors the YAML config layout.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Parser    ParserConfig    `yaml:"parser"`
	Store     StoreConfig     `yaml:"store"`
	Profiling ProfilingConfig `yaml:"profiling"`
	Report    ReportConfig    `yaml:"report"`
}

// InputConfig describes where raw messages come from and how they are framed.
type InputConfig struct {
	// Path is a file to read; empty or "-" reads stdin.
	Path           string `yaml:"path"`
	Delimiter      string `yaml:"delimiter"`
	MaxMessageSize int    `yaml:"max_message_size"`
}

type ParserConfig struct {
	StrictValidation bool `yaml:"strict_validation"`
}

// StoreConfig enables persisting parsed messages to PostgreSQL.
type StoreConfig struct {
	Enabled   bool           `yaml:"enabled"`
	BatchSize int            `yaml:"batch_size"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	SSLMode    string `yaml:"sslmode"`
	ConnString string `yaml:"conn_string"`
}

type ProfilingConfig struct {
	PyroscopeAddress string `yaml:"pyroscope_address"`
}

type ReportConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns a configuration that reads newline-framed stdin.
func Default() Config {
	return Config{}.withDefaults()
}

// Load reads a YAML config file, applies environment overrides and defaults,
// and validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(exception.ErrConfigRead, err.Error()).With("path", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(exception.ErrConfigDecode, err.Error()).With("path", path)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from an env file into the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(exception.ErrConfigRead, err.Error()).With("path", path)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = "newline"
	}
	if c.Input.MaxMessageSize == 0 {
		c.Input.MaxMessageSize = frame.DefaultMaxMessageSize
	}
	if c.Store.BatchSize == 0 {
		c.Store.BatchSize = defaultStoreBatchSize
	}
	if c.Store.Postgres.Port == 0 {
		c.Store.Postgres.Port = defaultPostgresPort
	}
	if c.Report.Interval == 0 {
		c.Report.Interval = defaultReportInterval
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if _, err := frame.ParseDelimiter(c.Input.Delimiter); err != nil {
		return errors.Wrap(exception.ErrConfigInvalid, err.Error())
	}
	if c.Input.MaxMessageSize < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "input.max_message_size must be >= 0")
	}
	if c.Store.BatchSize < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "store.batch_size must be >= 0")
	}
	if c.Store.Postgres.Port < 0 || c.Store.Postgres.Port > 65535 {
		return errors.Wrap(exception.ErrConfigInvalid, "store.postgres.port out of range")
	}
	if c.Report.Interval < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "report.interval must be >= 0")
	}
	return nil
}

// FrameOption converts the input section into framing options.
func (c Config) FrameOption() (frame.Option, error) {
	delim, err := frame.ParseDelimiter(c.Input.Delimiter)
	if err != nil {
		return frame.Option{}, err
	}
	return frame.Option{
		Delimiter:      delim,
		MaxMessageSize: c.Input.MaxMessageSize,
	}, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvInputPath); ok {
		c.Input.Path = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvMaxMessageSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(exception.ErrConfigInvalid, err.Error()).With("env", EnvMaxMessageSize)
		}
		c.Input.MaxMessageSize = n
	}
	if v, ok := lookup(EnvStrictValidation); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrap(exception.ErrConfigInvalid, err.Error()).With("env", EnvStrictValidation)
		}
		c.Parser.StrictValidation = b
	}
	if v, ok := lookup(EnvStoreConnString); ok && v != "" {
		c.Store.Enabled = true
		c.Store.Postgres.ConnString = v
	}
	if v, ok := lookup(EnvPyroscopeAddress); ok {
		c.Profiling.PyroscopeAddress = strings.TrimSpace(v)
	}
	return nil
}
