package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sanspareilsmyn/fixationlens/internal/fixation"
)

const (
	SourceCSV   = "csv"
	SourceKafka = "kafka"

	defaultSourceType       = SourceCSV
	defaultKafkaGroupID     = "fixationlens-default-group"
	defaultTimeColumn       = "timestamp"
	defaultXColumn          = "X_el"
	defaultYColumn          = "Y_el"
	defaultConfidenceColumn = "c"
	defaultTaskColumn       = "Task_Name"
	defaultTrialCalibColumn = "calibration_error"
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
	defaultLogFileEnabled   = false
	defaultLogDirectory     = "log"
	defaultLogFilename      = "fixationlens.log"
	defaultLogMaxSizeMB     = 100
	defaultLogMaxBackups    = 3
	defaultLogMaxAgeDays    = 7
	defaultLogCompress      = false

	// Environment variable prefix
	envPrefix = "FIXATIONLENS"
)

type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Detector DetectorConfig `mapstructure:"detector"`
	Sinks    SinksConfig    `mapstructure:"sinks"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

type SourceConfig struct {
	Type string          `mapstructure:"type"` // "csv" or "kafka"
	CSV  CSVSourceConfig `mapstructure:"csv"`
}

// CSVSourceConfig describes a recorded gaze time series and, optionally, the
// trial table carrying per-task calibration errors.
type CSVSourceConfig struct {
	Path             string `mapstructure:"path"`
	Task             string `mapstructure:"task"` // keep only rows of this task when set
	TimeColumn       string `mapstructure:"timeColumn"`
	XColumn          string `mapstructure:"xColumn"`
	YColumn          string `mapstructure:"yColumn"`
	ConfidenceColumn string `mapstructure:"confidenceColumn"`
	TaskColumn       string `mapstructure:"taskColumn"`
	StreamColumn     string `mapstructure:"streamColumn"`

	TrialFile              string `mapstructure:"trialFile"`
	TrialCalibrationColumn string `mapstructure:"trialCalibrationColumn"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"groupID"`
}

type DetectorConfig struct {
	fixation.Config `mapstructure:",squash"`

	// CalibrationErrors overrides CalibrationError per stream. Keys are
	// matched case-insensitively.
	CalibrationErrors map[string]float64 `mapstructure:"calibrationErrors"`
	// FlushOnEnd concludes fixations still ongoing when a stream ends.
	FlushOnEnd bool `mapstructure:"flushOnEnd"`
}

type SinksConfig struct {
	CSV    CSVSinkConfig    `mapstructure:"csv"`
	SQLite SQLiteSinkConfig `mapstructure:"sqlite"`
	Kafka  KafkaSinkConfig  `mapstructure:"kafka"`
}

type CSVSinkConfig struct {
	Path           string `mapstructure:"path"`
	IncludeSamples bool   `mapstructure:"includeSamples"`
}

type SQLiteSinkConfig struct {
	Path string `mapstructure:"path"`
}

type KafkaSinkConfig struct {
	Topic string `mapstructure:"topic"` // brokers are shared with kafka.brokers
}

type MetricsConfig struct {
	ListenAddress string `mapstructure:"listenAddress"` // e.g. ":9090"; empty disables the endpoint
}

type LogConfig struct {
	Level              string `mapstructure:"level"`
	Format             string `mapstructure:"format"`
	FileLoggingEnabled bool   `mapstructure:"fileLoggingEnabled"`
	Directory          string `mapstructure:"directory"`
	Filename           string `mapstructure:"filename"`
	MaxSize            int    `mapstructure:"maxSize"`    // Max size in MB
	MaxBackups         int    `mapstructure:"maxBackups"` // Max backup files
	MaxAge             int    `mapstructure:"maxAge"`     // Max days to retain
	Compress           bool   `mapstructure:"compress"`   // Compress rotated files?
}

// CalibrationErrorFor returns the calibration error configured for stream,
// falling back to the global value.
func (d DetectorConfig) CalibrationErrorFor(stream string) float64 {
	if v, ok := d.CalibrationErrors[strings.ToLower(stream)]; ok {
		return v
	}
	return d.CalibrationError
}

// Load initializes viper, reads config, applies defaults, unmarshals, and validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	configureViper(v, configPath)

	// Set default values before reading config source .yaml
	setDefaults(v)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshallingConfig, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configureViper sets up viper instance for file and environment variables.
func configureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults applies default configuration values using Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("source.type", defaultSourceType)
	v.SetDefault("source.csv.timeColumn", defaultTimeColumn)
	v.SetDefault("source.csv.xColumn", defaultXColumn)
	v.SetDefault("source.csv.yColumn", defaultYColumn)
	v.SetDefault("source.csv.confidenceColumn", defaultConfidenceColumn)
	v.SetDefault("source.csv.taskColumn", defaultTaskColumn)
	v.SetDefault("source.csv.trialCalibrationColumn", defaultTrialCalibColumn)
	v.SetDefault("kafka.groupID", defaultKafkaGroupID)

	d := fixation.DefaultConfig(0)
	v.SetDefault("detector.calibrationError", d.CalibrationError)
	v.SetDefault("detector.dispersionThresholdFactor", d.DispersionThresholdFactor)
	v.SetDefault("detector.valueAtMin", d.ValueAtMin)
	v.SetDefault("detector.valueAtMax", d.ValueAtMax)
	v.SetDefault("detector.timeAtZero", d.TimeAtZero)
	v.SetDefault("detector.minTime", d.MinTime)
	v.SetDefault("detector.maxTime", d.MaxTime)
	v.SetDefault("detector.sampleThreshold", d.SampleThreshold)
	v.SetDefault("detector.maxSampleGap", d.MaxSampleGap)
	v.SetDefault("detector.duplicateEpsilon", d.DuplicateEpsilon)
	v.SetDefault("detector.minFixationSamples", d.MinFixationSamples)
	v.SetDefault("detector.flushOnEnd", false)

	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.format", defaultLogFormat)
	v.SetDefault("log.fileLoggingEnabled", defaultLogFileEnabled)
	v.SetDefault("log.directory", defaultLogDirectory)
	v.SetDefault("log.filename", defaultLogFilename)
	v.SetDefault("log.maxSize", defaultLogMaxSizeMB)
	v.SetDefault("log.maxBackups", defaultLogMaxBackups)
	v.SetDefault("log.maxAge", defaultLogMaxAgeDays)
	v.SetDefault("log.compress", defaultLogCompress)
}

// readConfigFile attempts to read the configuration file specified in viper.
func readConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return ErrConfigFileMissing
		}
		return fmt.Errorf("%w: %w", ErrReadingConfigFile, err)
	}
	return nil
}

func validateConfig(cfg *Config) error {
	base := cfg.Detector.Config
	if base.CalibrationError == 0 && cfg.Source.Type == SourceCSV && cfg.Source.CSV.TrialFile != "" {
		// Calibration errors come from the trial file; check the remaining parameters.
		base.CalibrationError = 1
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDetectorConfig, err)
	}
	for stream, calib := range cfg.Detector.CalibrationErrors {
		if err := cfg.Detector.WithCalibrationError(calib).Validate(); err != nil {
			return fmt.Errorf("%w: stream %q: %w", ErrInvalidDetectorConfig, stream, err)
		}
	}

	switch cfg.Source.Type {
	case SourceCSV:
		if cfg.Source.CSV.Path == "" {
			return ErrEmptyCSVPath
		}
	case SourceKafka:
		if err := validateKafka(cfg.Kafka); err != nil {
			return err
		}
	default:
		return ErrUnknownSourceType
	}

	s := cfg.Sinks
	if s.CSV.Path == "" && s.SQLite.Path == "" && s.Kafka.Topic == "" {
		return ErrNoSinksConfigured
	}
	if s.Kafka.Topic != "" && len(cfg.Kafka.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	return nil
}

func validateKafka(k KafkaConfig) error {
	if len(k.Brokers) == 0 {
		return ErrEmptyKafkaBrokers
	}
	if k.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if k.GroupID == "" {
		return ErrEmptyKafkaGroupID
	}
	return nil
}
