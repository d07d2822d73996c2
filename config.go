package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "./config.yml"
	DefaultEnvFile    = "./config.env"
	EnvPrefix         = "BKSH"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit    string        `yaml:"git_commit" envconfig:"BKSH_GIT_COMMIT"`
	GitTag       string        `yaml:"git_tag" envconfig:"BKSH_GIT_TAG"`
	BuildTime    string        `yaml:"build_time" envconfig:"BKSH_BUILD_TIME"`
	IsProduction bool          `yaml:"is_production" envconfig:"BKSH_IS_PRODUCTION"`
	LogLevel     zapcore.Level `yaml:"log_level" envconfig:"BKSH_LOG_LEVEL"`
	LogFolder    string        `yaml:"log_folder" envconfig:"BKSH_LOG_FOLDER"`
	LogMaxSize   int           `yaml:"log_max_size" envconfig:"BKSH_LOG_MAX_SIZE"` // in megabytes
	LockFile     string        `yaml:"lock_file" envconfig:"BKSH_LOCK_FILE"`
	Storage      StorageConfig `yaml:"storage"`
}

type StorageConfig struct {
	Driver string       `yaml:"driver" envconfig:"BKSH_STORAGE_DRIVER"`
	File   FileConfig   `yaml:"file"`
	BoltDB BoltDBConfig `yaml:"boltdb"`
	Redis  RedisConfig  `yaml:"redis"`
}

type FileConfig struct {
	Path string `yaml:"path" envconfig:"BKSH_STORAGE_FILE_PATH"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKSH_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKSH_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKSH_BOLTDB_BUCKET_NAME"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKSH_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKSH_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKSH_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKSH_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKSH_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKSH_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKSH_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKSH_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKSH_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKSH_REDIS_DATABASE_INDEX"`
	Key           string        `yaml:"key" envconfig:"BKSH_REDIS_KEY"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables into the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if len(config.Storage.Driver) == 0 {
		config.Storage.Driver = DriverFile
	}

	if len(config.Storage.File.Path) == 0 {
		config.Storage.File.Path = "biblioteca.json"
	}

	if len(config.Storage.BoltDB.FilePath) == 0 {
		config.Storage.BoltDB.FilePath = "bookshelf.db"
	}

	if config.Storage.BoltDB.Timeout == 0 {
		config.Storage.BoltDB.Timeout = 5 * time.Second
	}

	if len(config.Storage.BoltDB.BucketName) == 0 {
		config.Storage.BoltDB.BucketName = "books"
	}

	if len(config.Storage.Redis.Key) == 0 {
		config.Storage.Redis.Key = defaultRedisKey
	}

	switch config.Storage.Driver {
	case DriverFile, DriverBolt:
	case DriverRedis:
		if len(config.Storage.Redis.Host) == 0 || len(config.Storage.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	default:
		return fmt.Errorf("unknown storage driver %q, expected file, bolt or redis", config.Storage.Driver)
	}

	if len(config.LockFile) == 0 {
		config.LockFile = config.StorageTarget() + ".lock"
	}

	return nil
}

// StorageTarget returns the local path of the selected storage.
func (c *Config) StorageTarget() string {
	switch c.Storage.Driver {
	case DriverBolt:
		return c.Storage.BoltDB.FilePath
	case DriverRedis:
		return filepath.Join(os.TempDir(), "bookshelf-"+c.Storage.Redis.Key)
	default:
		return c.Storage.File.Path
	}
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. Missing files are not an error.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if errors.Is(err, fs.ErrNotExist) {
		config, err = &Config{LogLevel: zapcore.InfoLevel}, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKSH`.
	err = LoadConfigEnvs(EnvPrefix, config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
