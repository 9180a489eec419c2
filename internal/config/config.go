package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL string `yaml:"url"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// ClassifierConfig points at the structured-generation endpoint.
type ClassifierConfig struct {
	URL string `yaml:"url"`
}

// PipelineConfig tunes the classification pipeline.
type PipelineConfig struct {
	// BatchSize is the maximum number of emails per classification call.
	BatchSize int `yaml:"batch_size"`
	// StartsPerSecond caps how many batches may begin within any rolling second.
	StartsPerSecond int `yaml:"starts_per_second"`
	// BatchTimeoutSeconds bounds one classification call.
	BatchTimeoutSeconds int `yaml:"batch_timeout_seconds"`
	// MaxWorkingSet caps how many emails one run may submit.
	MaxWorkingSet int `yaml:"max_working_set"`
}

// BatchTimeout returns the per-batch timeout as a duration.
func (p PipelineConfig) BatchTimeout() time.Duration {
	return time.Duration(p.BatchTimeoutSeconds) * time.Second
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	DB         DBConfig         `yaml:"db"`
	Redis      RedisConfig      `yaml:"redis"`
	MQ         MQConfig         `yaml:"mq"`
	JWT        JWTConfig        `yaml:"jwt"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// Load reads the yaml config at path, applies env overrides and defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config/base.yaml"
	}

	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open config %s: %w", path, err)
		}
		// No file is fine, env vars and defaults take over.
	} else {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}

	overrideFromEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideFromEnv(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.DB.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.DB.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.MQ.URL = url
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Server.Port = port
	}
	if url := os.Getenv("CLASSIFIER_URL"); url != "" {
		cfg.Classifier.URL = url
	}

	if v := os.Getenv("PIPELINE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.BatchSize = n
		}
	}
	if v := os.Getenv("PIPELINE_STARTS_PER_SECOND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.StartsPerSecond = n
		}
	}
	if v := os.Getenv("PIPELINE_BATCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.BatchTimeoutSeconds = n
		}
	}
	if v := os.Getenv("PIPELINE_MAX_WORKING_SET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxWorkingSet = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Pipeline.BatchSize == 0 {
		cfg.Pipeline.BatchSize = 10
	}
	if cfg.Pipeline.StartsPerSecond == 0 {
		cfg.Pipeline.StartsPerSecond = 3
	}
	if cfg.Pipeline.BatchTimeoutSeconds == 0 {
		cfg.Pipeline.BatchTimeoutSeconds = 30
	}
	if cfg.Pipeline.MaxWorkingSet == 0 {
		cfg.Pipeline.MaxWorkingSet = 500
	}
}

func validate(cfg *Config) error {
	if cfg.Pipeline.BatchSize < 1 {
		return fmt.Errorf("pipeline.batch_size must be positive, got %d", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.StartsPerSecond < 1 {
		return fmt.Errorf("pipeline.starts_per_second must be positive, got %d", cfg.Pipeline.StartsPerSecond)
	}
	if cfg.Pipeline.BatchTimeoutSeconds < 1 {
		return fmt.Errorf("pipeline.batch_timeout_seconds must be positive, got %d", cfg.Pipeline.BatchTimeoutSeconds)
	}
	if cfg.Pipeline.MaxWorkingSet < 1 {
		return fmt.Errorf("pipeline.max_working_set must be positive, got %d", cfg.Pipeline.MaxWorkingSet)
	}
	return nil
}
