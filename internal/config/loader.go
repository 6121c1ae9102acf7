package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentdispatch.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "DISPATCH_PORT")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "DISPATCH_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "DISPATCH_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "DISPATCH_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "DISPATCH_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "DISPATCH_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.GitHub.Token, "GITHUB_TOKEN")
	setString(&cfg.AWS.Region, "AWS_REGION")
	setString(&cfg.AWS.Lambda.FunctionName, "DISPATCH_LAMBDA_FUNCTION")
	setString(&cfg.AWS.Fargate.Cluster, "DISPATCH_FARGATE_CLUSTER")
	setString(&cfg.AWS.Fargate.TaskDefinition, "DISPATCH_FARGATE_TASKDEF")
	setString(&cfg.AWS.Fargate.Container, "DISPATCH_FARGATE_CONTAINER")
	setStrings(&cfg.AWS.Fargate.Subnets, "DISPATCH_FARGATE_SUBNETS")
	setStrings(&cfg.AWS.Fargate.SecurityGroups, "DISPATCH_FARGATE_SECURITY_GROUPS")
	setBool(&cfg.AWS.Fargate.AssignPublicIP, "DISPATCH_FARGATE_PUBLIC_IP")
	setString(&cfg.AWS.Batch.JobQueue, "DISPATCH_BATCH_QUEUE")
	setString(&cfg.AWS.Batch.JobDefinition, "DISPATCH_BATCH_JOBDEF")
	setString(&cfg.Webhook.GitHubSecret, "DISPATCH_WEBHOOK_GITHUB_SECRET")
	setString(&cfg.Agents.File, "DISPATCH_AGENTS_FILE")
	setString(&cfg.Logging.Level, "DISPATCH_LOG_LEVEL")
	setString(&cfg.Logging.Service, "DISPATCH_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "DISPATCH_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "DISPATCH_BREAKER_TIMEOUT")
	setInt64(&cfg.Cache.MaxEntries, "DISPATCH_CACHE_MAX_ENTRIES")
	setDuration(&cfg.Cache.TTL, "DISPATCH_CACHE_TTL")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.AWS.Region == "" {
		return errors.New("aws.region is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Cache.MaxEntries < 1 {
		return errors.New("cache.max_entries must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setStrings(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
