package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.AWS.Region != "us-east-1" {
		t.Errorf("region = %q", cfg.AWS.Region)
	}
	if cfg.Agents.File != "agents.yaml" {
		t.Errorf("agents file = %q", cfg.Agents.File)
	}
	if cfg.Breaker.MaxFailures != 5 || cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("breaker = %+v", cfg.Breaker)
	}
	if cfg.Cache.MaxEntries != 4096 || cfg.Cache.TTL != time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  port: "9090"
aws:
  region: eu-west-1
  batch:
    job_queue: custom-queue
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.AWS.Region != "eu-west-1" {
		t.Errorf("region = %q", cfg.AWS.Region)
	}
	if cfg.AWS.Batch.JobQueue != "custom-queue" {
		t.Errorf("job queue = %q", cfg.AWS.Batch.JobQueue)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.AWS.Lambda.FunctionName != "agent-dispatch-worker" {
		t.Errorf("lambda function = %q", cfg.AWS.Lambda.FunctionName)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DISPATCH_PORT", "7070")
	t.Setenv("AWS_REGION", "ap-southeast-2")
	t.Setenv("DISPATCH_FARGATE_SUBNETS", "subnet-1, subnet-2")
	t.Setenv("DISPATCH_BREAKER_TIMEOUT", "45s")
	t.Setenv("DISPATCH_CACHE_MAX_ENTRIES", "128")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("port = %q, want env value 7070", cfg.Server.Port)
	}
	if cfg.AWS.Region != "ap-southeast-2" {
		t.Errorf("region = %q", cfg.AWS.Region)
	}
	if len(cfg.AWS.Fargate.Subnets) != 2 || cfg.AWS.Fargate.Subnets[1] != "subnet-2" {
		t.Errorf("subnets = %v", cfg.AWS.Fargate.Subnets)
	}
	if cfg.Breaker.Timeout != 45*time.Second {
		t.Errorf("breaker timeout = %v", cfg.Breaker.Timeout)
	}
	if cfg.Cache.MaxEntries != 128 {
		t.Errorf("cache max entries = %d", cfg.Cache.MaxEntries)
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for empty port")
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
