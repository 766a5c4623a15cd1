package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort         = 2333
	defaultEnv          = "development"
	defaultSQLitePath   = "data/insight.db"
	defaultDBHost       = "127.0.0.1"
	defaultDBPort       = 3306
	defaultDBUser       = "root"
	defaultDBName       = "insight_deck"
	defaultDBCharset    = "utf8mb4"
	defaultPowMaxNumber = 100_000
	defaultDailyLimit   = 3
	defaultAIProvider   = "openai"
	defaultAIModel      = "gpt-4o-mini"
)

// Load reads and validates the YAML config file at path.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg := defaultAppConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}
	normalize(&cfg)

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, path)
	}
	switch cfg.Database.Driver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("invalid database.driver %q in %q, expected sqlite or mysql", cfg.Database.Driver, path)
	}
	if cfg.Database.Driver == "mysql" && (cfg.Database.Port < 1 || cfg.Database.Port > 65535) {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, path)
	}
	if cfg.Admission.PowMaxNumber < 1 {
		return nil, fmt.Errorf("invalid admission.pow_max_number %d in %q, expected >= 1", cfg.Admission.PowMaxNumber, path)
	}
	if cfg.Report.DailyLimit < 1 {
		return nil, fmt.Errorf("invalid report.daily_limit %d in %q, expected >= 1", cfg.Report.DailyLimit, path)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Driver:  "sqlite",
			Path:    defaultSQLitePath,
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
		},
		Admission: AdmissionConfig{
			PowMaxNumber: defaultPowMaxNumber,
		},
		AI: AIConfig{
			Provider: defaultAIProvider,
			Model:    defaultAIModel,
		},
		Report: ReportConfig{
			DailyLimit: defaultDailyLimit,
		},
	}
}

func normalize(cfg *AppConfig) {
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if v := strings.TrimSpace(o); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod":
		return "production"
	default:
		return "development"
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env != "production"
}
