package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int             `yaml:"port"`
	Env            string          `yaml:"env"` // "development" | "production"
	AllowedOrigins []string        `yaml:"allowed_origins"`
	Timezone       string          `yaml:"timezone"`
	Database       DatabaseConfig  `yaml:"database"`
	Redis          RedisConfig     `yaml:"redis"`
	Admission      AdmissionConfig `yaml:"admission"`
	AI             AIConfig        `yaml:"ai"`
	Report         ReportConfig    `yaml:"report"`
	Events         EventsConfig    `yaml:"events"`
}

// DatabaseConfig selects the ledger store: an embedded SQLite file or MySQL.
type DatabaseConfig struct {
	Driver   string            `yaml:"driver"` // "sqlite" | "mysql"
	Path     string            `yaml:"path"`   // sqlite file path
	DSN      string            `yaml:"dsn"`    // full MySQL DSN, overrides the fields below
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Params   map[string]string `yaml:"params"`
}

// RedisConfig is optional; without it the IP rate limiter and idempotence
// middleware are disabled.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// AdmissionConfig tunes the budget-and-challenge engine.
type AdmissionConfig struct {
	// PowSecret signs proof-of-work challenges. When empty a random
	// per-process secret is generated and challenges issued before a
	// restart become unverifiable.
	PowSecret string `yaml:"pow_secret"`
	// PowMaxNumber bounds the client's hash search; higher is harder.
	PowMaxNumber  int64 `yaml:"pow_max_number"`
	EnableCleanup bool  `yaml:"enable_cleanup"`
}

// AIConfig points the reflection endpoint at an LLM provider.
type AIConfig struct {
	Provider string `yaml:"provider"` // "openai" | "anthropic"
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// ReportConfig tunes the report download quota.
type ReportConfig struct {
	DailyLimit int `yaml:"daily_limit"`
}

// EventsConfig configures the analytics event proxy.
type EventsConfig struct {
	UpstreamURL string `yaml:"upstream_url"`
}
