// internal/common/config/config.go
package config

// Config is the main application configuration struct. It is built once at startup and
// passed by value or pointer into constructors; nothing mutates it afterwards.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Server    ServerConfig            `mapstructure:"server"`
	Neo4j     Neo4jConfig             `mapstructure:"neo4j"`
	Redis     RedisConfig             `mapstructure:"redis"`
	GenAI     GenAIConfig             `mapstructure:"genai"`
	Catalog   CatalogConfig           `mapstructure:"catalog"`
	Summary   SummaryConfig           `mapstructure:"summary"`
	Lineage   LineageConfig           `mapstructure:"lineage"`
	Pipeline  PipelineConfig          `mapstructure:"pipeline"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	RateLimit RateLimitConfig         `mapstructure:"ratelimit"`
	CORS      CORSConfig              `mapstructure:"cors"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type Neo4jConfig struct {
	URI            string `mapstructure:"uri"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    int    `mapstructure:"max_pool_size"`
	QueryTimeout   int    `mapstructure:"query_timeout"`   // milliseconds
	ConnectTimeout int    `mapstructure:"connect_timeout"` // milliseconds
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig points at an OpenAI-compatible chat completions API.
type GenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// HasCredentials reports whether an API key is configured.
func (g GenAIConfig) HasCredentials() bool {
	return g.APIKey != ""
}

type CatalogConfig struct {
	SchemaSampleSize int `mapstructure:"schema_sample_size"`
	TableListLimit   int `mapstructure:"table_list_limit"`
	SearchLimit      int `mapstructure:"search_limit"`
	CacheTTL         int `mapstructure:"cache_ttl"` // milliseconds, 0 disables the schema cache
}

type SummaryConfig struct {
	SampleSize int `mapstructure:"sample_size"`
}

type LineageConfig struct {
	DefaultDepth int  `mapstructure:"default_depth"`
	DedupeEdges  bool `mapstructure:"dedupe_edges"`
}

type PipelineConfig struct {
	DisableSQLTranslation bool `mapstructure:"disable_sql_translation"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
