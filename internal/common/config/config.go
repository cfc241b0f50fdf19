// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	GenAI         GenAIConfig        `mapstructure:"genai"`
	Pipeline      PipelineConfig     `mapstructure:"pipeline"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the inbound HTTP server settings.
type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int `mapstructure:"write_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	PricingIndex string   `mapstructure:"pricing_index"`
	LabourIndex  string   `mapstructure:"labour_index"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig covers both outbound AI services: the generative model used for
// estimate synthesis and the embedding model used for query vectors. An empty
// APIKey disables both; the pipeline then runs keyword-only retrieval and
// answers via the fallback estimator.
type GenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	GenerativeModel string `mapstructure:"generative_model"`
	EmbeddingModel  string `mapstructure:"embedding_model"`
}

// PipelineConfig holds tuning for the estimation pipeline. All timeouts are
// in milliseconds.
type PipelineConfig struct {
	OverallTimeout   int `mapstructure:"overall_timeout"`
	EmbedTimeout     int `mapstructure:"embed_timeout"`
	RetrievalTimeout int `mapstructure:"retrieval_timeout"`
	SynthesisTimeout int `mapstructure:"synthesis_timeout"`
	PersistTimeout   int `mapstructure:"persist_timeout"`

	VectorLimit   int     `mapstructure:"vector_limit"`
	KeywordLimit  int     `mapstructure:"keyword_limit"`
	MergedLimit   int     `mapstructure:"merged_limit"`
	LabourLimit   int     `mapstructure:"labour_limit"`
	MinSimilarity float64 `mapstructure:"min_similarity"`

	BaseTokenBudget int `mapstructure:"base_token_budget"`
	MaxTokenBudget  int `mapstructure:"max_token_budget"`

	RegionCacheTTL int `mapstructure:"region_cache_ttl"` // seconds
}

// AuthConfig maps caller identities to their API keys for the inbound call.
type AuthConfig struct {
	APIKeys map[string]string `mapstructure:"api_keys"`
}

// NotificationConfig gates the best-effort estimate-ready publication.
type NotificationConfig struct {
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		Region   string `mapstructure:"region"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
