// Package config loads and validates application configuration from YAML files
// with .env and environment-variable overrides. It provides typed structs for
// every subsystem (Corpus, Lexicon, Tokenizer, Indexer, Search, Server, Redis,
// Kafka, Postgres, etc.).
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Lexicon   LexiconConfig   `yaml:"lexicon"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Debug     DebugConfig     `yaml:"debug"`
}

// Corpus drivers.
const (
	CorpusDriverDir      = "dir"
	CorpusDriverPostgres = "postgres"
)

// CorpusConfig selects where documents are read from. The dir driver reads
// <DocumentID>.<ext> files from Dir; the postgres driver reads (id, body)
// rows from Table.
type CorpusConfig struct {
	Driver string `yaml:"driver"`
	Dir    string `yaml:"dir"`
	Table  string `yaml:"table"`
}

// LexiconConfig points at the flat exclusion-list files, one token per line.
// An empty PunctuationFile disables punctuation filtering.
type LexiconConfig struct {
	StopwordsFile   string `yaml:"stopwordsFile"`
	PunctuationFile string `yaml:"punctuationFile"`
}

// Tokenizer strategies.
const (
	TokenizerWhitespace = "whitespace"
	TokenizerUnicode    = "unicode"
	TokenizerSegmenter  = "segmenter"
)

// TokenizerConfig selects the Token Source strategy. Dictionaries is only
// used by the segmenter strategy and is a comma-separated list of files.
type TokenizerConfig struct {
	Strategy     string `yaml:"strategy"`
	Dictionaries string `yaml:"dictionaries"`
}

// Document-frequency counting modes.
const (
	DocFreqDistinct = "distinct"
	DocFreqLegacy   = "legacy"
)

// IndexerConfig controls index construction.
type IndexerConfig struct {
	Workers           int    `yaml:"workers"`
	DocumentFrequency string `yaml:"documentFrequency"`
}

// SearchConfig controls query execution limits.
type SearchConfig struct {
	TopK         int           `yaml:"topK"`
	MaxResults   int           `yaml:"maxResults"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

// ServerConfig holds HTTP server settings. RateLimitPerMinute is a
// per-client budget; zero disables limiting. An empty CORSOrigins disables
// CORS headers. TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For
// header is believed when keying the rate limiter.
type ServerConfig struct {
	Port               int           `yaml:"port"`
	ReadTimeout        time.Duration `yaml:"readTimeout"`
	WriteTimeout       time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdownTimeout"`
	RateLimitPerMinute int           `yaml:"rateLimitPerMinute"`
	CORSOrigins        []string      `yaml:"corsOrigins"`
	TrustedProxies     []string      `yaml:"trustedProxies"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection and result-caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds the broker list and topic for query analytics events.
type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled"`
	Brokers         []string `yaml:"brokers"`
	AnalyticsTopic  string   `yaml:"analyticsTopic"`
	EventBufferSize int      `yaml:"eventBufferSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server used by the
// interactive commands. The serve command mounts /metrics on its own mux.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// DebugConfig controls the optional normalized-index dump written after a
// build. An empty DumpPath disables it.
type DebugConfig struct {
	DumpPath string `yaml:"dumpPath"`
}

// Load reads a .env file (if present), then a YAML config file (if provided),
// and finally applies environment-variable overrides. Variables already set
// in the environment take precedence over .env values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would make the build or the scorer
// ill-defined.
func (c *Config) Validate() error {
	switch c.Corpus.Driver {
	case CorpusDriverDir:
		if c.Corpus.Dir == "" {
			return fmt.Errorf("corpus.dir is required for the %s driver", CorpusDriverDir)
		}
	case CorpusDriverPostgres:
		if c.Corpus.Table == "" {
			return fmt.Errorf("corpus.table is required for the %s driver", CorpusDriverPostgres)
		}
	default:
		return fmt.Errorf("unknown corpus driver %q", c.Corpus.Driver)
	}
	switch c.Tokenizer.Strategy {
	case TokenizerWhitespace, TokenizerUnicode:
	case TokenizerSegmenter:
		if c.Tokenizer.Dictionaries == "" {
			return fmt.Errorf("tokenizer.dictionaries is required for the %s strategy", TokenizerSegmenter)
		}
	default:
		return fmt.Errorf("unknown tokenizer strategy %q", c.Tokenizer.Strategy)
	}
	switch c.Indexer.DocumentFrequency {
	case DocFreqDistinct, DocFreqLegacy:
	default:
		return fmt.Errorf("unknown document frequency mode %q", c.Indexer.DocumentFrequency)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.topK must be positive, got %d", c.Search.TopK)
	}
	for _, proxy := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(proxy); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(proxy); err != nil {
			return fmt.Errorf("server.trustedProxies: %q is not an IP or CIDR", proxy)
		}
	}
	if c.Search.MaxResults < c.Search.TopK {
		return fmt.Errorf("search.maxResults (%d) must be >= search.topK (%d)", c.Search.MaxResults, c.Search.TopK)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Driver: CorpusDriverDir,
			Dir:    "data/documents",
			Table:  "documents",
		},
		Lexicon: LexiconConfig{
			StopwordsFile: "data/stopwords.txt",
		},
		Tokenizer: TokenizerConfig{
			Strategy: TokenizerWhitespace,
		},
		Indexer: IndexerConfig{
			Workers:           4,
			DocumentFrequency: DocFreqDistinct,
		},
		Search: SearchConfig{
			TopK:         10,
			MaxResults:   100,
			QueryTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vsm",
			User:            "vsm",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         []string{"localhost:9092"},
			AnalyticsTopic:  "vsm-query-events",
			EventBufferSize: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads VSM_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VSM_CORPUS_DRIVER"); v != "" {
		cfg.Corpus.Driver = v
	}
	if v := os.Getenv("VSM_CORPUS_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	if v := os.Getenv("VSM_CORPUS_TABLE"); v != "" {
		cfg.Corpus.Table = v
	}
	if v := os.Getenv("VSM_STOPWORDS_FILE"); v != "" {
		cfg.Lexicon.StopwordsFile = v
	}
	if v, ok := os.LookupEnv("VSM_PUNCTUATION_FILE"); ok {
		cfg.Lexicon.PunctuationFile = v
	}
	if v := os.Getenv("VSM_TOKENIZER"); v != "" {
		cfg.Tokenizer.Strategy = v
	}
	if v := os.Getenv("VSM_TOKENIZER_DICTIONARIES"); v != "" {
		cfg.Tokenizer.Dictionaries = v
	}
	if v := os.Getenv("VSM_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("VSM_DOCUMENT_FREQUENCY"); v != "" {
		cfg.Indexer.DocumentFrequency = v
	}
	if v := os.Getenv("VSM_SEARCH_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = n
		}
	}
	if v := os.Getenv("VSM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VSM_SERVER_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("VSM_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("VSM_SERVER_TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = strings.Split(v, ",")
	}
	if v := os.Getenv("VSM_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VSM_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("VSM_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VSM_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VSM_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VSM_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("VSM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VSM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VSM_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("VSM_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VSM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VSM_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VSM_DEBUG_DUMP_PATH"); v != "" {
		cfg.Debug.DumpPath = v
	}
}
