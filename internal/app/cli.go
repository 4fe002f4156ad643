package app

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/vsm-search/pkg/config"
)

// RegisterFlags registers the flags shared by every command.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.StringP("corpus", "d", "", "Corpus directory (overrides corpus.dir)")
	flags.StringP("stopwords", "s", "", "Stopword file (overrides lexicon.stopwordsFile)")
	flags.String("tokenizer", "", "Tokenizer strategy: whitespace, unicode or segmenter")
	flags.String("df-mode", "", "Document frequency mode: distinct or legacy")
	flags.IntP("top-k", "k", 0, "Number of results per query")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
}

// LoadSettings loads the config file named by --config and applies the
// remaining flags on top of it. Flags win over environment variables.
func LoadSettings(flags *pflag.FlagSet) (*config.Config, error) {
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v, _ := flags.GetString("corpus"); v != "" {
		cfg.Corpus.Driver = config.CorpusDriverDir
		cfg.Corpus.Dir = v
	}
	if v, _ := flags.GetString("stopwords"); v != "" {
		cfg.Lexicon.StopwordsFile = v
	}
	if v, _ := flags.GetString("tokenizer"); v != "" {
		cfg.Tokenizer.Strategy = v
	}
	if v, _ := flags.GetString("df-mode"); v != "" {
		cfg.Indexer.DocumentFrequency = v
	}
	if v, _ := flags.GetInt("top-k"); v > 0 {
		cfg.Search.TopK = v
		if cfg.Search.MaxResults < v {
			cfg.Search.MaxResults = v
		}
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
