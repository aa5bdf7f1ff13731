package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/theimaginaryfoundation/review-digest/digest"
)

// ConfigPathEnvVar points at an optional YAML config file.
const ConfigPathEnvVar = "DIGEST_CONFIG"

const envPrefix = "DIGEST_"

type Config struct {
	CorpusPath string `koanf:"corpus"`
	DBPath     string `koanf:"db"`
	Subjects   string `koanf:"subject"`
	Strategy   string `koanf:"strategy"`
	OutPath    string `koanf:"out"`
	Pretty     bool   `koanf:"pretty"`

	RedisURL    string `koanf:"redis_url"`
	MetricsFile string `koanf:"metrics_file"`

	APIKey          string  `koanf:"api_key"`
	Model           string  `koanf:"model"`
	Flex            bool    `koanf:"flex"`
	EmbeddingModel  string  `koanf:"embedding_model"`
	SentimentURL    string  `koanf:"sentiment_url"`
	ChunkPromptFile string  `koanf:"chunk_prompt_file"`
	RequestsPerSec  float64 `koanf:"rps"`
	EmbedCacheSize  int     `koanf:"embed_cache_size"`

	Engine EngineConfig `koanf:"engine"`
	Log    LogConfig    `koanf:"log"`
}

type EngineConfig struct {
	K           int           `koanf:"k"`
	Lambda      float64       `koanf:"lambda"`
	ProsMax     int           `koanf:"pros_max"`
	ConsMax     int           `koanf:"cons_max"`
	TagBoost    float64       `koanf:"tag_boost"`
	SampleCap   int           `koanf:"sample_cap"`
	ChunkChars  int           `koanf:"chunk_chars"`
	ReduceMax   int           `koanf:"reduce_max"`
	QuoteMax    int           `koanf:"quote_max"`
	TTL         time.Duration `koanf:"ttl"`
	Concurrency int           `koanf:"concurrency"`
	BatchSize   int           `koanf:"batch_size"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func (c Config) Validate() error {
	if c.CorpusPath == "" && c.DBPath == "" {
		return errors.New("missing -corpus or -db")
	}
	if c.CorpusPath != "" && c.DBPath != "" {
		return errors.New("-corpus and -db are mutually exclusive")
	}
	if len(c.SubjectIDs()) == 0 {
		return errors.New("missing -subject")
	}
	if _, err := digest.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.RequestsPerSec < 0 {
		return errors.New("rps must be >= 0")
	}
	if c.EmbedCacheSize < 0 {
		return errors.New("embed-cache-size must be >= 0")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Log.Format)
	}
	return c.Options().Validate()
}

// SubjectIDs splits the comma-separated subject list.
func (c Config) SubjectIDs() []string {
	var out []string
	for _, s := range strings.Split(c.Subjects, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Options maps the engine section onto digest.Options.
func (c Config) Options() digest.Options {
	o := digest.DefaultOptions()
	o.Strategy = digest.Strategy(c.Strategy)
	o.K = c.Engine.K
	o.Lambda = c.Engine.Lambda
	o.ProsMax = c.Engine.ProsMax
	o.ConsMax = c.Engine.ConsMax
	o.TagBoost = c.Engine.TagBoost
	o.SentimentSampleCap = c.Engine.SampleCap
	o.ChunkChars = c.Engine.ChunkChars
	o.ReduceMax = c.Engine.ReduceMax
	o.QuoteMax = c.Engine.QuoteMax
	o.TTL = c.Engine.TTL
	o.Concurrency = c.Engine.Concurrency
	o.BatchSize = c.Engine.BatchSize
	return o
}

func defaultConfig() Config {
	return Config{
		Strategy:       string(digest.StrategyExtractive),
		Model:          "gpt-5-mini",
		Flex:           true,
		EmbeddingModel: "text-embedding-3-small",
		EmbedCacheSize: 4096,
		Engine: EngineConfig{
			K:           digest.DefaultK,
			Lambda:      digest.DefaultLambda,
			ProsMax:     digest.DefaultProsMax,
			ConsMax:     digest.DefaultConsMax,
			TagBoost:    digest.DefaultTagBoost,
			SampleCap:   digest.DefaultSentimentSampleCap,
			ChunkChars:  digest.DefaultChunkChars,
			ReduceMax:   digest.DefaultReduceMax,
			QuoteMax:    digest.DefaultQuoteMax,
			TTL:         digest.DefaultTTL,
			Concurrency: digest.DefaultConcurrency,
			BatchSize:   digest.DefaultBatchSize,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"corpus":            "corpus",
	"db":                "db",
	"subject":           "subject",
	"strategy":          "strategy",
	"out":               "out",
	"pretty":            "pretty",
	"redis-url":         "redis_url",
	"metrics-file":      "metrics_file",
	"api-key":           "api_key",
	"model":             "model",
	"flex":              "flex",
	"embedding-model":   "embedding_model",
	"sentiment-url":     "sentiment_url",
	"chunk-prompt-file": "chunk_prompt_file",
	"rps":               "rps",
	"embed-cache-size":  "embed_cache_size",
	"k":                 "engine.k",
	"lambda":            "engine.lambda",
	"pros-max":          "engine.pros_max",
	"cons-max":          "engine.cons_max",
	"tag-boost":         "engine.tag_boost",
	"sample-cap":        "engine.sample_cap",
	"chunk-chars":       "engine.chunk_chars",
	"reduce-max":        "engine.reduce_max",
	"quote-max":         "engine.quote_max",
	"ttl":               "engine.ttl",
	"concurrency":       "engine.concurrency",
	"batch-size":        "engine.batch_size",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

// parseFlags layers defaults, the optional YAML file, DIGEST_* environment variables and finally
// the flags that were set explicitly.
func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	d := defaultConfig()
	fs.SetOutput(os.Stderr)

	// Bound values are only read for flags that were set; defaults are shown in -help.
	var configPath string
	fs.StringVar(&configPath, "config", os.Getenv(ConfigPathEnvVar), "Optional YAML config file (env "+ConfigPathEnvVar+")")
	fs.String("corpus", d.CorpusPath, "Path to a JSON corpus file: {\"subjects\": {\"<id>\": [items]}}")
	fs.String("db", d.DBPath, "Path to a SQLite corpus with ratings and posts tables")
	fs.String("subject", d.Subjects, "Subject id to summarize (comma-separated for several)")
	fs.String("strategy", d.Strategy, "Summarization strategy: extractive or generative")
	fs.String("out", d.OutPath, "Optional output file (default: stdout)")
	fs.Bool("pretty", d.Pretty, "Pretty-print the summary JSON")
	fs.String("redis-url", d.RedisURL, "Optional redis:// URL for the summary caches (default: in-process)")
	fs.String("metrics-file", d.MetricsFile, "Optional path to write Prometheus metrics in text format at exit")
	fs.String("api-key", d.APIKey, "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.String("model", d.Model, "OpenAI model for the generative path (e.g. gpt-5-mini)")
	fs.Bool("flex", d.Flex, "Send generative requests on the flex service tier")
	fs.String("embedding-model", d.EmbeddingModel, "OpenAI embedding model for the extractive path")
	fs.String("sentiment-url", d.SentimentURL, "Batch sentiment service URL (default: classify with -model)")
	fs.String("chunk-prompt-file", d.ChunkPromptFile, "Optional file with a custom chunk prompt header (prepended before the required SECURITY+schema tail)")
	fs.Float64("rps", d.RequestsPerSec, "Max collaborator requests per second (0 = unlimited)")
	fs.Int("embed-cache-size", d.EmbedCacheSize, "Embedding LRU size (0 disables)")
	fs.Int("k", d.Engine.K, "Max quotes selected by the extractive path")
	fs.Float64("lambda", d.Engine.Lambda, "MMR relevance/novelty trade-off in [0,1]")
	fs.Int("pros-max", d.Engine.ProsMax, "Max pros (extractive)")
	fs.Int("cons-max", d.Engine.ConsMax, "Max cons (extractive)")
	fs.Float64("tag-boost", d.Engine.TagBoost, "Weight boost for units mentioning a rating tag")
	fs.Int("sample-cap", d.Engine.SampleCap, "Max units classified for the sentiment breakdown")
	fs.Int("chunk-chars", d.Engine.ChunkChars, "Character budget per generative chunk")
	fs.Int("reduce-max", d.Engine.ReduceMax, "Max pros and cons after the generative reduce")
	fs.Int("quote-max", d.Engine.QuoteMax, "Max quotes after the generative reduce")
	fs.Duration("ttl", d.Engine.TTL, "Generative summary cache TTL")
	fs.Int("concurrency", d.Engine.Concurrency, "Max concurrent collaborator calls per summary")
	fs.Int("batch-size", d.Engine.BatchSize, "Texts per embedding or sentiment call")
	fs.String("log-level", d.Log.Level, "Log level: trace, debug, info, warn, error")
	fs.String("log-format", d.Log.Format, "Log format: json or console")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	overrides := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})

	cfg, err := loadConfig(configPath, overrides)
	if err != nil {
		return Config{}, err
	}
	if cfg.CorpusPath != "" {
		cfg.CorpusPath = filepath.Clean(cfg.CorpusPath)
	}
	if cfg.DBPath != "" {
		cfg.DBPath = filepath.Clean(cfg.DBPath)
	}
	if cfg.OutPath != "" {
		cfg.OutPath = filepath.Clean(cfg.OutPath)
	}
	if cfg.ChunkPromptFile != "" {
		cfg.ChunkPromptFile = filepath.Clean(cfg.ChunkPromptFile)
	}
	return cfg, nil
}

func loadConfig(configPath string, overrides map[string]string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return Config{}, fmt.Errorf("apply flag %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps DIGEST_* variables onto config keys:
//   - DIGEST_REDIS_URL -> redis_url
//   - DIGEST_ENGINE_K -> engine.k
//   - DIGEST_LOG_LEVEL -> log.level
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range []string{"engine", "log"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}
