package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/theimaginaryfoundation/review-digest/digest"
	"github.com/theimaginaryfoundation/review-digest/digest/cache"
	"github.com/theimaginaryfoundation/review-digest/digest/fileutils"
	"github.com/theimaginaryfoundation/review-digest/digest/provider"
	"github.com/theimaginaryfoundation/review-digest/digest/source"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
		os.Exit(2)
	}

	log := newLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	if err := run(ctx, cfg, &client, os.Stdout, log); err != nil {
		log.Error().Err(err).Msg("review-digest failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, client *openai.Client, stdout io.Writer, log zerolog.Logger) error {
	collector, closeCollector, err := openCollector(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCollector()

	hashCache, ttlCache, closeCaches, err := openCaches(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCaches()

	opts := cfg.Options()
	if cfg.ChunkPromptFile != "" {
		header, err := loadPromptHeaderFromFile(cfg.ChunkPromptFile)
		if err != nil {
			return err
		}
		opts.ChunkInstructions = digest.ComposeChunkInstructions(header)
	}

	deps, err := buildCollaborators(cfg, client, log)
	if err != nil {
		return err
	}
	deps.Collector = collector
	deps.HashCache = hashCache
	deps.TTLCache = ttlCache
	deps.Logger = &log

	engine, err := digest.New(deps, opts)
	if err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		defer func() {
			if werr := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); werr != nil {
				log.Warn().Err(werr).Str("path", cfg.MetricsFile).Msg("write metrics file")
			}
		}()
	}

	results, err := summarizeAll(ctx, engine, cfg.SubjectIDs(), log)
	if err != nil {
		return err
	}

	var out any = results
	if ids := cfg.SubjectIDs(); len(ids) == 1 {
		out = results[ids[0]]
	}
	if cfg.OutPath != "" {
		if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, out, cfg.Pretty); err != nil {
			return err
		}
		log.Info().Str("path", cfg.OutPath).Int("subjects", len(results)).Msg("wrote summaries")
		return nil
	}
	return fileutils.WriteJSON(stdout, out, cfg.Pretty)
}

func summarizeAll(ctx context.Context, engine *digest.Engine, subjects []string, log zerolog.Logger) (map[string]digest.Summary, error) {
	results := make(map[string]digest.Summary, len(subjects))
	for _, id := range subjects {
		start := time.Now()
		s, err := engine.Summarize(ctx, id)
		if err != nil {
			return nil, err
		}
		results[id] = s
		log.Info().
			Str("subject_id", id).
			Int("pros", len(s.Pros)).
			Int("cons", len(s.Cons)).
			Int("quotes", len(s.Quotes)).
			Int("total", s.Stats.Total).
			Dur("elapsed", time.Since(start)).
			Msg("summarized")
	}
	return results, nil
}

func openCollector(ctx context.Context, cfg Config) (digest.Collector, func(), error) {
	if cfg.DBPath != "" {
		c, err := source.OpenSQLite(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}
	c, err := source.LoadFile(cfg.CorpusPath)
	if err != nil {
		return nil, nil, err
	}
	return c, func() {}, nil
}

// openCaches returns one store per discipline. With Redis both share a client under distinct
// key prefixes.
func openCaches(ctx context.Context, cfg Config) (hash, ttl digest.Store, closeFn func(), err error) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), cache.NewMemoryStore(), func() {}, nil
	}
	hs, err := cache.NewRedisStoreWithURL(cfg.RedisURL, cache.DefaultKeyPrefix+"hash:")
	if err != nil {
		return nil, nil, nil, err
	}
	if err := hs.Ping(ctx); err != nil {
		_ = hs.Close()
		return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	ts := hs.WithPrefix(cache.DefaultKeyPrefix + "ttl:")
	return hs, ts, func() { _ = hs.Close() }, nil
}

// buildCollaborators wires the OpenAI adapters behind the rate limiter, circuit breaker and
// embedding memo.
func buildCollaborators(cfg Config, client *openai.Client, log zerolog.Logger) (digest.Deps, error) {
	limiter := provider.NewLimiter(cfg.RequestsPerSec, max(1, cfg.Engine.Concurrency))

	var completer digest.Completer = newCompleter(cfg, client)
	completer = provider.NewBreakerCompleter(completer, provider.DefaultBreakerConfig(), log)
	completer = provider.NewRateLimitedCompleter(completer, limiter)

	var embedder digest.Embedder = provider.NewRateLimitedEmbedder(provider.NewOpenAIEmbedder(client, cfg.EmbeddingModel), limiter)
	if cfg.EmbedCacheSize > 0 {
		cached, err := provider.NewCachedEmbedder(embedder, cfg.EmbedCacheSize)
		if err != nil {
			return digest.Deps{}, err
		}
		embedder = cached
	}

	var classifier digest.SentimentClassifier
	if strings.TrimSpace(cfg.SentimentURL) != "" {
		classifier = provider.NewRateLimitedClassifier(provider.NewHTTPClassifier(cfg.SentimentURL, "", 0), limiter)
	} else {
		classifier = provider.NewCompleterClassifier(completer)
	}

	return digest.Deps{
		Embedder:   embedder,
		Classifier: classifier,
		Completer:  completer,
	}, nil
}

func newCompleter(cfg Config, client *openai.Client) *provider.OpenAICompleter {
	c := provider.NewOpenAICompleter(client, cfg.Model)
	c.Flex = cfg.Flex
	return c
}

func newLogger(cfg LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "review-digest").Logger()
}
