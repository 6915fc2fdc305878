package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"japanesedict/analyze"
	"japanesedict/config"
	"japanesedict/dictionary"
	"japanesedict/furigana"
	"japanesedict/ingest"
	"japanesedict/kanji"
	"japanesedict/logger"
	"japanesedict/resolve"
	"japanesedict/tokenize"
)

// app holds the wired pipeline shared by all commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	kanji    *kanji.Dict
	aligner  *furigana.Aligner
	store    dictionary.Store
	cache    *dictionary.LRUCache
	oracle   dictionary.Oracle
	tok      *tokenize.Tokenizer
	resolver *resolve.Resolver
	analyzer *analyze.Analyzer
	queue    *ingest.Queue

	closers []func(context.Context) error
}

type appOptions struct {
	queueSize int
	// skipImport leaves the memory index empty; used by the import command.
	skipImport bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (_ *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: logger.WithComponent("main")}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if cfg.LogDir != "" {
		if err := logger.InitLogs(cfg.LogDir); err != nil {
			return nil, fmt.Errorf("init log dir %s: %w", cfg.LogDir, err)
		}
	}

	a.kanji = loadKanji(cfg.KanjidicPath, a.log)
	a.aligner = furigana.NewAligner(a.kanji)

	if a.store, err = a.openStore(ctx, opts.skipImport); err != nil {
		return nil, err
	}
	if a.cache, err = a.wrapCaches(ctx, a.store); err != nil {
		return nil, err
	}
	a.oracle = a.cache

	mode, err := tokenize.ParseMode(cfg.TokenizeMode)
	if err != nil {
		return nil, err
	}
	if a.tok, err = tokenize.New(tokenize.WithMode(mode)); err != nil {
		return nil, err
	}

	a.resolver = resolve.New(a.tok, a.oracle, a.aligner)
	analyzerOpts := []analyze.Option{
		analyze.WithLookupLimit(cfg.LookupLimit),
		analyze.WithDumpDir(cfg.LogDir),
	}
	if opts.queueSize > 0 {
		a.queue = ingest.NewQueue(opts.queueSize)
		analyzerOpts = append(analyzerOpts, analyze.WithQueue(a.queue))
	}
	a.analyzer = analyze.New(a.resolver, a.oracle, analyzerOpts...)
	return a, nil
}

func loadKanji(path string, log *slog.Logger) *kanji.Dict {
	if path == "" {
		return kanji.New()
	}
	d, err := kanji.LoadFile(path)
	if err != nil {
		log.Warn("kanjidic2 unavailable, furigana falls back to whole-word alignment", "path", path, "error", err)
		return kanji.New()
	}
	return d
}

func (a *app) openStore(ctx context.Context, skipImport bool) (dictionary.Store, error) {
	switch a.cfg.Store {
	case config.StoreMongo:
		s, err := dictionary.NewMongoStore(ctx, &dictionary.MongoConfig{
			URI:        a.cfg.MongoURI,
			Database:   a.cfg.MongoDB,
			Collection: dictionary.DefaultMongoConfig().Collection,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	case config.StoreSQLite:
		s, err := dictionary.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, nil
	}

	idx := dictionary.NewMemoryIndex()
	if skipImport {
		return idx, nil
	}
	if err := importOptional(ctx, a.cfg.JMdictPath, idx, a.aligner, dictionary.ImportJMdictFile, a.log); err != nil {
		return nil, err
	}
	if err := importOptional(ctx, a.cfg.JMnedictPath, idx, a.aligner, dictionary.ImportJMnedictFile, a.log); err != nil {
		return nil, err
	}
	return idx, nil
}

type importFunc func(ctx context.Context, path string, w dictionary.Writer, al *furigana.Aligner, progress dictionary.Progress) (int, error)

// importOptional loads path into w. A missing file is logged and skipped.
func importOptional(ctx context.Context, path string, w dictionary.Writer, al *furigana.Aligner, fn importFunc, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Warn("dictionary file not found, skipping", "path", path)
		return nil
	}
	if _, err := fn(ctx, path, w, al, nil); err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	return nil
}

// wrapCaches puts the optional Redis cache and the in-process LRU in front of
// store. An unreachable Redis is only logged; lookups fall through to store.
func (a *app) wrapCaches(ctx context.Context, store dictionary.Store) (*dictionary.LRUCache, error) {
	var next dictionary.Oracle = store
	if a.cfg.RedisAddr != "" {
		rc := dictionary.NewRedisCache(next, &dictionary.RedisConfig{
			Addr:   a.cfg.RedisAddr,
			Prefix: dictionary.DefaultRedisConfig().Prefix,
			TTL:    a.cfg.RedisTTL,
		})
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			a.log.Warn("redis unreachable, lookups bypass the shared cache", "addr", a.cfg.RedisAddr, "error", err)
		}
		cancel()
		next = rc
	}
	return dictionary.NewLRUCache(next, a.cfg.CacheSize)
}

// Close releases stores and caches in reverse order of creation.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
