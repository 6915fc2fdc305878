package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"japanesedict/api"
	"japanesedict/config"
	"japanesedict/dictionary"
	"japanesedict/furigana"
	"japanesedict/ingest"
	"japanesedict/kanji"
	"japanesedict/logger"
	"japanesedict/telemetry"
	"japanesedict/tokenize"

	"github.com/c-bata/go-prompt"
	"github.com/gosuri/uiprogress"
	"github.com/urfave/cli/v2"
)

const version = "0.3.0"

func main() {
	app := &cli.App{
		Name:    "japanesedict",
		Usage:   "Japanese sentence analysis and dictionary service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "resolve and analyze a sentence, printing JSON",
				ArgsUsage: "<text>",
				Action:    analyzeAction,
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "import",
				Usage: "import JMdict or JMnedict into the configured store",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Value: "jmdict", Usage: "jmdict or jmnedict"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "XML file (defaults to the configured path)"},
					&cli.BoolFlag{Name: "clear", Usage: "remove all stored entries before importing"},
				},
				Action: importAction,
			},
			{
				Name:   "repl",
				Usage:  "interactive sentence resolution",
				Action: replAction,
			},
			{
				Name:      "kanji",
				Usage:     "look up a single kanji in Kanjidic2",
				ArgsUsage: "<literal>",
				Action:    kanjiAction,
			},
			{
				Name:      "tokens",
				Usage:     "compare kagome segmentation modes",
				ArgsUsage: "<text>",
				Action:    tokensAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logger.Logger().Error("command failed", "error", err)
		os.Exit(1)
	}
}

func analyzeAction(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return cli.Exit("usage: japanesedict analyze <text>", 2)
	}
	a, err := newApp(c.Context, config.Load(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	res, err := a.analyzer.Analyze(c.Context, text)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, config.Load())
}

// serve runs the HTTP API until ctx is done or the listener fails. The ingest
// consumer is always drained before it returns.
func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:  cfg.Telemetry,
		Version:  version,
		Endpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	a, err := newApp(ctx, cfg, appOptions{queueSize: 256})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	done := make(chan struct{})
	go func() {
		consumeSentences(a.queue, cfg.LogDir)
		close(done)
	}()
	defer func() {
		a.queue.Close()
		<-done
		if n := a.queue.Dropped(); n > 0 {
			a.log.Warn("sentences dropped from ingest queue", "count", n)
		}
		a.log.Info("lookup cache", "entries", a.cache.Len())
	}()

	mux := http.NewServeMux()
	api.New(a.analyzer, a.resolver, a.oracle, a.kanji, cfg.LookupLimit).Register(mux)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", cfg.ListenAddr, "store", cfg.Store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

// consumeSentences drains the ingest queue, dumping each sentence when dir is
// set. It returns once the queue is closed.
func consumeSentences(q *ingest.Queue, dir string) {
	log := logger.WithComponent("ingest")
	for s := range q.Sentences() {
		log.Debug("sentence ingested", "id", s.ID, "length", len(s.Text))
		if dir == "" {
			continue
		}
		if err := logger.LogJSON(dir, "sentence_"+s.ID, s); err != nil {
			log.Warn("failed to dump sentence", "id", s.ID, "error", err)
		}
	}
}

func importAction(c *cli.Context) error {
	cfg := config.Load()
	if cfg.Store == config.StoreMemory {
		return cli.Exit("import needs a persistent store, set JDICT_STORE=mongo or sqlite", 2)
	}
	a, err := newApp(c.Context, cfg, appOptions{skipImport: true})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	var (
		fn   importFunc
		path = c.String("file")
	)
	switch strings.ToLower(c.String("source")) {
	case "jmdict":
		fn = dictionary.ImportJMdictFile
		if path == "" {
			path = cfg.JMdictPath
		}
	case "jmnedict":
		fn = dictionary.ImportJMnedictFile
		if path == "" {
			path = cfg.JMnedictPath
		}
	default:
		return cli.Exit(fmt.Sprintf("unknown source %q", c.String("source")), 2)
	}
	if path == "" {
		return cli.Exit("no input file, pass --file", 2)
	}

	if c.Bool("clear") {
		cl, ok := a.store.(dictionary.Clearer)
		if !ok {
			return cli.Exit(fmt.Sprintf("store %s cannot be cleared", cfg.Store), 2)
		}
		if err := cl.Clear(c.Context); err != nil {
			return err
		}
		a.log.Info("store cleared", "store", cfg.Store)
	}

	var bar *uiprogress.Bar
	progress := func(done, total int) {
		if bar == nil {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		}
		_ = bar.Set(done)
	}
	n, err := fn(c.Context, path, a.store, a.aligner, progress)
	if bar != nil {
		uiprogress.Stop()
	}
	if err != nil {
		return err
	}
	total, err := a.store.Count(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d entries from %s (%d in store)\n", n, path, total)
	return nil
}

var replSuggestions = []prompt.Suggest{
	{Text: "quit", Description: "leave the prompt"},
	{Text: "exit", Description: "leave the prompt"},
}

func replCompleter(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(replSuggestions, d.GetWordBeforeCursor(), true)
}

func replAction(c *cli.Context) error {
	a, err := newApp(c.Context, config.Load(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	var history []string
	for {
		line := strings.TrimSpace(prompt.Input("> ", replCompleter,
			prompt.OptionTitle("japanesedict"),
			prompt.OptionHistory(history),
			prompt.OptionPrefixTextColor(prompt.Cyan),
		))
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		history = append(history, line)

		tokens, err := a.resolver.Resolve(c.Context, line)
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		var ruby []string
		for _, t := range tokens {
			ruby = append(ruby, furigana.Ruby(t.Furigana))
			fmt.Printf("  %-10s %-10s %s\n", t.Surface, t.Lemma, t.Category)
		}
		fmt.Println(strings.Join(ruby, " "))
	}
}

func kanjiAction(c *cli.Context) error {
	literal := c.Args().First()
	if literal == "" {
		return cli.Exit("usage: japanesedict kanji <literal>", 2)
	}
	d, err := kanji.LoadFile(config.Load().KanjidicPath)
	if err != nil {
		return err
	}
	ch, err := d.Lookup(literal)
	if err != nil {
		return err
	}
	return printJSON(ch)
}

func tokensAction(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	tok, err := tokenize.New()
	if err != nil {
		return err
	}
	modes, err := tok.TokenizeModes(c.Context, text)
	if err != nil {
		return err
	}
	return printJSON(modes)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
