package analyze

import (
	"context"
	"fmt"
	"log/slog"

	"japanesedict/ingest"
	"japanesedict/logger"
	"japanesedict/lookup"
	"japanesedict/model"
	"japanesedict/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/unicode/norm"
)

type LexEntry = model.LexEntry

var tracer = telemetry.Tracer("japanesedict/analyze")

// Analysis represents the result of analyzing a sentence plus lexicon entries.
type Analysis struct {
	SentenceID    string                `json:"sentence_id"`
	Text          string                `json:"text"`
	TokenCount    int                   `json:"token_count"`
	Definitions   int                   `json:"definitions_found"`
	Tokens        []model.ResolvedToken `json:"tokens"`
	Entries       []LexEntry            `json:"entries"`
	Clauses       []Clause              `json:"clauses"`
	GrammarIssues []string              `json:"grammar_issues,omitempty"`
}

// Resolver turns text into resolved tokens.
type Resolver interface {
	Resolve(ctx context.Context, text string) ([]model.ResolvedToken, error)
}

// Analyzer runs the sentence pipeline: ingest, normalize, resolve, look up,
// then split into clauses.
type Analyzer struct {
	resolver Resolver
	oracle   lookup.Oracle
	queue    *ingest.Queue
	limit    int
	dumpDir  string
	log      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithQueue publishes every ingested sentence to q.
func WithQueue(q *ingest.Queue) Option {
	return func(a *Analyzer) { a.queue = q }
}

// WithLookupLimit caps the dictionary entries attached per token.
func WithLookupLimit(n int) Option {
	return func(a *Analyzer) { a.limit = n }
}

// WithDumpDir writes each analysis as JSON into dir.
func WithDumpDir(dir string) Option {
	return func(a *Analyzer) { a.dumpDir = dir }
}

// New creates an Analyzer. A nil oracle skips dictionary lookups.
func New(r Resolver, o lookup.Oracle, opts ...Option) *Analyzer {
	a := &Analyzer{
		resolver: r,
		oracle:   o,
		limit:    10,
		log:      logger.WithComponent("analyze"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze analyzes one sentence. Blank input returns ingest.ErrEmptySentence.
func (a *Analyzer) Analyze(ctx context.Context, text string) (_ Analysis, err error) {
	ctx, span := tracer.Start(ctx, "analyze.Analyze")
	defer func() { telemetry.End(span, err) }()

	sentence, err := a.queue.Ingest(norm.NFKC.String(text))
	if err != nil {
		return Analysis{}, err
	}
	tokens, err := a.resolver.Resolve(ctx, sentence.Text)
	if err != nil {
		return Analysis{}, fmt.Errorf("resolve sentence %s: %w", sentence.ID, err)
	}
	entries, err := lookup.Lookup(ctx, a.oracle, tokens, a.limit)
	if err != nil {
		return Analysis{}, fmt.Errorf("lookup sentence %s: %w", sentence.ID, err)
	}

	found := 0
	for _, e := range entries {
		if len(e.Definitions) > 0 {
			found++
		}
	}
	clauses := Clauses(entries)
	res := Analysis{
		SentenceID:    sentence.ID,
		Text:          sentence.Text,
		TokenCount:    len(tokens),
		Definitions:   found,
		Tokens:        tokens,
		Entries:       entries,
		Clauses:       clauses,
		GrammarIssues: grammarIssues(entries, clauses),
	}
	span.SetAttributes(
		attribute.String("sentence.id", sentence.ID),
		attribute.Int("tokens", len(tokens)),
		attribute.Int("clauses", len(clauses)),
	)
	a.log.Debug("sentence analyzed", "id", sentence.ID, "tokens", len(tokens), "definitions", found)

	if a.dumpDir != "" {
		if err := logger.LogJSON(a.dumpDir, "analysis_"+sentence.ID, res); err != nil {
			a.log.Warn("failed to dump analysis", "id", sentence.ID, "error", err)
		}
	}
	return res, nil
}
