// Package resolve re-segments tokenizer output into dictionary-aligned
// tokens: compound nouns confirmed by the dictionary and verb or adjective
// conjugation chains become single units.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"japanesedict/furigana"
	"japanesedict/kana"
	"japanesedict/logger"
	"japanesedict/model"
	"japanesedict/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

// maxLookahead is how many extra offsets are tried after the anchor alone
// is rejected.
const maxLookahead = 1

var tracer = telemetry.Tracer("japanesedict/resolve")

// Tokenizer segments text into raw tokens covering the whole input.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]model.RawToken, error)
}

// Oracle answers exact headword queries.
type Oracle interface {
	LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error)
}

// Aligner aligns a kana reading onto a spelling.
type Aligner interface {
	Align(spelling, reading string) [][]furigana.Segment
}

// Resolver turns text into resolved tokens. It holds no per-call state and
// is safe for concurrent use when its collaborators are.
type Resolver struct {
	tok     Tokenizer
	oracle  Oracle
	aligner Aligner
	limit   int
	log     *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookupLimit caps the entries fetched per oracle query.
func WithLookupLimit(n int) Option {
	return func(r *Resolver) { r.limit = n }
}

// WithLogger replaces the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// New creates a Resolver. A nil oracle never matches; a nil aligner aligns
// without kanji readings.
func New(tok Tokenizer, oracle Oracle, al Aligner, opts ...Option) *Resolver {
	r := &Resolver{
		tok:     tok,
		oracle:  oracle,
		aligner: al,
		limit:   1,
		log:     logger.WithComponent("resolve"),
	}
	if r.aligner == nil {
		r.aligner = furigana.NewAligner(nil)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve tokenizes text and returns its resolved tokens with furigana,
// blank tokens removed. Blank input yields an empty slice.
func (r *Resolver) Resolve(ctx context.Context, text string) (_ []model.ResolvedToken, err error) {
	ctx, span := tracer.Start(ctx, "resolve.Resolve")
	defer func() { telemetry.End(span, err) }()

	raw, err := r.tok.Tokenize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	tokens := r.Scan(ctx, raw)
	r.Finalize(tokens)
	out := Assemble(tokens)
	span.SetAttributes(
		attribute.Int("tokens.raw", len(raw)),
		attribute.Int("tokens.resolved", len(out)),
	)
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Scan groups raw tokens into resolved tokens from left to right. Every raw
// token is consumed exactly once, whitespace included.
func (r *Resolver) Scan(ctx context.Context, raw []model.RawToken) []model.ResolvedToken {
	out := make([]model.ResolvedToken, 0, len(raw))
	for i := 0; i < len(raw); {
		tok, consumed := r.resolveSpan(ctx, raw, i)
		out = append(out, tok)
		i += max(consumed, 1)
	}
	return out
}

// resolveSpan grows the span anchored at raw[i] and returns its token and the
// number of raw tokens consumed.
func (r *Resolver) resolveSpan(ctx context.Context, raw []model.RawToken, i int) (model.ResolvedToken, int) {
	anchor := raw[i]
	class := ClassifyAnchor(anchor)
	state := Unpromoted
	last := -1
	var hits []model.Entry

	var text strings.Builder
	for j := 0; i+j < len(raw); j++ {
		cand := raw[i+j]
		text.WriteString(cand.Surface)
		spanText := text.String()

		var found []model.Entry
		if queriesOracle(class, state) {
			found = r.lookup(ctx, spanText)
		}
		d := Join(JoinRequest{
			Class:     class,
			State:     state,
			Anchor:    anchor,
			Candidate: cand,
			Offset:    j,
			SpanText:  spanText,
			Hit:       len(found) > 0,
		})
		if !d.Accept {
			if last < 0 && j < maxLookahead {
				continue
			}
			break
		}
		last, hits = j, found
		if d.Promote {
			state = Promoted
		}
		if d.Stop {
			break
		}
	}

	if last < 0 {
		return model.ResolvedToken{
			Surface:       anchor.Surface,
			Lemma:         anchor.Lemma,
			Category:      Classify(anchor.Surface, anchor.POS, anchor.Detail(1)),
			Start:         anchor.Start,
			End:           anchor.End,
			Tokens:        1,
			Pronunciation: pronunciation(raw[i : i+1]),
		}, 1
	}

	span := raw[i : i+last+1]
	var surface strings.Builder
	for _, t := range span {
		surface.WriteString(t.Surface)
	}
	tok := model.ResolvedToken{
		Surface:       surface.String(),
		Category:      Classify(surface.String(), anchor.POS, anchor.Detail(1)),
		Start:         anchor.Start,
		End:           span[len(span)-1].End,
		Tokens:        len(span),
		Pronunciation: pronunciation(span),
	}
	r.setLemma(&tok, class, state, anchor, hits)
	return tok, len(span)
}

// queriesOracle reports whether span growth is gated by dictionary hits.
func queriesOracle(class AnchorClass, state PromotionState) bool {
	return class == AnchorNoun || (class == AnchorSuruNoun && state == Unpromoted)
}

// setLemma prefers a matching headword, then the suru verb, then the
// anchor's dictionary form for inflection chains, then the surface.
func (r *Resolver) setLemma(tok *model.ResolvedToken, class AnchorClass, state PromotionState, anchor model.RawToken, hits []model.Entry) {
	for _, e := range hits {
		h, ok := e.Match(tok.Surface)
		if !ok {
			continue
		}
		tok.Lemma = e.Lemma()
		tok.Headword = true
		if h.Spelling == tok.Surface {
			tok.Furigana = h.Furigana
		} else {
			tok.Furigana = furigana.Plain(tok.Surface)
		}
		return
	}
	switch {
	case class == AnchorSuruNoun && state == Promoted:
		tok.Lemma = anchor.Surface + "する"
	case class.conjugates():
		tok.Lemma = anchor.Lemma
	case tok.Tokens > 1:
		tok.Lemma = tok.Surface
	default:
		tok.Lemma = anchor.Lemma
	}
}

func (r *Resolver) lookup(ctx context.Context, span string) []model.Entry {
	if r.oracle == nil {
		return nil
	}
	entries, err := r.oracle.LookupExact(ctx, []string{span}, r.limit)
	if err != nil {
		r.log.Debug("dictionary lookup failed", "span", span, "error", err)
		return nil
	}
	return entries
}

// pronunciation concatenates the katakana readings of the tokens. Kana and
// symbol tokens without a reading stand for themselves; an unread kanji token
// leaves the whole span without pronunciation.
func pronunciation(tokens []model.RawToken) string {
	var b strings.Builder
	for _, t := range tokens {
		switch {
		case t.Reading != "":
			b.WriteString(t.Reading)
		case !kana.HasKanji(t.Surface):
			b.WriteString(t.Surface)
		default:
			return ""
		}
	}
	return b.String()
}
