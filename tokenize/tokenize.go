package tokenize

import (
	"context"
	"fmt"
	"strings"

	"japanesedict/model"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// RawToken is a morpheme produced by the tokenizer.
type RawToken = model.RawToken

// Tokenizer wraps kagome with the IPA dictionary.
type Tokenizer struct {
	kg   *tokenizer.Tokenizer
	mode tokenizer.TokenizeMode
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithMode selects the kagome segmentation mode (default Normal).
func WithMode(m tokenizer.TokenizeMode) Option {
	return func(t *Tokenizer) { t.mode = m }
}

// New builds a kagome tokenizer with the ipa dict, omitting BOS/EOS.
func New(opts ...Option) (*Tokenizer, error) {
	kg, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome: %w", err)
	}
	t := &Tokenizer{kg: kg, mode: tokenizer.Normal}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// ParseMode maps "normal", "search" or "extended" to a kagome mode.
func ParseMode(s string) (tokenizer.TokenizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return tokenizer.Normal, nil
	case "search":
		return tokenizer.Search, nil
	case "extended":
		return tokenizer.Extended, nil
	}
	return tokenizer.Normal, fmt.Errorf("unknown tokenize mode %q", s)
}

// Tokenize segments text into raw tokens covering the whole input,
// whitespace included. Blank input yields an empty slice.
func (t *Tokenizer) Tokenize(ctx context.Context, text string) ([]RawToken, error) {
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Convert(t.kg.Analyze(text, t.mode)), nil
}

// TokenizeModes runs Normal, Search and Extended segmentation and returns the
// tokens per mode name. Useful to compare segmentations.
func (t *Tokenizer) TokenizeModes(ctx context.Context, text string) (map[string][]RawToken, error) {
	res := make(map[string][]RawToken)
	if text == "" {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res["normal"] = Convert(t.kg.Analyze(text, tokenizer.Normal))
	res["search"] = Convert(t.kg.Analyze(text, tokenizer.Search))
	res["extended"] = Convert(t.kg.Analyze(text, tokenizer.Extended))
	return res, nil
}

// Convert maps kagome tokens to raw tokens.
func Convert(ktoks []tokenizer.Token) []RawToken {
	out := make([]RawToken, 0, len(ktoks))
	for i, kt := range ktoks {
		pos := kt.POS()
		rt := RawToken{
			Surface:  kt.Surface,
			Position: i,
			Start:    kt.Start,
			End:      kt.End,
		}
		if len(pos) > 0 {
			rt.POS = pos[0]
		}
		for j := 1; j < len(pos) && j <= len(rt.POSDetail); j++ {
			rt.POSDetail[j-1] = pos[j]
		}
		rt.ConjugationType = feature(kt.InflectionalType())
		rt.ConjugationForm = feature(kt.InflectionalForm())
		rt.Lemma = feature(kt.BaseForm())
		if rt.Lemma == "" {
			rt.Lemma = kt.Surface
		}
		rt.Reading = feature(kt.Reading())
		rt.Pronunciation = feature(kt.Pronunciation())
		out = append(out, rt)
	}
	return out
}

func feature(v string, ok bool) string {
	if !ok || v == "*" {
		return ""
	}
	return v
}
