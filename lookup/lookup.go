package lookup

import (
	"context"

	"japanesedict/logger"
	"japanesedict/model"
)

type LexEntry = model.LexEntry

// Oracle answers exact headword queries.
type Oracle interface {
	LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error)
}

// Lookup attaches dictionary readings and definitions to each token, querying
// by lemma and then surface. Tokens without a match keep empty readings and
// definitions, as do tokens whose query fails. Lookup only returns an error
// when ctx is done.
func Lookup(ctx context.Context, o Oracle, tokens []model.ResolvedToken, limit int) ([]LexEntry, error) {
	if tokens == nil {
		return nil, nil
	}
	log := logger.WithComponent("lookup")
	out := make([]LexEntry, 0, len(tokens))
	for _, t := range tokens {
		e := LexEntry{Token: t, Readings: []string{}, Definitions: []string{}}
		if o != nil && lookupable(t) {
			entries, err := o.LookupExact(ctx, keys(t), limit)
			if err != nil {
				log.Warn("dictionary lookup failed", "surface", t.Surface, "error", err)
			}
			fill(&e, entries)
		}
		out = append(out, e)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupable skips punctuation and other unclassified single morphemes.
func lookupable(t model.ResolvedToken) bool {
	return t.Category != model.CategoryUnclassified || t.Tokens > 1
}

func keys(t model.ResolvedToken) []string {
	if t.Lemma == "" || t.Lemma == t.Surface {
		return []string{t.Surface}
	}
	return []string{t.Lemma, t.Surface}
}

func fill(e *LexEntry, entries []model.Entry) {
	seen := make(map[string]bool)
	for i, entry := range entries {
		if i == 0 {
			e.Source = entry.Source
		}
		for _, h := range entry.Headings {
			if h.Reading != "" && !seen[h.Reading] {
				seen[h.Reading] = true
				e.Readings = append(e.Readings, h.Reading)
			}
		}
		e.Definitions = append(e.Definitions, entry.Glosses...)
	}
}
