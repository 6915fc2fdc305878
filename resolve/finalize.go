package resolve

import (
	"strings"

	"japanesedict/furigana"
	"japanesedict/kana"
	"japanesedict/model"
)

// Finalize fills in missing furigana from the accumulated pronunciation and
// clears the pronunciation of every token.
func (r *Resolver) Finalize(tokens []model.ResolvedToken) {
	for i := range tokens {
		t := &tokens[i]
		if t.Furigana == "" {
			t.Furigana = r.furigana(t.Surface, t.Pronunciation)
		}
		t.Pronunciation = ""
	}
}

func (r *Resolver) furigana(surface, pron string) string {
	if pron == "" {
		return furigana.Plain(surface)
	}
	reading := kana.ToHiragana(pron)
	candidates := r.aligner.Align(surface, reading)
	if len(candidates) == 0 {
		return furigana.Encode([]furigana.Segment{{Spelling: surface, Reading: reading}})
	}
	return furigana.Encode(candidates[0])
}

// Assemble drops tokens whose surface is blank. Order is preserved.
func Assemble(tokens []model.ResolvedToken) []model.ResolvedToken {
	out := make([]model.ResolvedToken, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t.Surface) == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}
