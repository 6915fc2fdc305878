package resolve

import "japanesedict/model"

// IPA dictionary part-of-speech tags used by the resolver.
const (
	posNoun        = "名詞"
	posVerb        = "動詞"
	posAdjective   = "形容詞"
	posAdverb      = "副詞"
	posAdnominal   = "連体詞"
	posParticle    = "助詞"
	posAuxiliary   = "助動詞"
	detailPronoun  = "代名詞"
	detailNaStem   = "形容動詞語幹"
	detailSuru     = "サ変接続"
	detailSuffix   = "接尾"
	detailConjunct = "接続助詞"
	detailDepend   = "非自立"
)

// Classify maps a term and its anchor tags to a unified category. Unknown
// combinations are unclassified.
func Classify(term, pos, detail1 string) model.Category {
	switch pos {
	case posNoun:
		switch detail1 {
		case detailPronoun:
			return model.CategoryPronoun
		case detailNaStem:
			return model.CategoryAdjective
		}
		return model.CategoryNoun
	case posVerb:
		return model.CategoryVerb
	case posAdjective:
		return model.CategoryAdjective
	case posAdverb, posAdnominal:
		return model.CategoryAdverbialAdjective
	case posParticle:
		// じゃない reads as a predicate, not a particle.
		if term == "じゃない" {
			return model.CategoryUnclassified
		}
		return model.CategoryParticle
	}
	return model.CategoryUnclassified
}
