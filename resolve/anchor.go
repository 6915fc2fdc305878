package resolve

import "japanesedict/model"

// AnchorClass is the grammatical class of the first token of a span. It
// selects the join rules for the whole span.
type AnchorClass int

const (
	AnchorOther AnchorClass = iota
	AnchorNoun
	AnchorSuruNoun
	AnchorVerb
	AnchorIAdjective
	AnchorNaAdjective
)

func (c AnchorClass) String() string {
	switch c {
	case AnchorNoun:
		return "noun"
	case AnchorSuruNoun:
		return "suru-noun"
	case AnchorVerb:
		return "verb"
	case AnchorIAdjective:
		return "i-adjective"
	case AnchorNaAdjective:
		return "na-adjective"
	}
	return "other"
}

// ClassifyAnchor derives the anchor class from a token's tags.
func ClassifyAnchor(t model.RawToken) AnchorClass {
	switch t.POS {
	case posNoun:
		switch t.Detail(1) {
		case detailSuru:
			return AnchorSuruNoun
		case detailNaStem:
			return AnchorNaAdjective
		}
		return AnchorNoun
	case posVerb:
		return AnchorVerb
	case posAdjective:
		return AnchorIAdjective
	}
	return AnchorOther
}

// PromotionState tracks whether a suru-capable noun has been joined with
// する. The transition is one way.
type PromotionState int

const (
	Unpromoted PromotionState = iota
	Promoted
)

func (s PromotionState) String() string {
	if s == Promoted {
		return "promoted"
	}
	return "unpromoted"
}

// rules returns the class whose rule table applies in state s.
func (c AnchorClass) rules(s PromotionState) AnchorClass {
	if c == AnchorSuruNoun && s == Promoted {
		return AnchorVerb
	}
	return c
}

// conjugates reports whether spans anchored on c are inflection chains whose
// lemma is the anchor's dictionary form.
func (c AnchorClass) conjugates() bool {
	switch c {
	case AnchorVerb, AnchorIAdjective, AnchorNaAdjective:
		return true
	}
	return false
}
