package resolve

import (
	"strings"

	"japanesedict/model"
)

// JoinRequest describes one extension attempt. Offset 0 means the candidate
// is the anchor itself.
type JoinRequest struct {
	Class     AnchorClass
	State     PromotionState
	Anchor    model.RawToken
	Candidate model.RawToken
	Offset    int
	// SpanText is the concatenated surface of the span including Candidate.
	SpanText string
	// Hit reports that the oracle knows SpanText as a headword.
	Hit bool
}

// Decision is the outcome of a join attempt. Stop forbids further
// extensions; Promote moves a suru-capable noun to the verb rules.
type Decision struct {
	Accept  bool
	Stop    bool
	Promote bool
}

var (
	accept     = Decision{Accept: true}
	acceptStop = Decision{Accept: true, Stop: true}
	reject     = Decision{}
)

// verbAuxiliaries are auxiliary lemmas that continue a verb chain.
var verbAuxiliaries = map[string]bool{
	"た": true, "ない": true, "ます": true, "ん": true, "う": true, "ぬ": true,
}

// verbConjunctives are conjunctive particles that continue a verb chain.
var verbConjunctives = map[string]bool{
	"て": true, "で": true, "たり": true, "だり": true,
}

// Join decides whether the candidate extends the span.
func Join(req JoinRequest) Decision {
	if req.Offset > 0 && req.Candidate.Surface == "ば" {
		return acceptStop
	}
	switch req.Class.rules(req.State) {
	case AnchorNoun:
		return joinNoun(req)
	case AnchorSuruNoun:
		return joinSuruNoun(req)
	case AnchorVerb:
		return joinVerb(req)
	case AnchorIAdjective:
		return joinIAdjective(req)
	case AnchorNaAdjective:
		return joinNaAdjective(req)
	case AnchorOther:
		return joinOther(req)
	}
	return reject
}

func joinNoun(req JoinRequest) Decision {
	if req.Hit {
		return accept
	}
	return reject
}

// joinSuruNoun accepts する as the first extension and promotes the span;
// otherwise the noun rule applies.
func joinSuruNoun(req JoinRequest) Decision {
	c := req.Candidate
	if req.Offset == 1 && c.POS == posVerb && c.Lemma == "する" {
		return Decision{Accept: true, Promote: true}
	}
	return joinNoun(req)
}

func joinVerb(req JoinRequest) Decision {
	if req.Offset == 0 {
		return reject
	}
	c := req.Candidate
	switch {
	case c.POS == posAuxiliary && verbAuxiliaries[c.Lemma]:
		return accept
	case c.POS == posAuxiliary && c.Lemma == "です" && strings.HasSuffix(req.SpanText, "ませんでし"):
		return accept
	case c.POS == posParticle && verbConjunctives[c.Surface]:
		return accept
	case dependent(c):
		return accept
	}
	return reject
}

func joinIAdjective(req JoinRequest) Decision {
	if req.Offset == 0 {
		return reject
	}
	c := req.Candidate
	switch {
	case c.POS == posAuxiliary && (c.Lemma == "た" || c.Lemma == "ない"):
		return accept
	case c.Surface == "さ" && c.Detail(1) == detailSuffix:
		return accept
	case (c.Surface == "て" || c.Surface == "で") && c.Detail(1) == detailConjunct:
		return accept
	case c.ConjugationType == "特殊・タ":
		return accept
	case dependent(c):
		return accept
	}
	return reject
}

func joinNaAdjective(req JoinRequest) Decision {
	c := req.Candidate
	if req.Offset > 0 && c.POS == posAuxiliary && c.Surface == "な" {
		return acceptStop
	}
	return reject
}

func joinOther(req JoinRequest) Decision {
	if req.Offset == 0 {
		return reject
	}
	a, c := req.Anchor, req.Candidate
	switch {
	case a.Surface == "じゃ" && c.POS == posAuxiliary && c.Lemma == "ない":
		return accept
	case a.POS == posAuxiliary && (a.Surface == "だろ" || a.Surface == "でしょ") &&
		c.POS == posAuxiliary && c.Lemma == "う":
		return acceptStop
	}
	return reject
}

// dependent reports a suffix, conjunctive or dependent token that is neither
// a noun nor a particle.
func dependent(c model.RawToken) bool {
	switch c.Detail(1) {
	case detailSuffix, detailConjunct, detailDepend:
		return c.POS != posNoun && c.POS != posParticle
	}
	return false
}
