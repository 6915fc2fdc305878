package model

// RawToken represents a morpheme produced by the base tokenizer.
type RawToken struct {
	Surface         string    `json:"surface"`
	POS             string    `json:"pos,omitempty"`
	POSDetail       [3]string `json:"pos_detail,omitempty"`
	ConjugationType string    `json:"conjugation_type,omitempty"`
	ConjugationForm string    `json:"conjugation_form,omitempty"`
	Lemma           string    `json:"lemma,omitempty"`
	Reading         string    `json:"reading,omitempty"`
	Pronunciation   string    `json:"pronunciation,omitempty"`
	Position        int       `json:"position"`
	Start           int       `json:"start"`
	End             int       `json:"end"`
}

// Detail returns the n-th part-of-speech sub level (1-based), or "" when unset.
func (t RawToken) Detail(n int) string {
	if n < 1 || n > len(t.POSDetail) {
		return ""
	}
	if d := t.POSDetail[n-1]; d != "*" {
		return d
	}
	return ""
}

// Category is the unified word category exposed to search and rendering.
type Category string

const (
	CategoryPronoun            Category = "pronoun"
	CategoryNoun               Category = "noun"
	CategoryVerb               Category = "verb"
	CategoryAdverbialAdjective Category = "adverbial-adjective"
	CategoryAdjective          Category = "adjective"
	CategoryParticle           Category = "particle"
	CategoryUnclassified       Category = "unclassified"
)

// ResolvedToken is a dictionary-aligned lexical unit built from one or more
// raw tokens.
type ResolvedToken struct {
	Surface  string   `json:"surface"`
	Lemma    string   `json:"lemma"`
	Category Category `json:"category"`
	Furigana string   `json:"furigana"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Tokens   int      `json:"tokens"`
	Headword bool     `json:"headword,omitempty"`

	// Pronunciation is the accumulated katakana reading of the consumed raw
	// tokens. It is cleared once Furigana is set.
	Pronunciation string `json:"pronunciation,omitempty"`
}

// Heading is one written form of a dictionary entry.
type Heading struct {
	Spelling string `json:"spelling" bson:"spelling"`
	Reading  string `json:"reading" bson:"reading"`
	Furigana string `json:"furigana" bson:"furigana"`
}

// Entry is a dictionary entry returned by an oracle lookup.
type Entry struct {
	ID       int       `json:"id" bson:"_id"`
	Source   string    `json:"source" bson:"source"`
	Headings []Heading `json:"headings" bson:"headings"`
	Glosses  []string  `json:"glosses,omitempty" bson:"glosses,omitempty"`
	POS      []string  `json:"pos,omitempty" bson:"pos,omitempty"`
	Common   bool      `json:"common,omitempty" bson:"common,omitempty"`
}

// Lemma returns the preferred written form of the entry.
func (e Entry) Lemma() string {
	if len(e.Headings) == 0 {
		return ""
	}
	if e.Headings[0].Spelling != "" {
		return e.Headings[0].Spelling
	}
	return e.Headings[0].Reading
}

// Keys returns every distinct spelling and reading of the entry.
func (e Entry) Keys() []string {
	seen := make(map[string]bool, len(e.Headings)*2)
	var keys []string
	for _, h := range e.Headings {
		for _, k := range []string{h.Spelling, h.Reading} {
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Match returns the heading whose spelling or reading equals span.
func (e Entry) Match(span string) (Heading, bool) {
	for _, h := range e.Headings {
		if h.Spelling == span || h.Reading == span {
			return h, true
		}
	}
	return Heading{}, false
}

// LexEntry pairs a resolved token with its dictionary readings and definitions.
type LexEntry struct {
	Token       ResolvedToken `json:"token"`
	Readings    []string      `json:"readings,omitempty"`
	Definitions []string      `json:"definitions,omitempty"`
	Source      string        `json:"source,omitempty"`
}
