package analyze

import (
	"fmt"

	"japanesedict/model"
)

// ClauseRole represents grammatical roles in a clause.
type ClauseRole struct {
	Subject     []int `json:"subject,omitempty"` // indices in entries
	Object      []int `json:"object,omitempty"`
	IndirectObj []int `json:"indirect_object,omitempty"`
	Adverbial   []int `json:"adverbial,omitempty"`
	Verb        *int  `json:"verb,omitempty"`
	Tokens      []int `json:"tokens"`
}

type ClauseType string

const (
	MainClause        ClauseType = "main"
	SubordinateClause ClauseType = "subordinate"
)

type Clause struct {
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Roles      ClauseRole `json:"roles"`
	Type       ClauseType `json:"type"`
	Connective string     `json:"connective,omitempty"`
}

// connectives mark the clause they close as subordinate.
var connectives = map[string]bool{
	"が": true, "ので": true, "から": true, "けど": true, "そして": true, "と": true,
}

// Clauses splits entries at "。" and "、" and assigns roles from the
// particle that follows each noun.
func Clauses(entries []LexEntry) []Clause {
	var clauses []Clause
	clauseStart := 0
	for i, e := range entries {
		if e.Token.Surface != "。" && e.Token.Surface != "、" {
			continue
		}
		clause := newClause(entries, clauseStart, i)
		// Discourse/connective analysis: look for conjunctions before clause boundary
		if i > clauseStart {
			if prev := entries[i-1].Token.Surface; connectives[prev] {
				clause.Connective = prev
				clause.Type = SubordinateClause
			}
		}
		clauses = append(clauses, clause)
		clauseStart = i + 1
	}
	if clauseStart < len(entries) {
		clauses = append(clauses, newClause(entries, clauseStart, len(entries)))
	}
	return clauses
}

func newClause(entries []LexEntry, start, end int) Clause {
	c := Clause{Start: start, End: end, Type: MainClause, Roles: ClauseRole{Tokens: make([]int, 0, end-start)}}
	for j := start; j < end; j++ {
		c.Roles.Tokens = append(c.Roles.Tokens, j)
		tok := entries[j].Token
		switch tok.Category {
		case model.CategoryVerb:
			c.Roles.Verb = &j
		case model.CategoryAdverbialAdjective:
			c.Roles.Adverbial = append(c.Roles.Adverbial, j)
		case model.CategoryNoun, model.CategoryPronoun:
			if j+1 >= end || entries[j+1].Token.Category != model.CategoryParticle {
				continue
			}
			switch entries[j+1].Token.Surface {
			case "は", "が":
				c.Roles.Subject = append(c.Roles.Subject, j)
			case "を":
				c.Roles.Object = append(c.Roles.Object, j)
			case "に", "へ":
				c.Roles.IndirectObj = append(c.Roles.IndirectObj, j)
			}
		}
	}
	return c
}

// grammarIssues flags clauses that open with a particle.
func grammarIssues(entries []LexEntry, clauses []Clause) []string {
	var issues []string
	for n, c := range clauses {
		if c.Start < c.End && entries[c.Start].Token.Category == model.CategoryParticle {
			issues = append(issues, fmt.Sprintf("clause %d starts with particle %q", n+1, entries[c.Start].Token.Surface))
		}
	}
	return issues
}
