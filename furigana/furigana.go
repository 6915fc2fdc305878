// Package furigana aligns kana readings to written spellings and encodes the
// result in the "spell.ing;rea.ding" wire format.
package furigana

import (
	"strings"

	"japanesedict/kana"
	"japanesedict/kanji"
)

// Segment pairs a chunk of the spelling with its reading. An empty Reading
// means the chunk is already phonetic.
type Segment struct {
	Spelling string `json:"spelling"`
	Reading  string `json:"reading"`
}

// ReadingSource supplies the dictionary readings of a single kanji.
// *kanji.Dict satisfies it.
type ReadingSource interface {
	Readings(r rune) []string
}

// Aligner splits readings across spellings. A nil source disables
// per-kanji refinement.
type Aligner struct {
	kanji ReadingSource
}

// NewAligner creates an Aligner backed by src.
func NewAligner(src ReadingSource) *Aligner {
	return &Aligner{kanji: src}
}

// Align returns candidate alignments of reading (katakana or hiragana) onto
// spelling, best first. It always returns at least one candidate; when no
// chunk-wise alignment exists the whole spelling carries the whole reading.
func (a *Aligner) Align(spelling, reading string) [][]Segment {
	reading = kana.ToHiragana(reading)
	if reading == "" || kana.ToHiragana(spelling) == reading {
		return [][]Segment{{{Spelling: spelling}}}
	}

	runs := splitRuns(spelling)
	var out [][]Segment
	for _, base := range matchRuns(runs, []rune(reading)) {
		if refined, ok := a.refine(base); ok {
			out = append(out, refined)
		}
		out = append(out, base)
	}
	if len(out) == 0 {
		out = append(out, []Segment{{Spelling: spelling, Reading: reading}})
	}
	return out
}

// run is a maximal stretch of either kana or non-kana runes.
type run struct {
	text   string
	isKana bool
}

func splitRuns(s string) []run {
	var runs []run
	for _, r := range s {
		k := kana.IsKana(r)
		if n := len(runs); n > 0 && runs[n-1].isKana == k {
			runs[n-1].text += string(r)
			continue
		}
		runs = append(runs, run{text: string(r), isKana: k})
	}
	return runs
}

// matchRuns anchors the kana runs of the spelling in the reading and hands
// the gaps to the non-kana runs. Shorter gaps are tried first.
func matchRuns(runs []run, reading []rune) [][]Segment {
	var out [][]Segment
	var walk func(i, pos int, acc []Segment)
	walk = func(i, pos int, acc []Segment) {
		if i == len(runs) {
			if pos == len(reading) {
				out = append(out, append([]Segment(nil), acc...))
			}
			return
		}
		cur := runs[i]
		if cur.isKana {
			want := []rune(kana.ToHiragana(cur.text))
			if !hasPrefixAt(reading, pos, want) {
				return
			}
			walk(i+1, pos+len(want), append(acc, Segment{Spelling: cur.text}))
			return
		}
		if i == len(runs)-1 {
			if pos < len(reading) {
				walk(i+1, len(reading), append(acc, Segment{Spelling: cur.text, Reading: string(reading[pos:])}))
			}
			return
		}
		next := []rune(kana.ToHiragana(runs[i+1].text))
		for end := pos + 1; end+len(next) <= len(reading); end++ {
			if hasPrefixAt(reading, end, next) {
				walk(i+1, end, append(acc, Segment{Spelling: cur.text, Reading: string(reading[pos:end])}))
			}
		}
	}
	walk(0, 0, nil)
	return out
}

func hasPrefixAt(s []rune, pos int, prefix []rune) bool {
	if pos+len(prefix) > len(s) {
		return false
	}
	for i, r := range prefix {
		if s[pos+i] != r {
			return false
		}
	}
	return true
}

// refine splits multi-kanji segments into one segment per kanji when the
// kanji dictionary readings cover the segment reading exactly.
func (a *Aligner) refine(base []Segment) ([]Segment, bool) {
	if a == nil || a.kanji == nil {
		return nil, false
	}
	changed := false
	out := make([]Segment, 0, len(base))
	for _, seg := range base {
		chars := []rune(seg.Spelling)
		if seg.Reading == "" || len(chars) < 2 {
			out = append(out, seg)
			continue
		}
		split, ok := a.splitKanji(chars, []rune(seg.Reading))
		if !ok {
			out = append(out, seg)
			continue
		}
		out = append(out, split...)
		changed = true
	}
	return out, changed
}

// splitKanji assigns a reading to every kanji using the longest dictionary
// reading (or its rendaku form for non-initial kanji) that keeps the rest
// solvable. The last kanji must consume the remaining reading exactly.
func (a *Aligner) splitKanji(chars, reading []rune) ([]Segment, bool) {
	var walk func(j, k int) ([]Segment, bool)
	walk = func(j, k int) ([]Segment, bool) {
		if j == len(chars) {
			return nil, k == len(reading)
		}
		if !kana.IsKanji(chars[j]) {
			return nil, false
		}
		for _, cand := range a.candidates(chars[j], j > 0) {
			c := []rune(cand)
			if !hasPrefixAt(reading, k, c) {
				continue
			}
			if j == len(chars)-1 && k+len(c) != len(reading) {
				continue
			}
			rest, ok := walk(j+1, k+len(c))
			if !ok {
				continue
			}
			return append([]Segment{{Spelling: string(chars[j]), Reading: cand}}, rest...), true
		}
		return nil, false
	}
	return walk(0, 0)
}

// candidates lists the normalized readings of r, longest first.
func (a *Aligner) candidates(r rune, voiced bool) []string {
	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, raw := range a.kanji.Readings(r) {
		for _, v := range kanji.Variants(raw) {
			add(v)
			if voiced {
				add(kanji.RendakuForm(v))
			}
		}
	}
	// stable longest-first ordering
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len([]rune(out[j])) > len([]rune(out[j-1])); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Encode renders segments as spelling chunks joined by '.', a ';', then the
// reading chunks joined by '.'. A single unannotated chunk encodes as
// "spelling;".
func Encode(segs []Segment) string {
	if len(segs) == 1 && segs[0].Reading == "" {
		return segs[0].Spelling + ";"
	}
	spellings := make([]string, len(segs))
	readings := make([]string, len(segs))
	for i, s := range segs {
		spellings[i] = s.Spelling
		readings[i] = s.Reading
	}
	return strings.Join(spellings, ".") + ";" + strings.Join(readings, ".")
}

// Plain encodes a spelling that needs no separate reading.
func Plain(spelling string) string {
	return spelling + ";"
}

// Decode parses an encoded value. When the chunk counts disagree (a spelling
// containing '.' or ';') the whole spelling is returned as one segment.
func Decode(s string) []Segment {
	idx := strings.LastIndex(s, ";")
	if idx < 0 {
		return []Segment{{Spelling: s}}
	}
	spell, read := s[:idx], s[idx+1:]
	if read == "" {
		return []Segment{{Spelling: spell}}
	}
	sp := strings.Split(spell, ".")
	rd := strings.Split(read, ".")
	if len(sp) != len(rd) {
		return []Segment{{Spelling: spell, Reading: read}}
	}
	out := make([]Segment, len(sp))
	for i := range sp {
		out[i] = Segment{Spelling: sp[i], Reading: rd[i]}
	}
	return out
}

// Ruby renders an encoded value in the bracket display format, e.g.
// "食[た]べない".
func Ruby(encoded string) string {
	var b strings.Builder
	for _, seg := range Decode(encoded) {
		b.WriteString(seg.Spelling)
		if seg.Reading != "" {
			b.WriteString("[" + seg.Reading + "]")
		}
	}
	return b.String()
}
