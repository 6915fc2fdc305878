package kanji

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"japanesedict/kana"
	"japanesedict/logger"
)

// ErrNotFound is returned when a literal is not in the dictionary.
var ErrNotFound = errors.New("kanji not found")

// Character is a single Kanjidic2 entry.
type Character struct {
	Literal     string   `json:"literal"`
	OnReadings  []string `json:"on_readings,omitempty"`
	KunReadings []string `json:"kun_readings,omitempty"`
	Nanori      []string `json:"nanori,omitempty"`
	Meanings    []string `json:"meanings,omitempty"`
	Strokes     int      `json:"strokes,omitempty"`
	Grade       int      `json:"grade,omitempty"`
	JLPT        int      `json:"jlpt,omitempty"`
	Frequency   int      `json:"frequency,omitempty"`
}

// Readings returns the on and kun readings, on first.
func (c Character) Readings() []string {
	out := make([]string, 0, len(c.OnReadings)+len(c.KunReadings))
	out = append(out, c.OnReadings...)
	return append(out, c.KunReadings...)
}

type kanjidic2Character struct {
	Literal string `xml:"literal"`
	Misc    struct {
		Grade       int   `xml:"grade"`
		StrokeCount []int `xml:"stroke_count"`
		Freq        int   `xml:"freq"`
		JLPT        int   `xml:"jlpt"`
	} `xml:"misc"`
	ReadingMeaning struct {
		RMGroup []struct {
			Reading []struct {
				Value string `xml:",chardata"`
				Type  string `xml:"r_type,attr"`
			} `xml:"reading"`
			Meaning []struct {
				Value string `xml:",chardata"`
				Lang  string `xml:"m_lang,attr"`
			} `xml:"meaning"`
		} `xml:"rmgroup"`
		Nanori []string `xml:"nanori"`
	} `xml:"reading_meaning"`
}

// Dict is an in-memory Kanjidic2 index keyed by literal.
type Dict struct {
	chars map[rune]Character
}

// New returns an empty dictionary.
func New() *Dict {
	return &Dict{chars: make(map[rune]Character)}
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open kanjidic2: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes Kanjidic2 XML, reading <character> elements directly and
// skipping any wrapper.
func Load(r io.Reader) (*Dict, error) {
	log := logger.WithComponent("kanji")
	d := New()
	dec := xml.NewDecoder(r)
	// kanjidic2 declares entities in its DTD that encoding/xml does not expand.
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse kanjidic2: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "character" {
			continue
		}
		var k kanjidic2Character
		if err := dec.DecodeElement(&k, &se); err != nil {
			log.Warn("failed to decode character", "error", err)
			continue
		}
		if utf8.RuneCountInString(k.Literal) != 1 {
			continue
		}
		d.Add(convert(k))
	}
	log.Info("kanjidic2 loaded", "entries", d.Count())
	return d, nil
}

func convert(k kanjidic2Character) Character {
	c := Character{
		Literal:   k.Literal,
		Nanori:    k.ReadingMeaning.Nanori,
		Grade:     k.Misc.Grade,
		JLPT:      k.Misc.JLPT,
		Frequency: k.Misc.Freq,
	}
	if len(k.Misc.StrokeCount) > 0 {
		c.Strokes = k.Misc.StrokeCount[0]
	}
	for _, group := range k.ReadingMeaning.RMGroup {
		for _, r := range group.Reading {
			switch r.Type {
			case "ja_on":
				c.OnReadings = append(c.OnReadings, r.Value)
			case "ja_kun":
				c.KunReadings = append(c.KunReadings, r.Value)
			}
		}
		for _, m := range group.Meaning {
			if m.Lang == "" || m.Lang == "en" {
				c.Meanings = append(c.Meanings, m.Value)
			}
		}
	}
	return c
}

// Add inserts or replaces a character.
func (d *Dict) Add(c Character) {
	r, _ := utf8.DecodeRuneInString(c.Literal)
	d.chars[r] = c
}

// Lookup returns the entry for a single-character literal.
func (d *Dict) Lookup(literal string) (Character, error) {
	if d == nil || utf8.RuneCountInString(literal) != 1 {
		return Character{}, ErrNotFound
	}
	r, _ := utf8.DecodeRuneInString(literal)
	c, ok := d.chars[r]
	if !ok {
		return Character{}, ErrNotFound
	}
	return c, nil
}

// Readings returns the raw on and kun readings of r.
func (d *Dict) Readings(r rune) []string {
	if d == nil {
		return nil
	}
	c, ok := d.chars[r]
	if !ok {
		return nil
	}
	return c.Readings()
}

// Count returns the number of kanji entries loaded.
func (d *Dict) Count() int {
	if d == nil {
		return 0
	}
	return len(d.chars)
}

// NormalizeReading removes the okurigana separator '.' and affix markers '-'
// and converts katakana to hiragana so "い.り" matches "いり".
func NormalizeReading(s string) string {
	s = strings.NewReplacer(".", "", "-", "").Replace(s)
	return kana.ToHiragana(s)
}

var rendaku = map[rune]rune{
	'か': 'が', 'き': 'ぎ', 'く': 'ぐ', 'け': 'げ', 'こ': 'ご',
	'さ': 'ざ', 'し': 'じ', 'す': 'ず', 'せ': 'ぜ', 'そ': 'ぞ',
	'た': 'だ', 'ち': 'ぢ', 'つ': 'づ', 'て': 'で', 'と': 'ど',
	'は': 'ば', 'ひ': 'び', 'ふ': 'ぶ', 'へ': 'べ', 'ほ': 'ぼ',
}

// RendakuForm voices the first kana of a normalized reading (かわ → がわ).
// Readings that cannot be voiced are returned unchanged.
func RendakuForm(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	if v, ok := rendaku[runes[0]]; ok {
		runes[0] = v
	}
	return string(runes)
}

// Variants expands a raw Kanjidic2 reading into the normalized forms it can
// take inside a word: the full reading, the stem before '.', and the
// geminated form (がく → がっ).
func Variants(raw string) []string {
	var out []string
	add := func(v string) {
		if v == "" {
			return
		}
		for _, o := range out {
			if o == v {
				return
			}
		}
		out = append(out, v)
	}
	add(NormalizeReading(raw))
	if idx := strings.IndexRune(raw, '.'); idx >= 0 {
		add(NormalizeReading(raw[:idx]))
	}
	for _, v := range append([]string(nil), out...) {
		runes := []rune(v)
		if len(runes) < 2 {
			continue
		}
		switch runes[len(runes)-1] {
		case 'つ', 'く', 'ち', 'き':
			runes[len(runes)-1] = 'っ'
			add(string(runes))
		}
	}
	return out
}
