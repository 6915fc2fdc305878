package dictionary

import (
	"context"
	"fmt"
	"io"
	"os"

	"japanesedict/furigana"
	"japanesedict/logger"
	"japanesedict/model"

	jmdict "github.com/yomidevs/jmdict-go"
)

const (
	SourceJMdict   = "JMdict"
	SourceJMnedict = "JMnedict"

	importBatchSize = 1000
)

// commonPriorities are the priority tags that mark an EDICT "common" word.
var commonPriorities = map[string]bool{
	"news1": true, "ichi1": true, "spec1": true, "spec2": true, "gai1": true,
}

// Progress is called after each written batch.
type Progress func(done, total int)

// ImportJMdictFile opens path and imports it with ImportJMdict.
func ImportJMdictFile(ctx context.Context, path string, w Writer, al *furigana.Aligner, progress Progress) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open JMdict: %w", err)
	}
	defer f.Close()
	return ImportJMdict(ctx, f, w, al, progress)
}

// ImportJMdict loads a JMdict XML document, converts every entry and writes
// it in batches. Heading furigana is precomputed with al.
func ImportJMdict(ctx context.Context, r io.Reader, w Writer, al *furigana.Aligner, progress Progress) (int, error) {
	dict, _, err := jmdict.LoadJmdict(r)
	if err != nil {
		return 0, fmt.Errorf("load JMdict: %w", err)
	}
	entries := make([]model.Entry, 0, len(dict.Entries))
	for _, e := range dict.Entries {
		entries = append(entries, convertJMdictEntry(e, al))
	}
	return writeBatches(ctx, SourceJMdict, entries, w, progress)
}

// ImportJMnedictFile opens path and imports it with ImportJMnedict.
func ImportJMnedictFile(ctx context.Context, path string, w Writer, al *furigana.Aligner, progress Progress) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open JMnedict: %w", err)
	}
	defer f.Close()
	return ImportJMnedict(ctx, f, w, al, progress)
}

// ImportJMnedict loads the JMnedict proper-name dictionary.
func ImportJMnedict(ctx context.Context, r io.Reader, w Writer, al *furigana.Aligner, progress Progress) (int, error) {
	dict, _, err := jmdict.LoadJmnedict(r)
	if err != nil {
		return 0, fmt.Errorf("load JMnedict: %w", err)
	}
	entries := make([]model.Entry, 0, len(dict.Entries))
	for _, e := range dict.Entries {
		entries = append(entries, convertJMnedictEntry(e, al))
	}
	return writeBatches(ctx, SourceJMnedict, entries, w, progress)
}

func writeBatches(ctx context.Context, source string, entries []model.Entry, w Writer, progress Progress) (int, error) {
	log := logger.WithComponent("import")
	done := 0
	for start := 0; start < len(entries); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		end := min(start+importBatchSize, len(entries))
		if err := w.Write(ctx, entries[start:end]); err != nil {
			return done, fmt.Errorf("write %s batch at %d: %w", source, start, err)
		}
		done = end
		if progress != nil {
			progress(done, len(entries))
		}
	}
	log.Info("import finished", "source", source, "entries", done)
	return done, nil
}

// headwordForm is the subset of a JMdict/JMnedict entry needed to build
// headings.
type headwordForm struct {
	kanji    []string
	readings []string
	// restrictions[i] lists the kanji reading i is limited to (empty: all).
	restrictions [][]string
	noKanji      []bool
}

// buildHeadings pairs every kanji spelling with its first applicable reading
// and adds a kana heading for every reading not already covered.
func buildHeadings(f headwordForm, al *furigana.Aligner) []model.Heading {
	var out []model.Heading
	covered := make(map[string]bool)
	for _, k := range f.kanji {
		for i, r := range f.readings {
			if f.noKanji[i] || !appliesTo(f.restrictions[i], k) {
				continue
			}
			out = append(out, model.Heading{
				Spelling: k,
				Reading:  r,
				Furigana: furigana.Encode(al.Align(k, r)[0]),
			})
			covered[r] = true
			break
		}
	}
	for _, r := range f.readings {
		if covered[r] {
			continue
		}
		covered[r] = true
		out = append(out, model.Heading{Spelling: r, Reading: r, Furigana: furigana.Plain(r)})
	}
	return out
}

func appliesTo(restrictions []string, kanji string) bool {
	if len(restrictions) == 0 {
		return true
	}
	for _, r := range restrictions {
		if r == kanji {
			return true
		}
	}
	return false
}

func isCommon(priorities ...[]string) bool {
	for _, ps := range priorities {
		for _, p := range ps {
			if commonPriorities[p] {
				return true
			}
		}
	}
	return false
}

// convertJMdictEntry converts a JMdict entry, flattening senses into glosses
// and parts of speech.
func convertJMdictEntry(jm jmdict.JmdictEntry, al *furigana.Aligner) model.Entry {
	var form headwordForm
	var priorities [][]string
	for _, k := range jm.Kanji {
		form.kanji = append(form.kanji, k.Expression)
		priorities = append(priorities, k.Priorities)
	}
	for _, r := range jm.Readings {
		form.readings = append(form.readings, r.Reading)
		form.restrictions = append(form.restrictions, r.Restrictions)
		form.noKanji = append(form.noKanji, r.NoKanji != nil)
		priorities = append(priorities, r.Priorities)
	}
	e := model.Entry{
		ID:       jm.Sequence,
		Source:   SourceJMdict,
		Headings: buildHeadings(form, al),
		Common:   isCommon(priorities...),
	}
	seenPOS := make(map[string]bool)
	for _, s := range jm.Sense {
		for _, g := range s.Glossary {
			e.Glosses = append(e.Glosses, g.Content)
		}
		for _, p := range s.PartsOfSpeech {
			if !seenPOS[p] {
				seenPOS[p] = true
				e.POS = append(e.POS, p)
			}
		}
	}
	return e
}

// convertJMnedictEntry converts a JMnedict entry; name types become the
// entry's parts of speech.
func convertJMnedictEntry(jm jmdict.JmnedictEntry, al *furigana.Aligner) model.Entry {
	var form headwordForm
	for _, k := range jm.Kanji {
		form.kanji = append(form.kanji, k.Expression)
	}
	for _, r := range jm.Readings {
		form.readings = append(form.readings, r.Reading)
		form.restrictions = append(form.restrictions, r.Restrictions)
		form.noKanji = append(form.noKanji, false)
	}
	e := model.Entry{
		ID:       jm.Sequence,
		Source:   SourceJMnedict,
		Headings: buildHeadings(form, al),
	}
	seenType := make(map[string]bool)
	for _, t := range jm.Translations {
		e.Glosses = append(e.Glosses, t.Translations...)
		for _, nt := range t.NameTypes {
			if !seenType[nt] {
				seenType[nt] = true
				e.POS = append(e.POS, nt)
			}
		}
	}
	return e
}
