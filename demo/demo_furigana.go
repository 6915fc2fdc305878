package main

import (
	"flag"
	"fmt"
	"os"

	"japanesedict/furigana"
	"japanesedict/kana"
	"japanesedict/kanji"
)

func main() {
	dictPath := flag.String("kanjidic", "data/kanjidic2.xml", "Kanjidic2 XML file")
	flag.Parse()

	text, reading := "入見内川", "イリミナイカワ"
	if args := flag.Args(); len(args) == 2 {
		text, reading = args[0], args[1]
	}

	d, err := kanji.LoadFile(*dictPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load kanjidic2: %v\n", err)
		d = kanji.New()
	}

	fmt.Printf("Surface: %s\nReading (katakana): %s\nReading (hiragana): %s\n",
		text, reading, kana.ToHiragana(reading))

	fmt.Println("\nKanji candidates:")
	for i, r := range []rune(text) {
		if !kana.IsKanji(r) {
			continue
		}
		var variants []string
		for _, raw := range d.Readings(r) {
			variants = append(variants, kanji.Variants(raw)...)
		}
		fmt.Printf("kanji[%d]=%c variants=%v\n", i, r, variants)
	}

	fmt.Println("\nAlignments (best first):")
	for i, segs := range furigana.NewAligner(d).Align(text, reading) {
		enc := furigana.Encode(segs)
		fmt.Printf("%d: %s  %s\n", i, enc, furigana.Ruby(enc))
	}
}
