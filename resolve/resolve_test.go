package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"japanesedict/dictionary"
	"japanesedict/furigana"
	"japanesedict/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenizer returns canned IPA-style tokens per input text.
type fakeTokenizer map[string][]model.RawToken

func (f fakeTokenizer) Tokenize(_ context.Context, text string) ([]model.RawToken, error) {
	if text == "" {
		return nil, nil
	}
	toks, ok := f[text]
	if !ok {
		return nil, fmt.Errorf("no tokens for %q", text)
	}
	return toks, nil
}

type recordingOracle struct {
	next    Oracle
	err     error
	queries []string
}

func (o *recordingOracle) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	o.queries = append(o.queries, spans...)
	if o.err != nil {
		return nil, o.err
	}
	return o.next.LookupExact(ctx, spans, limit)
}

func tk(surface, pos, detail, lemma, reading string) model.RawToken {
	return model.RawToken{
		Surface:   surface,
		POS:       pos,
		POSDetail: [3]string{detail},
		Lemma:     lemma,
		Reading:   reading,
	}
}

func conj(t model.RawToken, typ, form string) model.RawToken {
	t.ConjugationType, t.ConjugationForm = typ, form
	return t
}

// seq numbers the tokens and assigns rune offsets.
func seq(toks ...model.RawToken) []model.RawToken {
	pos := 0
	for i := range toks {
		toks[i].Position = i
		toks[i].Start = pos
		pos += utf8.RuneCountInString(toks[i].Surface)
		toks[i].End = pos
	}
	return toks
}

func entry(id int, spelling, reading, furi string) model.Entry {
	return model.Entry{
		ID:       id,
		Source:   dictionary.SourceJMdict,
		Headings: []model.Heading{{Spelling: spelling, Reading: reading, Furigana: furi}},
	}
}

var (
	tabe  = conj(tk("食べ", "動詞", "自立", "食べる", "タベ"), "一段", "未然形")
	nai   = conj(tk("ない", "助動詞", "", "ない", "ナイ"), "特殊・ナイ", "基本形")
	te    = tk("て", "助詞", "接続助詞", "て", "テ")
	ta    = conj(tk("た", "助動詞", "", "た", "タ"), "特殊・タ", "基本形")
	space = tk(" ", "記号", "空白", " ", "")

	corpus = fakeTokenizer{
		"毎日私は学校に鉛筆を持っていきますよ。": seq(
			tk("毎日", "名詞", "副詞可能", "毎日", "マイニチ"),
			tk("私", "名詞", "代名詞", "私", "ワタシ"),
			tk("は", "助詞", "係助詞", "は", "ハ"),
			tk("学校", "名詞", "一般", "学校", "ガッコウ"),
			tk("に", "助詞", "格助詞", "に", "ニ"),
			tk("鉛筆", "名詞", "一般", "鉛筆", "エンピツ"),
			tk("を", "助詞", "格助詞", "を", "ヲ"),
			conj(tk("持っ", "動詞", "自立", "持つ", "モッ"), "五段・タ行", "連用タ接続"),
			te,
			conj(tk("いき", "動詞", "非自立", "いく", "イキ"), "五段・カ行促音便", "連用形"),
			conj(tk("ます", "助動詞", "", "ます", "マス"), "特殊・マス", "基本形"),
			tk("よ", "助詞", "終助詞", "よ", "ヨ"),
			tk("。", "記号", "句点", "。", "。"),
		),
		"食べない": seq(tabe, nai),
		"食べてしまった": seq(
			conj(tk("食べ", "動詞", "自立", "食べる", "タベ"), "一段", "連用形"),
			te,
			conj(tk("しまっ", "動詞", "非自立", "しまう", "シマッ"), "五段・ワ行促音便", "連用タ接続"),
			ta,
		),
		"ぼくのたかさ": seq(
			tk("ぼく", "名詞", "代名詞", "ぼく", "ボク"),
			tk("の", "助詞", "連体化", "の", "ノ"),
			tk("たか", "名詞", "一般", "たか", "タカ"),
			tk("さ", "名詞", "接尾", "さ", "サ"),
		),
		"食べない ": seq(tabe, nai, space),
		"  ":     seq(tk("  ", "記号", "空白", "  ", "")),
	}

	sampleDict = dictionary.NewMemoryIndex(
		entry(1, "毎日", "まいにち", "毎.日;まい.にち"),
		entry(2, "私", "わたし", "私;わたし"),
		entry(3, "学校", "がっこう", "学.校;がっ.こう"),
		entry(4, "鉛筆", "えんぴつ", "鉛.筆;えん.ぴつ"),
		entry(5, "国際空港", "こくさいくうこう", "国.際.空.港;こく.さい.くう.こう"),
		entry(6, "関西国際空港", "かんさいこくさいくうこう", ""),
		entry(7, "勉強", "べんきょう", "勉.強;べん.きょう"),
	)
)

func surfaces(toks []model.ResolvedToken) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Surface
	}
	return out
}

func resolveText(t *testing.T, r *Resolver, text string) []model.ResolvedToken {
	t.Helper()
	toks, err := r.Resolve(context.Background(), text)
	require.NoError(t, err)
	return toks
}

func newResolver(tok Tokenizer, oracle Oracle) *Resolver {
	return New(tok, oracle, furigana.NewAligner(nil))
}

func TestResolveSentence(t *testing.T) {
	r := newResolver(corpus, sampleDict)
	toks := resolveText(t, r, "毎日私は学校に鉛筆を持っていきますよ。")

	assert.Equal(t, []string{"毎日", "私", "は", "学校", "に", "鉛筆", "を", "持っていきます", "よ", "。"}, surfaces(toks))

	verb := toks[7]
	assert.Equal(t, "持つ", verb.Lemma)
	assert.Equal(t, model.CategoryVerb, verb.Category)
	assert.Equal(t, 4, verb.Tokens)
	assert.Equal(t, 10, verb.Start)
	assert.Equal(t, 17, verb.End)
	assert.Equal(t, "持.っていきます;も.", verb.Furigana)

	assert.Equal(t, model.CategoryPronoun, toks[1].Category)
	assert.Equal(t, model.CategoryParticle, toks[2].Category)
	assert.Equal(t, model.CategoryNoun, toks[3].Category)
	assert.Equal(t, model.CategoryUnclassified, toks[9].Category)

	assert.True(t, toks[3].Headword)
	assert.Equal(t, "学.校;がっ.こう", toks[3].Furigana)
	assert.Equal(t, "は;", toks[2].Furigana)
}

func TestResolveConjugationChains(t *testing.T) {
	r := newResolver(corpus, sampleDict)

	toks := resolveText(t, r, "食べない")
	require.Len(t, toks, 1)
	assert.Equal(t, "食べない", toks[0].Surface)
	assert.Equal(t, "食べる", toks[0].Lemma)
	assert.Equal(t, model.CategoryVerb, toks[0].Category)
	assert.Equal(t, "食.べない;た.", toks[0].Furigana)

	toks = resolveText(t, r, "食べてしまった")
	require.Len(t, toks, 1)
	assert.Equal(t, "食べてしまった", toks[0].Surface)
	assert.Equal(t, "食べる", toks[0].Lemma)
}

func TestResolveParticleBoundary(t *testing.T) {
	t.Run("oracle confirms headword", func(t *testing.T) {
		dict := dictionary.NewMemoryIndex(entry(10, "高さ", "たかさ", "高.さ;たか."))
		toks := resolveText(t, newResolver(corpus, dict), "ぼくのたかさ")
		assert.Equal(t, []string{"ぼく", "の", "たかさ"}, surfaces(toks))
		assert.Equal(t, "高さ", toks[2].Lemma)
		assert.Equal(t, "たかさ;", toks[2].Furigana, "kana span matched by reading needs no annotation")
		assert.True(t, toks[2].Headword)
	})
	t.Run("tokenizer boundary kept", func(t *testing.T) {
		toks := resolveText(t, newResolver(corpus, sampleDict), "ぼくのたかさ")
		assert.Equal(t, []string{"ぼく", "の", "たか", "さ"}, surfaces(toks))
	})
	t.Run("i-adjective nominalized with さ", func(t *testing.T) {
		tok := fakeTokenizer{"たかさ": seq(
			conj(tk("たか", "形容詞", "自立", "たかい", "タカ"), "形容詞・アウオ段", "ガル接続"),
			tk("さ", "名詞", "接尾", "さ", "サ"),
		)}
		toks := resolveText(t, newResolver(tok, nil), "たかさ")
		require.Len(t, toks, 1)
		assert.Equal(t, "たかい", toks[0].Lemma)
		assert.Equal(t, model.CategoryAdjective, toks[0].Category)
	})
}

func TestResolveDropsBlankTokens(t *testing.T) {
	r := newResolver(corpus, sampleDict)

	raw, err := corpus.Tokenize(context.Background(), "食べない ")
	require.NoError(t, err)
	scanned := r.Scan(context.Background(), raw)
	require.Len(t, scanned, 2, "whitespace is still consumed")

	toks := resolveText(t, r, "食べない ")
	assert.Equal(t, []string{"食べない"}, surfaces(toks))

	toks = resolveText(t, r, "  ")
	assert.NotNil(t, toks)
	assert.Empty(t, toks)

	toks = resolveText(t, r, "")
	assert.Empty(t, toks)
}

func TestScanInvariants(t *testing.T) {
	r := newResolver(corpus, sampleDict)
	for text, raw := range corpus {
		t.Run(text, func(t *testing.T) {
			scanned := r.Scan(context.Background(), raw)

			assert.Equal(t, text, strings.Join(surfaces(scanned), ""), "surfaces reconstruct the input")
			consumed := 0
			for _, tok := range scanned {
				assert.GreaterOrEqual(t, tok.Tokens, 1)
				consumed += tok.Tokens
			}
			assert.Equal(t, len(raw), consumed)

			toks, err := r.Resolve(context.Background(), text)
			require.NoError(t, err)
			for _, tok := range toks {
				assert.NotEmpty(t, tok.Furigana, tok.Surface)
				assert.Empty(t, tok.Pronunciation, tok.Surface)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := newResolver(corpus, sampleDict)
	first := resolveText(t, r, "食べない")[0]
	again := resolveText(t, r, first.Surface)[0]
	assert.Equal(t, first.Lemma, again.Lemma)
	assert.Equal(t, first.Category, again.Category)
}

func TestResolveOracleFailureIsNoMatch(t *testing.T) {
	oracle := &recordingOracle{err: errors.New("connection refused")}
	toks := resolveText(t, newResolver(corpus, oracle), "毎日私は学校に鉛筆を持っていきますよ。")
	assert.Len(t, toks, 10)
	for _, tok := range toks {
		assert.False(t, tok.Headword)
	}
	assert.Equal(t, "学校;がっこう", toks[3].Furigana, "aligned without the headword furigana")
	assert.NotEmpty(t, oracle.queries)
}

func TestResolveQueriesOnlyNounSpans(t *testing.T) {
	oracle := &recordingOracle{next: sampleDict}
	resolveText(t, newResolver(corpus, oracle), "食べてしまった")
	assert.Empty(t, oracle.queries)

	oracle = &recordingOracle{next: sampleDict}
	resolveText(t, newResolver(corpus, oracle), "ぼくのたかさ")
	assert.Equal(t, []string{"ぼく", "ぼくの", "たか", "たかさ", "さ"}, oracle.queries)
}

func TestResolveCompoundLookahead(t *testing.T) {
	tok := fakeTokenizer{
		"国際空港": seq(
			tk("国際", "名詞", "一般", "国際", "コクサイ"),
			tk("空港", "名詞", "一般", "空港", "クウコウ"),
		),
		"関西国際空港": seq(
			tk("関西", "名詞", "固有名詞", "関西", "カンサイ"),
			tk("国際", "名詞", "一般", "国際", "コクサイ"),
			tk("空港", "名詞", "一般", "空港", "クウコウ"),
		),
	}
	r := newResolver(tok, sampleDict)

	toks := resolveText(t, r, "国際空港")
	require.Len(t, toks, 1)
	assert.Equal(t, "国際空港", toks[0].Lemma)
	assert.Equal(t, "国.際.空.港;こく.さい.くう.こう", toks[0].Furigana)

	toks = resolveText(t, r, "関西国際空港")
	assert.Equal(t, []string{"関西", "国際空港"}, surfaces(toks), "lookahead is a single step")
}

func TestResolveSpecialJoins(t *testing.T) {
	tok := fakeTokenizer{
		"勉強します": seq(
			tk("勉強", "名詞", "サ変接続", "勉強", "ベンキョウ"),
			conj(tk("し", "動詞", "自立", "する", "シ"), "サ変・スル", "連用形"),
			conj(tk("ます", "助動詞", "", "ます", "マス"), "特殊・マス", "基本形"),
		),
		"食べませんでした": seq(
			conj(tk("食べ", "動詞", "自立", "食べる", "タベ"), "一段", "連用形"),
			conj(tk("ませ", "助動詞", "", "ます", "マセ"), "特殊・マス", "未然形"),
			conj(tk("ん", "助動詞", "", "ん", "ン"), "不変化型", "基本形"),
			conj(tk("でし", "助動詞", "", "です", "デシ"), "特殊・デス", "連用形"),
			ta,
		),
		"行けばない": seq(
			conj(tk("行け", "動詞", "自立", "行く", "イケ"), "五段・カ行促音便", "仮定形"),
			tk("ば", "助詞", "接続助詞", "ば", "バ"),
			nai,
		),
		"静かな町": seq(
			tk("静か", "名詞", "形容動詞語幹", "静か", "シズカ"),
			conj(tk("な", "助動詞", "", "だ", "ナ"), "特殊・ダ", "体言接続"),
			tk("町", "名詞", "一般", "町", "マチ"),
		),
		"じゃない": seq(
			tk("じゃ", "助詞", "副助詞", "じゃ", "ジャ"),
			nai,
		),
		"だろう": seq(
			conj(tk("だろ", "助動詞", "", "だ", "ダロ"), "特殊・ダ", "未然形"),
			conj(tk("う", "助動詞", "", "う", "ウ"), "不変化型", "基本形"),
		),
	}
	r := newResolver(tok, sampleDict)

	cases := []struct {
		text     string
		surfaces []string
		lemma    string
		category model.Category
	}{
		{"勉強します", []string{"勉強します"}, "勉強する", model.CategoryNoun},
		{"食べませんでした", []string{"食べませんでした"}, "食べる", model.CategoryVerb},
		{"行けばない", []string{"行けば", "ない"}, "行く", model.CategoryVerb},
		{"静かな町", []string{"静かな", "町"}, "静か", model.CategoryAdjective},
		{"じゃない", []string{"じゃない"}, "じゃない", model.CategoryUnclassified},
		{"だろう", []string{"だろう"}, "だろう", model.CategoryUnclassified},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			toks := resolveText(t, r, tc.text)
			assert.Equal(t, tc.surfaces, surfaces(toks))
			assert.Equal(t, tc.lemma, toks[0].Lemma)
			assert.Equal(t, tc.category, toks[0].Category)
		})
	}
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newResolver(corpus, sampleDict).Resolve(ctx, "食べない")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveTokenizerError(t *testing.T) {
	_, err := newResolver(corpus, sampleDict).Resolve(context.Background(), "未知")
	assert.ErrorContains(t, err, "tokenize")
}

func TestResolveConcurrent(t *testing.T) {
	cache, err := dictionary.NewLRUCache(sampleDict, 8)
	require.NoError(t, err)
	r := newResolver(corpus, cache)

	want := make(map[string][]model.ResolvedToken, len(corpus))
	for text := range corpus {
		want[text] = resolveText(t, newResolver(corpus, sampleDict), text)
	}

	for i := range 8 {
		t.Run(fmt.Sprintf("worker%d", i), func(t *testing.T) {
			t.Parallel()
			for range 20 {
				for text, exp := range want {
					got, err := r.Resolve(context.Background(), text)
					require.NoError(t, err)
					assert.Equal(t, exp, got, text)
				}
			}
		})
	}
}
