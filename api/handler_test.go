package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"japanesedict/analyze"
	"japanesedict/dictionary"
	"japanesedict/ingest"
	"japanesedict/kanji"
	"japanesedict/model"
)

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, text string) (analyze.Analysis, error) {
	s, err := ingest.NewSentence(text)
	if err != nil {
		return analyze.Analysis{}, err
	}
	return analyze.Analysis{SentenceID: s.ID, Text: s.Text, TokenCount: 1}, nil
}

type fakeResolver map[string][]model.ResolvedToken

func (f fakeResolver) Resolve(_ context.Context, text string) ([]model.ResolvedToken, error) {
	return f[text], nil
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	dict := dictionary.NewMemoryIndex(model.Entry{
		ID:       1358280,
		Source:   dictionary.SourceJMdict,
		Headings: []model.Heading{{Spelling: "食べる", Reading: "たべる", Furigana: "食.べる;た."}},
		Glosses:  []string{"to eat"},
	})
	kd := kanji.New()
	kd.Add(kanji.Character{Literal: "食", OnReadings: []string{"ショク"}, KunReadings: []string{"た.べる"}, Strokes: 9})
	res := fakeResolver{
		"食べなかった": {{Surface: "食べなかった", Lemma: "食べる", Category: model.CategoryVerb}},
		"猫":      {{Surface: "猫", Lemma: "猫", Category: model.CategoryNoun}},
	}
	mux := http.NewServeMux()
	New(fakeAnalyzer{}, res, dict, kd, 5).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response: %d %v", resp.StatusCode, body)
	}
}

func TestAnalyze(t *testing.T) {
	srv := newServer(t)
	cases := []struct {
		name, body string
		status     int
	}{
		{"ok", `{"text":"食べない"}`, http.StatusOK},
		{"blank", `{"text":"   "}`, http.StatusBadRequest},
		{"malformed", `{"text":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/analyze", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			var body map[string]any
			decode(t, resp, &body)
			if resp.StatusCode != tc.status {
				t.Errorf("expected %d, got %d: %v", tc.status, resp.StatusCode, body)
			}
			if tc.status == http.StatusOK && body["text"] != "食べない" {
				t.Errorf("unexpected analysis: %v", body)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Post(srv.URL+"/api/resolve", "application/json", strings.NewReader(`{"text":"食べなかった"}`))
	if err != nil {
		t.Fatal(err)
	}
	var body struct {
		Tokens []model.ResolvedToken `json:"tokens"`
	}
	decode(t, resp, &body)
	if len(body.Tokens) != 1 || body.Tokens[0].Lemma != "食べる" {
		t.Errorf("unexpected tokens: %+v", body.Tokens)
	}
}

func TestSearch(t *testing.T) {
	srv := newServer(t)
	cases := []struct {
		name, query string
		status      int
	}{
		{"exact", "?q=" + url.QueryEscape("たべる"), http.StatusOK},
		{"inflected", "?q=" + url.QueryEscape("食べなかった"), http.StatusOK},
		{"missing", "?q=" + url.QueryEscape("猫"), http.StatusNotFound},
		{"no query", "", http.StatusBadRequest},
		{"bad limit", "?limit=x&q=" + url.QueryEscape("たべる"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/search" + tc.query)
			if err != nil {
				t.Fatal(err)
			}
			var body struct {
				Entries []model.Entry `json:"entries"`
			}
			decode(t, resp, &body)
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			if tc.status == http.StatusOK && (len(body.Entries) != 1 || body.Entries[0].Lemma() != "食べる") {
				t.Errorf("unexpected entries: %+v", body.Entries)
			}
		})
	}
}

func TestKanji(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/api/kanji/" + url.PathEscape("食"))
	if err != nil {
		t.Fatal(err)
	}
	var c kanji.Character
	decode(t, resp, &c)
	if resp.StatusCode != http.StatusOK || c.Strokes != 9 {
		t.Errorf("unexpected kanji response: %d %+v", resp.StatusCode, c)
	}

	resp, err = http.Get(srv.URL + "/api/kanji/" + url.PathEscape("猫"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
