package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"japanesedict/analyze"
	"japanesedict/dictionary"
	"japanesedict/ingest"
	"japanesedict/kanji"
	"japanesedict/logger"
	"japanesedict/model"
)

const maxBodyBytes = 64 << 10

// Analyzer runs the full sentence pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (analyze.Analysis, error)
}

// Resolver turns text into resolved tokens.
type Resolver interface {
	Resolve(ctx context.Context, text string) ([]model.ResolvedToken, error)
}

// KanjiSource looks up single kanji.
type KanjiSource interface {
	Lookup(literal string) (kanji.Character, error)
}

// Handler implements all HTTP endpoints.
type Handler struct {
	analyzer Analyzer
	resolver Resolver
	oracle   dictionary.Oracle
	kanji    KanjiSource
	limit    int
	log      *slog.Logger
}

// New creates a Handler. limit caps search results.
func New(a Analyzer, r Resolver, o dictionary.Oracle, k KanjiSource, limit int) *Handler {
	if limit <= 0 {
		limit = dictionary.DefaultLookupLimit
	}
	return &Handler{
		analyzer: a,
		resolver: r,
		oracle:   o,
		kanji:    k,
		limit:    limit,
		log:      logger.WithComponent("api"),
	}
}

// Register mounts routes on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /api/analyze", h.analyze)
	mux.HandleFunc("POST /api/resolve", h.resolve)
	mux.HandleFunc("GET /api/search", h.search)
	mux.HandleFunc("GET /api/kanji/{literal}", h.kanjiLookup)
}

// ---------- endpoints ----------

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type textRequest struct {
	Text string `json:"text"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	res, err := h.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeText(w, r)
	if !ok {
		return
	}
	toks, err := h.resolver.Resolve(r.Context(), req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": toks})
}

// search looks q up exactly. When q is not a headword the query is resolved
// and the lemma of its first token is tried instead, so inflected input such
// as 食べなかった finds 食べる.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeErr(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := h.limit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErr(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, h.limit)
	}

	entries, err := dictionary.Lookup(r.Context(), h.oracle, q, limit)
	if errors.Is(err, dictionary.ErrNotFound) && h.resolver != nil {
		var toks []model.ResolvedToken
		toks, err = h.resolver.Resolve(r.Context(), q)
		switch {
		case err != nil:
		case len(toks) == 0 || toks[0].Lemma == q:
			err = dictionary.ErrNotFound
		default:
			entries, err = dictionary.Lookup(r.Context(), h.oracle, toks[0].Lemma, limit)
		}
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "entries": entries})
}

func (h *Handler) kanjiLookup(w http.ResponseWriter, r *http.Request) {
	c, err := h.kanji.Lookup(r.PathValue("literal"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ---------- helpers ----------

func (h *Handler) decodeText(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

// fail maps domain errors to HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dictionary.ErrNotFound), errors.Is(err, kanji.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ingest.ErrEmptySentence):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("request failed", "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
