package dictionary

import (
	"context"
	"errors"

	"japanesedict/model"
)

// DefaultLookupLimit caps the entries returned per exact lookup.
const DefaultLookupLimit = 10

// ErrNotFound is returned when no entry matches a lookup.
var ErrNotFound = errors.New("dictionary entry not found")

// Oracle answers exact headword queries. Each returned entry has at least one
// heading whose spelling or reading equals one of the queried spans. Entries
// are ordered common first, then by ascending ID, whatever span matched them.
// A limit <= 0 means no limit.
type Oracle interface {
	LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error)
}

// Writer persists entries, replacing any existing entry with the same ID.
type Writer interface {
	Write(ctx context.Context, entries []model.Entry) error
}

// Clearer removes every stored entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Store is a queryable, writable entry store.
type Store interface {
	Oracle
	Writer
	Count(ctx context.Context) (int, error)
}

// Lookup returns the entries matching span exactly, or ErrNotFound.
func Lookup(ctx context.Context, o Oracle, span string, limit int) ([]model.Entry, error) {
	entries, err := o.LookupExact(ctx, []string{span}, limit)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}
