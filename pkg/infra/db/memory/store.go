// Package memory implements the store port over process memory. It backs
// tests and MONGOURL=memory local runs, and supports exactly the filter
// subset the core issues: equality, $in, and $elemMatch.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Store holds collections of documents in insertion order.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]entities.Doc
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string][]entities.Doc)}
}

var _ out.Store = (*Store)(nil)

// Insert seeds documents; primarily a test helper.
func (s *Store) Insert(collection string, docs ...entities.Doc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.collections[collection] = append(s.collections[collection], copyDoc(doc))
	}
}

func (s *Store) FindOne(ctx context.Context, collection string, filter entities.Doc) (entities.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

func (s *Store) FindAll(ctx context.Context, collection string, filter entities.Doc, opts *out.FindOptions) ([]entities.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var found []entities.Doc
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			found = append(found, copyDoc(doc))
		}
	}
	s.mu.RUnlock()

	if opts != nil && len(opts.Sort) > 0 {
		sort.SliceStable(found, func(i, j int) bool {
			for _, sf := range opts.Sort {
				c := compareValues(found[i][sf.Field], found[j][sf.Field])
				if c == 0 {
					continue
				}
				if sf.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if opts != nil && opts.Limit > 0 && int64(len(found)) > opts.Limit {
		found = found[:opts.Limit]
	}
	return found, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter entities.Doc) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CollectField(ctx context.Context, collection string, filter entities.Doc, field string) ([]string, error) {
	docs, err := s.FindAll(ctx, collection, filter, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var ids []string
	push := func(v string) {
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		ids = append(ids, v)
	}
	for _, doc := range docs {
		switch v := doc[field].(type) {
		case string:
			push(v)
		default:
			for _, item := range entities.GetStrings(doc, field) {
				push(item)
			}
		}
	}
	return ids, nil
}

func (s *Store) BulkWrite(ctx context.Context, collection string, ops []out.UpdateOp) (out.BulkResult, error) {
	var res out.BulkResult
	if err := ctx.Err(); err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		idx := -1
		for i, doc := range s.collections[collection] {
			if matches(doc, op.Filter) {
				idx = i
				break
			}
		}
		switch {
		case idx >= 0:
			res.Matched++
			doc := s.collections[collection][idx]
			if op.Replace != nil {
				s.collections[collection][idx] = copyDoc(op.Replace)
			} else {
				applyMutations(doc, op)
			}
			res.Modified++
		case op.Upsert:
			doc := entities.Doc{}
			for k, v := range op.Filter {
				if _, isOp := v.(entities.Doc); !isOp {
					doc[k] = v
				}
			}
			if op.Replace != nil {
				doc = copyDoc(op.Replace)
			} else {
				applyMutations(doc, op)
			}
			s.collections[collection] = append(s.collections[collection], doc)
			res.Upserted++
		}
	}
	return res, nil
}

func (s *Store) CollectionExists(ctx context.Context, collection string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// EnsureIndexes is a no-op: the in-memory store scans.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	return ctx.Err()
}

// applyMutations applies the granular update operators in the order
// Pull, Unset, Set, AddToSet.
func applyMutations(doc entities.Doc, op out.UpdateOp) {
	for field, v := range op.Pull {
		arr := entities.GetStrings(doc, field)
		kept := arr[:0:0]
		for _, item := range arr {
			if item != v {
				kept = append(kept, item)
			}
		}
		doc[field] = kept
	}
	for _, path := range op.Unset {
		unsetPath(doc, path)
	}
	for path, v := range op.Set {
		setPath(doc, path, v)
	}
	for field, v := range op.AddToSet {
		val, _ := v.(string)
		arr := entities.GetStrings(doc, field)
		present := false
		for _, item := range arr {
			if item == val {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, val)
		}
		doc[field] = arr
	}
}

// setPath writes a value at a possibly dotted path. Only one level of
// nesting occurs in practice (the per-relation key maps); everything after
// the first dot is the nested key.
func setPath(doc entities.Doc, path string, v any) {
	field, rest, nested := strings.Cut(path, ".")
	if !nested {
		doc[field] = v
		return
	}
	sub := entities.AsDoc(doc[field])
	if sub == nil {
		sub = entities.Doc{}
	}
	sub[rest] = v
	doc[field] = sub
}

func unsetPath(doc entities.Doc, path string) {
	field, rest, nested := strings.Cut(path, ".")
	if !nested {
		delete(doc, field)
		return
	}
	if sub := entities.AsDoc(doc[field]); sub != nil {
		delete(sub, rest)
		doc[field] = sub
	}
}

// matches evaluates the supported filter subset against a document.
func matches(doc entities.Doc, filter entities.Doc) bool {
	for field, cond := range filter {
		if sub := entities.AsDoc(cond); sub != nil {
			if in, ok := sub["$in"]; ok {
				if !valueIn(doc[field], in) {
					return false
				}
				continue
			}
			if em, ok := sub["$elemMatch"]; ok {
				if !elemMatches(doc[field], entities.AsDoc(em)) {
					return false
				}
				continue
			}
			// Nested document equality is not part of the supported subset.
			return false
		}
		if !equalValues(doc[field], cond) {
			return false
		}
	}
	return true
}

func valueIn(v any, list any) bool {
	candidates := entities.AsArray(list)
	if ss, ok := list.([]string); ok {
		for _, s := range ss {
			candidates = append(candidates, s)
		}
	}
	for _, c := range candidates {
		if equalValues(v, c) {
			return true
		}
	}
	return false
}

func elemMatches(v any, cond entities.Doc) bool {
	if cond == nil {
		return false
	}
	for _, entry := range entities.AsArray(v) {
		if d := entities.AsDoc(entry); d != nil && matches(d, cond) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if na, aok := toFloat(a); aok {
		nb, bok := toFloat(b)
		return bok && na == nb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compareValues(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		tb, _ := b.(time.Time)
		switch {
		case ta.Before(tb):
			return -1
		case ta.After(tb):
			return 1
		default:
			return 0
		}
	}
	if na, ok := toFloat(a); ok {
		nb, _ := toFloat(b)
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	sa, _ := a.(string)
	sb, _ := b.(string)
	return strings.Compare(sa, sb)
}

func copyDoc(doc entities.Doc) entities.Doc {
	if doc == nil {
		return nil
	}
	out := make(entities.Doc, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case entities.Doc:
		return copyDoc(val)
	case map[string]string:
		m := make(map[string]string, len(val))
		for k, s := range val {
			m[k] = s
		}
		return m
	case []string:
		return append([]string{}, val...)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []entities.Doc:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyDoc(item)
		}
		return out
	default:
		return v
	}
}
