package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrConditionFailed = errors.New("write condition failed")
)

// Document is the field map persisted for a single record.
type Document map[string]any

// Store abstracts the document store shared by every engine.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, q Query) ([]Document, error)
	Commit(ctx context.Context, b *Batch) error
}

// Operator is a query filter operator.
type Operator string

const (
	OpEqual         Operator = "=="
	OpArrayContains Operator = "array-contains"
	OpIn            Operator = "in"
)

// Filter restricts a query to documents whose field matches a value.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Where builds a Filter.
func Where(field string, op Operator, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query describes a collection scan.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// WriteKind identifies the type of a batched write.
type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteSet
	WriteUpdate
	WriteDelete
	WriteDeleteExisting
)

func (k WriteKind) String() string {
	switch k {
	case WriteCreate:
		return "create"
	case WriteSet:
		return "set"
	case WriteUpdate:
		return "update"
	case WriteDelete:
		return "delete"
	case WriteDeleteExisting:
		return "delete_existing"
	default:
		return "unknown"
	}
}

// Write is one record change inside a Batch.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       Document
	Fields     map[string]any
	Conditions []Condition
}

// Batch collects writes that must be committed together.
type Batch struct {
	writes []Write
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Create adds a write that fails if the document already exists.
func (b *Batch) Create(collection, id string, doc Document) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteCreate, Collection: collection, ID: id, Data: doc})
	return b
}

// Set adds a write that replaces the document, creating it if needed.
func (b *Batch) Set(collection, id string, doc Document) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteSet, Collection: collection, ID: id, Data: doc})
	return b
}

// Update adds a field-level write against an existing document. Field values may be transforms.
func (b *Batch) Update(collection, id string, fields map[string]any, conds ...Condition) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteUpdate, Collection: collection, ID: id, Fields: fields, Conditions: conds})
	return b
}

// Delete removes a document; deleting a missing document is a no-op.
func (b *Batch) Delete(collection, id string) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteDelete, Collection: collection, ID: id})
	return b
}

// DeleteExisting removes a document that must exist and satisfy conds.
func (b *Batch) DeleteExisting(collection, id string, conds ...Condition) *Batch {
	b.writes = append(b.writes, Write{Kind: WriteDeleteExisting, Collection: collection, ID: id, Conditions: conds})
	return b
}

// Len reports the number of writes in the batch.
func (b *Batch) Len() int {
	return len(b.writes)
}

// Writes returns the batched writes in order.
func (b *Batch) Writes() []Write {
	return b.writes
}

// Transform is a store-side field mutation applied against the current value.
type Transform interface {
	apply(current any) (any, error)
}

type increment struct{ n int64 }

// Increment adds n to a numeric field, treating a missing field as zero.
func Increment(n int64) Transform {
	return increment{n: n}
}

func (t increment) apply(current any) (any, error) {
	if current == nil {
		return float64(t.n), nil
	}
	v, ok := toFloat(current)
	if !ok {
		return nil, fmt.Errorf("increment non-numeric value %T", current)
	}
	return v + float64(t.n), nil
}

type arrayUnion struct{ values []string }

// ArrayUnion adds each value to an array field unless already present.
func ArrayUnion(values ...string) Transform {
	return arrayUnion{values: values}
}

func (t arrayUnion) apply(current any) (any, error) {
	arr, err := toStrings(current)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(arr))
	for _, v := range arr {
		seen[v] = struct{}{}
	}
	for _, v := range t.values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		arr = append(arr, v)
	}
	return fromStrings(arr), nil
}

type arrayRemove struct{ values []string }

// ArrayRemove drops every occurrence of each value from an array field.
func ArrayRemove(values ...string) Transform {
	return arrayRemove{values: values}
}

func (t arrayRemove) apply(current any) (any, error) {
	arr, err := toStrings(current)
	if err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(t.values))
	for _, v := range t.values {
		drop[v] = struct{}{}
	}
	kept := arr[:0]
	for _, v := range arr {
		if _, ok := drop[v]; !ok {
			kept = append(kept, v)
		}
	}
	return fromStrings(kept), nil
}

// ConditionKind identifies a guarded-write check.
type ConditionKind int

const (
	CondEquals ConditionKind = iota
	CondArrayHas
	CondArrayLacks
)

// Condition is evaluated against the current document before a guarded write applies.
type Condition struct {
	Kind  ConditionKind
	Field string
	Value any
}

// FieldEquals requires field to equal value.
func FieldEquals(field string, value any) Condition {
	return Condition{Kind: CondEquals, Field: field, Value: value}
}

// ArrayHas requires the array at field to contain value.
func ArrayHas(field, value string) Condition {
	return Condition{Kind: CondArrayHas, Field: field, Value: value}
}

// ArrayLacks requires the array at field not to contain value.
func ArrayLacks(field, value string) Condition {
	return Condition{Kind: CondArrayLacks, Field: field, Value: value}
}

func (c Condition) check(doc Document) error {
	current := lookup(doc, c.Field)
	switch c.Kind {
	case CondEquals:
		if !valuesEqual(current, c.Value) {
			return fmt.Errorf("%w: %s != %v", ErrConditionFailed, c.Field, c.Value)
		}
	case CondArrayHas, CondArrayLacks:
		arr, err := toStrings(current)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConditionFailed, err)
		}
		want, _ := c.Value.(string)
		found := false
		for _, v := range arr {
			if v == want {
				found = true
				break
			}
		}
		if found != (c.Kind == CondArrayHas) {
			return fmt.Errorf("%w: %s membership of %s", ErrConditionFailed, c.Field, want)
		}
	}
	return nil
}

// applyUpdate returns a copy of doc with fields applied. Dotted keys address nested maps.
func applyUpdate(doc Document, fields map[string]any, conds []Condition) (Document, error) {
	for _, c := range conds {
		if err := c.check(doc); err != nil {
			return nil, err
		}
	}
	out := cloneDocument(doc)
	for path, value := range fields {
		if t, ok := value.(Transform); ok {
			next, err := t.apply(lookup(out, path))
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", path, err)
			}
			value = next
		} else {
			value = normalize(value)
		}
		if err := assign(out, path, value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func lookup(doc Document, path string) any {
	var cur any = map[string]any(doc)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func assign(doc Document, path string, value any) error {
	parts := strings.Split(path, ".")
	cur := map[string]any(doc)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			if cur[part] != nil {
				return fmt.Errorf("field %s: %s is not a map", path, part)
			}
			next = map[string]any{}
		}
		cur[part] = next
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

func toStrings(v any) ([]string, error) {
	switch arr := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), arr...), nil
	case []any:
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("array element %T is not a string", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value %T is not an array", v)
	}
}

func fromStrings(arr []string) []any {
	out := make([]any, len(arr))
	for i, s := range arr {
		out[i] = s
	}
	return out
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, normalize(b))
}
