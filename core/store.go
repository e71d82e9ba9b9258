package core

import (
	"context"
	"sort"
)

type (
	// Record is a single row of a collection, keyed by column name.
	Record map[string]interface{}

	// Filter is a conjunction of equality predicates on columns.
	// A slice value means IN, a nil value means IS NULL.
	Filter map[string]interface{}

	// KeyedPatch is a partial update of the record identified by ID.
	KeyedPatch struct {
		ID    string
		Patch Record
	}

	// RecordStore is the structured-record persistence collaborator.
	RecordStore interface {
		Select(ctx context.Context, collection string, where Filter, ordering ...DBOrdering) ([]Record, error)
		// Insert assigns an "id" to the record when it has none and returns the stored record.
		Insert(ctx context.Context, collection string, rec Record) (Record, error)
		Update(ctx context.Context, collection string, where Filter, patch Record) (int, error)
		Delete(ctx context.Context, collection string, where Filter) (int, error)
		// BatchUpdate applies all patches or none.
		BatchUpdate(ctx context.Context, collection string, patches []KeyedPatch) error
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

func Asc(field string) DBOrdering  { return DBOrdering{Field: field, Ascending: true} }
func Desc(field string) DBOrdering { return DBOrdering{Field: field} }

// String returns the value of a string column, or "" if unset.
func (r Record) String(col string) string {
	switch v := r[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// Int returns the value of an integer column, or 0 if unset.
func (r Record) Int(col string) int {
	switch v := r[col].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Bool returns the value of a boolean column, or false if unset.
func (r Record) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

// Bytes returns the raw value of a binary/json column.
func (r Record) Bytes(col string) []byte {
	switch v := r[col].(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Columns returns the record's column names, sorted.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Columns returns the filter's column names, sorted.
func (f Filter) Columns() []string {
	cols := make([]string, 0, len(f))
	for k := range f {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
