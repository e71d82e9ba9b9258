// Package dummydb is an in-memory core.RecordStore, used by tests and the "memory" storage engine.
package dummydb

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

var ErrRecordNotFound = errors.New("record not found")

type (
	DB struct {
		sync.RWMutex
		tables map[string]*table
	}

	table struct {
		rows map[string]core.Record
		seq  []string // insertion order
	}
)

var _ core.RecordStore = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{tables: make(map[string]*table)}
	for _, coll := range core.Collections() {
		db.tables[coll] = &table{rows: make(map[string]core.Record)}
	}
	return db, nil
}

func (db *DB) table(collection string) (*table, error) {
	tbl, ok := db.tables[collection]
	if !ok {
		return nil, errors.Wrap(core.ErrUnknownCollection, collection)
	}
	return tbl, nil
}

func (tbl *table) query(where core.Filter) []core.Record {
	recs := make([]core.Record, 0)
	for _, id := range tbl.seq {
		if rec := tbl.rows[id]; matches(rec, where) {
			recs = append(recs, rec)
		}
	}
	return recs
}

func (db *DB) Select(_ context.Context, collection string, where core.Filter, ordering ...core.DBOrdering) ([]core.Record, error) {
	db.RLock()
	defer db.RUnlock()

	tbl, err := db.table(collection)
	if err == nil {
		err = checkColumns(collection, where.Columns(), ordering)
	}
	if err != nil {
		return nil, core.NewPersistenceError("select", collection, err)
	}

	recs := tbl.query(where)
	if len(ordering) > 0 {
		sort.SliceStable(recs, func(i, j int) bool {
			for _, ord := range ordering {
				c := compare(recs[i][ord.Field], recs[j][ord.Field])
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	out := make([]core.Record, len(recs))
	for i, rec := range recs {
		out[i] = rec.Clone()
	}
	return out, nil
}

func (db *DB) Insert(_ context.Context, collection string, rec core.Record) (core.Record, error) {
	db.Lock()
	defer db.Unlock()

	tbl, err := db.table(collection)
	if err == nil {
		err = core.CheckColumns(collection, rec.Columns()...)
	}
	if err != nil {
		return nil, core.NewPersistenceError("insert", collection, err)
	}

	row := make(core.Record, len(core.Schema[collection]))
	for _, col := range core.Schema[collection] {
		row[col] = nil
	}
	for col, val := range rec {
		row[col] = normalize(val)
	}
	id := row.String("id")
	if id == "" {
		id = uuid.New().String()
		row["id"] = id
	}
	if _, exists := tbl.rows[id]; exists {
		return nil, core.NewPersistenceError("insert", collection, errors.Errorf("duplicate id %q", id))
	}
	tbl.rows[id] = row
	tbl.seq = append(tbl.seq, id)
	return row.Clone(), nil
}

func (db *DB) Update(_ context.Context, collection string, where core.Filter, patch core.Record) (int, error) {
	db.Lock()
	defer db.Unlock()

	tbl, err := db.table(collection)
	if err == nil {
		err = checkColumns(collection, append(where.Columns(), patch.Columns()...), nil)
	}
	if err != nil {
		return 0, core.NewPersistenceError("update", collection, err)
	}

	recs := tbl.query(where)
	for _, rec := range recs {
		for col, val := range patch {
			if col != "id" {
				rec[col] = normalize(val)
			}
		}
	}
	return len(recs), nil
}

func (db *DB) Delete(_ context.Context, collection string, where core.Filter) (int, error) {
	db.Lock()
	defer db.Unlock()

	tbl, err := db.table(collection)
	if err == nil {
		err = core.CheckColumns(collection, where.Columns()...)
	}
	if err != nil {
		return 0, core.NewPersistenceError("delete", collection, err)
	}

	recs := tbl.query(where)
	if len(recs) == 0 {
		return 0, nil
	}
	deleted := make(map[string]bool, len(recs))
	for _, rec := range recs {
		id := rec.String("id")
		deleted[id] = true
		delete(tbl.rows, id)
	}
	seq := tbl.seq[:0]
	for _, id := range tbl.seq {
		if !deleted[id] {
			seq = append(seq, id)
		}
	}
	tbl.seq = seq
	return len(recs), nil
}

// BatchUpdate checks every patch before applying any of them.
func (db *DB) BatchUpdate(_ context.Context, collection string, patches []core.KeyedPatch) error {
	db.Lock()
	defer db.Unlock()

	tbl, err := db.table(collection)
	if err != nil {
		return core.NewPersistenceError("batch update", collection, err)
	}
	for _, p := range patches {
		if err = core.CheckColumns(collection, p.Patch.Columns()...); err != nil {
			return core.NewPersistenceError("batch update", collection, err)
		}
		if _, ok := tbl.rows[p.ID]; !ok {
			return core.NewPersistenceError("batch update", collection, errors.Wrapf(ErrRecordNotFound, "id %q", p.ID))
		}
	}
	for _, p := range patches {
		rec := tbl.rows[p.ID]
		for col, val := range p.Patch {
			if col != "id" {
				rec[col] = normalize(val)
			}
		}
	}
	return nil
}

func checkColumns(collection string, cols []string, ordering []core.DBOrdering) error {
	for _, ord := range ordering {
		cols = append(cols, ord.Field)
	}
	return core.CheckColumns(collection, cols...)
}

func matches(rec core.Record, where core.Filter) bool {
	for col, want := range where {
		got := rec[col]
		switch w := want.(type) {
		case nil:
			if got != nil {
				return false
			}
		case []string:
			if !containsValue(got, len(w), func(i int) interface{} { return w[i] }) {
				return false
			}
		case []int:
			if !containsValue(got, len(w), func(i int) interface{} { return w[i] }) {
				return false
			}
		case []interface{}:
			if !containsValue(got, len(w), func(i int) interface{} { return w[i] }) {
				return false
			}
		default:
			if got == nil || compare(got, want) != 0 {
				return false
			}
		}
	}
	return true
}

func containsValue(got interface{}, n int, at func(int) interface{}) bool {
	if got == nil {
		return false
	}
	for i := 0; i < n; i++ {
		if compare(got, at(i)) == 0 {
			return true
		}
	}
	return false
}

// normalize stores every integer as int64 and every byte slice as a string.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC()
	}
	return v
}

// compare orders nil first, then compares values of the same kind.
func compare(a, b interface{}) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return cmpInt(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			if x == y {
				return 0
			}
			if !x {
				return -1
			}
			return 1
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			switch {
			case x.Before(y):
				return -1
			case x.After(y):
				return 1
			}
			return 0
		}
	}
	// mismatched kinds never compare equal
	if c := strings.Compare(typeName(a), typeName(b)); c != 0 {
		return c
	}
	return 1
}

func cmpInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func typeName(v interface{}) string {
	switch v.(type) {
	case int64:
		return "int"
	case string:
		return "string"
	case bool:
		return "bool"
	case time.Time:
		return "time"
	}
	return "other"
}
