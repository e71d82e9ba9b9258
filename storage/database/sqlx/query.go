package sqlxstore

import (
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/trezcool/masomo-lessons/core"
)

// query accumulates a statement and its positional arguments.
type query struct {
	sb   strings.Builder
	args []interface{}
}

func (q *query) write(s ...string) {
	for _, str := range s {
		q.sb.WriteString(str)
	}
}

func (q *query) bind(v interface{}) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *query) String() string { return q.sb.String() }

func (q *query) where(where core.Filter) {
	cols := where.Columns()
	if len(cols) == 0 {
		return
	}
	q.write(" WHERE ")
	for i, col := range cols {
		if i > 0 {
			q.write(" AND ")
		}
		ident := pq.QuoteIdentifier(col)
		switch v := where[col].(type) {
		case nil:
			q.write(ident, " IS NULL")
		case []string:
			q.write(ident, " = ANY(", q.bind(pq.Array(v)), ")")
		case []int:
			ints := make([]int64, len(v))
			for j, n := range v {
				ints[j] = int64(n)
			}
			q.write(ident, " = ANY(", q.bind(pq.Array(ints)), ")")
		case []interface{}:
			q.write(ident, " = ANY(", q.bind(pq.Array(v)), ")")
		default:
			q.write(ident, " = ", q.bind(v))
		}
	}
}

func buildSelect(collection string, where core.Filter, ordering []core.DBOrdering) *query {
	q := new(query)
	q.write("SELECT * FROM ", pq.QuoteIdentifier(collection))
	q.where(where)
	for i, ord := range ordering {
		if i == 0 {
			q.write(" ORDER BY ")
		} else {
			q.write(", ")
		}
		dir := " DESC"
		if ord.Ascending {
			dir = " ASC"
		}
		q.write(pq.QuoteIdentifier(ord.Field), dir)
	}
	return q
}

func buildInsert(collection string, rec core.Record) *query {
	q := new(query)
	cols := rec.Columns()
	q.write("INSERT INTO ", pq.QuoteIdentifier(collection), " (")
	for i, col := range cols {
		if i > 0 {
			q.write(", ")
		}
		q.write(pq.QuoteIdentifier(col))
	}
	q.write(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			q.write(", ")
		}
		q.write(q.bind(rec[col]))
	}
	q.write(") RETURNING *")
	return q
}

func buildUpdate(collection string, where core.Filter, patch core.Record) *query {
	q := new(query)
	q.write("UPDATE ", pq.QuoteIdentifier(collection), " SET ")
	first := true
	for _, col := range patch.Columns() {
		if col == "id" {
			continue
		}
		if !first {
			q.write(", ")
		}
		first = false
		q.write(pq.QuoteIdentifier(col), " = ", q.bind(patch[col]))
	}
	q.where(where)
	return q
}

func buildDelete(collection string, where core.Filter) *query {
	q := new(query)
	q.write("DELETE FROM ", pq.QuoteIdentifier(collection))
	q.where(where)
	return q
}
