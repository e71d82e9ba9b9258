package dummydb

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lessons/core"
)

func setup(t *testing.T) *DB {
	db, err := Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return db
}

func insert(t *testing.T, db *DB, collection string, rec core.Record) core.Record {
	rec, err := db.Insert(context.Background(), collection, rec)
	if err != nil {
		t.Fatalf("insert() failed: %v", err)
	}
	return rec
}

func ids(recs []core.Record) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.String("id")
	}
	return out
}

func TestDB_InsertSelect(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	a := insert(t, db, core.CollActivities, core.Record{"lesson_id": "l1", "order": 1, "type": "reading"})
	insert(t, db, core.CollActivities, core.Record{"id": "b", "lesson_id": "l1", "order": 0, "type": "image"})
	insert(t, db, core.CollActivities, core.Record{"id": "c", "lesson_id": "l2", "order": 0, "type": "image", "published": "Yes"})

	assert.NotEmpty(t, a.String("id"))
	assert.Nil(t, a["published"], "missing columns are NULL")
	assert.Contains(t, a, "name")

	tests := []struct {
		name     string
		where    core.Filter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all in insertion order", want: []string{a.String("id"), "b", "c"}},
		{name: "equality", where: core.Filter{"lesson_id": "l1"}, ordering: []core.DBOrdering{core.Asc("order")}, want: []string{"b", a.String("id")}},
		{name: "int equality", where: core.Filter{"order": 0}, ordering: []core.DBOrdering{core.Desc("id")}, want: []string{"c", "b"}},
		{name: "in", where: core.Filter{"id": []string{"b", "c", "zzz"}}, want: []string{"b", "c"}},
		{name: "is null", where: core.Filter{"published": nil}, want: []string{a.String("id"), "b"}},
		{name: "no match", where: core.Filter{"lesson_id": "l3"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := db.Select(ctx, core.CollActivities, tt.where, tt.ordering...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(recs))
		})
	}

	t.Run("returned records are copies", func(t *testing.T) {
		recs, err := db.Select(ctx, core.CollActivities, core.Filter{"id": "b"})
		require.NoError(t, err)
		recs[0]["order"] = 99
		recs, err = db.Select(ctx, core.CollActivities, core.Filter{"id": "b"})
		require.NoError(t, err)
		assert.Equal(t, 0, recs[0].Int("order"))
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := db.Insert(ctx, core.CollActivities, core.Record{"id": "b"})
		assert.True(t, core.IsPersistence(err))
	})
}

func TestDB_SchemaChecks(t *testing.T) {
	db := setup(t)
	ctx := context.Background()

	_, err := db.Select(ctx, "lessons", nil)
	assert.True(t, core.IsPersistence(err))
	assert.True(t, errors.Is(err, core.ErrUnknownCollection))

	_, err = db.Insert(ctx, core.CollReadings, core.Record{"colour": "red"})
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))

	_, err = db.Select(ctx, core.CollReadings, nil, core.Asc("colour"))
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))

	_, err = db.Update(ctx, core.CollReadings, nil, core.Record{"colour": "red"})
	assert.True(t, errors.Is(err, core.ErrUnknownColumn))
}

func TestDB_UpdateDelete(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		insert(t, db, core.CollLessonPlanDirections, core.Record{"id": id, "activity_id": "x", "lesson_plan_id": "p"})
	}

	n, err := db.Update(ctx, core.CollLessonPlanDirections, core.Filter{"id": []string{"a", "b"}}, core.Record{"activity_id": nil, "id": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	recs, err := db.Select(ctx, core.CollLessonPlanDirections, core.Filter{"activity_id": nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(recs))

	n, err = db.Delete(ctx, core.CollLessonPlanDirections, core.Filter{"activity_id": "x"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = db.Delete(ctx, core.CollLessonPlanDirections, core.Filter{"activity_id": "x"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	insert(t, db, core.CollLessonPlanDirections, core.Record{"id": "d"})
	recs, err = db.Select(ctx, core.CollLessonPlanDirections, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, ids(recs))
}

func TestDB_BatchUpdate(t *testing.T) {
	db := setup(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		insert(t, db, core.CollActivities, core.Record{"id": id, "lesson_id": "l", "order": i})
	}
	orders := func() []int {
		recs, err := db.Select(ctx, core.CollActivities, nil)
		require.NoError(t, err)
		out := make([]int, len(recs))
		for i, rec := range recs {
			out[i] = rec.Int("order")
		}
		return out
	}

	err := db.BatchUpdate(ctx, core.CollActivities, []core.KeyedPatch{
		{ID: "a", Patch: core.Record{"order": 2}},
		{ID: "c", Patch: core.Record{"order": 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, orders())

	t.Run("all or nothing", func(t *testing.T) {
		err := db.BatchUpdate(ctx, core.CollActivities, []core.KeyedPatch{
			{ID: "a", Patch: core.Record{"order": 5}},
			{ID: "missing", Patch: core.Record{"order": 6}},
		})
		assert.True(t, errors.Is(err, ErrRecordNotFound))
		assert.Equal(t, []int{2, 1, 0}, orders())
	})
}
