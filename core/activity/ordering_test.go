package activity

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(voc Vocabulary) []string {
	ws := make([]string, len(voc.Items))
	for i, item := range voc.Items {
		ws[i] = item.Word
	}
	return ws
}

func assertVocabOrders(t *testing.T, voc Vocabulary) {
	t.Helper()
	for i, item := range voc.Items {
		assert.Equal(t, i, item.Order, "vocab_order of %q", item.Word)
	}
}

func TestVocabularyEditor_MoveItem(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		dir     MoveDirection
		want    []string
		wantErr error
	}{
		{name: "last up", index: 2, dir: Up, want: []string{"x", "z", "y"}},
		{name: "first down", index: 0, dir: Down, want: []string{"y", "x", "z"}},
		{name: "first up", index: 0, dir: Up, wantErr: ErrOutOfRange},
		{name: "last down", index: 2, dir: Down, wantErr: ErrOutOfRange},
		{name: "bad index", index: 5, dir: Up, wantErr: ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewVocabularyEditor(Vocabulary{Items: []VocabularyItem{{Word: "x"}, {Word: "y"}, {Word: "z"}}})
			err := e.MoveItem(tt.index, tt.dir)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				assert.Equal(t, []string{"x", "y", "z"}, words(e.Vocabulary()))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, words(e.Vocabulary()))
			assertVocabOrders(t, e.Vocabulary())
		})
	}
}

func TestVocabularyEditor_AddRemoveUpdate(t *testing.T) {
	e := NewVocabularyEditor(Vocabulary{Items: []VocabularyItem{{ID: "1", Word: "x", Order: 9}}})
	assertVocabOrders(t, e.Vocabulary())

	e.AddItem(VocabularyItem{Word: "y"})
	e.AddItem(VocabularyItem{Word: "z"})
	require.NoError(t, e.UpdateItem(0, VocabularyItem{Word: "w", Definition: "double u"}))
	voc := e.Vocabulary()
	assert.Equal(t, []string{"w", "y", "z"}, words(voc))
	assert.Equal(t, "1", voc.Items[0].ID, "updates keep the identity")
	assertVocabOrders(t, voc)

	require.NoError(t, e.RemoveItem(1))
	require.NoError(t, e.RemoveItem(1))
	assert.Equal(t, []string{"w"}, words(e.Vocabulary()))
	assertVocabOrders(t, e.Vocabulary())

	err := e.RemoveItem(0)
	assert.Equal(t, ErrMinimumItems, errors.Cause(err))
	assert.Equal(t, 1, e.Len())

	assert.Equal(t, ErrOutOfRange, errors.Cause(e.UpdateItem(3, VocabularyItem{})))
}

func TestVocabularyEditor_DoesNotAlias(t *testing.T) {
	orig := Vocabulary{Items: []VocabularyItem{{Word: "x"}, {Word: "y"}}}
	e := NewVocabularyEditor(orig)
	require.NoError(t, e.MoveItem(0, Down))
	assert.Equal(t, []string{"x", "y"}, words(orig))
}

func TestQuizEditor(t *testing.T) {
	quiz := Quiz{Questions: []Question{
		{Text: "Q1", Choices: []Choice{{Text: "a"}, {Text: "b"}}},
		{Text: "Q2", Choices: []Choice{{Text: "c"}, {Text: "d"}, {Text: "e"}}},
	}}
	e := NewQuizEditor(quiz)

	texts := func(q Question) []string {
		ts := make([]string, len(q.Choices))
		for i, c := range q.Choices {
			ts[i] = c.Text
			assert.Equal(t, i, c.Order)
		}
		return ts
	}

	t.Run("choices are reordered per question", func(t *testing.T) {
		require.NoError(t, e.MoveChoice(0, 0, Down))
		got := e.Quiz()
		assert.Equal(t, []string{"b", "a"}, texts(got.Questions[0]))
		assert.Equal(t, []string{"c", "d", "e"}, texts(got.Questions[1]))
		assert.Equal(t, []string{"a", "b"}, texts(quiz.Questions[0]), "input is not modified")
	})

	t.Run("question moves carry their choices", func(t *testing.T) {
		require.NoError(t, e.MoveQuestion(0, Down))
		got := e.Quiz()
		assert.Equal(t, "Q2", got.Questions[0].Text)
		assert.Equal(t, 0, got.Questions[0].Order)
		assert.Equal(t, 1, got.Questions[1].Order)
		assert.Equal(t, []string{"b", "a"}, texts(got.Questions[1]))
	})

	t.Run("add and remove", func(t *testing.T) {
		require.NoError(t, e.AddChoice(0, Choice{Text: "f", IsCorrect: true}))
		require.NoError(t, e.RemoveChoice(0, 0))
		assert.Equal(t, []string{"d", "e", "f"}, texts(e.Quiz().Questions[0]))

		e.AddQuestion(Question{Text: "Q3", Choices: []Choice{{Text: "g", Order: 4}}})
		assert.Equal(t, 3, e.Len())
		assert.Equal(t, 2, e.Quiz().Questions[2].Order)
		assert.Equal(t, []string{"g"}, texts(e.Quiz().Questions[2]))

		require.NoError(t, e.RemoveQuestion(0))
		require.NoError(t, e.RemoveQuestion(0))
		assert.Equal(t, ErrMinimumItems, errors.Cause(e.RemoveQuestion(0)))
	})

	t.Run("choices may be emptied", func(t *testing.T) {
		require.NoError(t, e.RemoveChoice(0, 0))
		assert.Empty(t, e.Quiz().Questions[0].Choices)
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Equal(t, ErrOutOfRange, errors.Cause(e.MoveQuestion(0, Up)))
		assert.Equal(t, ErrOutOfRange, errors.Cause(e.MoveChoice(4, 0, Down)))
		assert.Equal(t, ErrOutOfRange, errors.Cause(e.RemoveChoice(0, 3)))
		assert.Equal(t, ErrOutOfRange, errors.Cause(e.AddChoice(-1, Choice{})))
	})
}

func TestMoveTo(t *testing.T) {
	acts := func(names ...string) []Activity {
		out := make([]Activity, len(names))
		for i, n := range names {
			out[i] = Activity{ID: n, Name: n, Order: i}
		}
		return out
	}
	names := func(as []Activity) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.Name
		}
		return out
	}

	got := MoveTo(acts("A", "B", "C", "D"), 3, 1)
	assert.Equal(t, []string{"A", "D", "B", "C"}, names(got))

	patches := Renumber(got)
	assert.Len(t, patches, 3, "only changed rows are written")
	for i, a := range got {
		assert.Equal(t, i, a.Order)
	}
	assert.Empty(t, Renumber(got))
}
