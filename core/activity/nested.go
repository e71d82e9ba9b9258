package activity

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

// Nested payloads own ordered child collections. They are saved by deleting every child row
// of the parent, then inserting the current list with orders 0..n-1.

func loadVocabulary(ctx context.Context, store core.RecordStore, activityID string) (Payload, error) {
	recs, err := store.Select(ctx, core.CollVocabularyItems, core.Filter{"activity_id": activityID})
	if err != nil {
		return nil, errors.Wrap(err, "loading vocabulary items")
	}
	items := make([]VocabularyItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, VocabularyItem{
			ID:         rec.String("id"),
			Word:       rec.String("word"),
			Definition: rec.String("definition"),
			Order:      rec.Int("vocab_order"),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
	return Vocabulary{Items: items}, nil
}

func saveVocabulary(ctx context.Context, store core.RecordStore, activityID string, p Payload) (Payload, error) {
	voc := p.(Vocabulary)
	if err := purgeVocabulary(ctx, store, activityID); err != nil {
		return nil, err
	}

	saved := Vocabulary{Items: make([]VocabularyItem, 0, len(voc.Items))}
	for i, item := range voc.Items {
		rec, err := store.Insert(ctx, core.CollVocabularyItems, core.Record{
			"activity_id": activityID,
			"word":        item.Word,
			"definition":  item.Definition,
			"vocab_order": i,
		})
		if err != nil {
			return nil, errors.Wrap(err, "inserting vocabulary item")
		}
		item.ID = rec.String("id")
		item.Order = i
		saved.Items = append(saved.Items, item)
	}
	return saved, nil
}

func purgeVocabulary(ctx context.Context, store core.RecordStore, activityID string) error {
	if _, err := store.Delete(ctx, core.CollVocabularyItems, core.Filter{"activity_id": activityID}); err != nil {
		return errors.Wrap(err, "deleting vocabulary items")
	}
	return nil
}

func loadQuiz(ctx context.Context, store core.RecordStore, activityID string) (Payload, error) {
	recs, err := store.Select(ctx, core.CollQuestions, core.Filter{"activity_id": activityID})
	if err != nil {
		return nil, errors.Wrap(err, "loading questions")
	}
	questions := make([]Question, 0, len(recs))
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		q := Question{
			ID:           rec.String("id"),
			Text:         rec.String("question_text"),
			QuestionType: rec.String("question_type"),
			PartB:        rec.String("part_b"),
			Order:        rec.Int("question_order"),
			Choices:      []Choice{},
		}
		questions = append(questions, q)
		ids = append(ids, q.ID)
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	if len(ids) == 0 {
		return Quiz{Questions: questions}, nil
	}

	recs, err = store.Select(ctx, core.CollQuestionChoices, core.Filter{"question_id": ids})
	if err != nil {
		return nil, errors.Wrap(err, "loading question choices")
	}
	choices := make(map[string][]Choice, len(ids))
	for _, rec := range recs {
		qid := rec.String("question_id")
		choices[qid] = append(choices[qid], Choice{
			ID:        rec.String("id"),
			Text:      rec.String("text"),
			IsCorrect: rec.Bool("is_correct"),
			Order:     rec.Int("choice_order"),
		})
	}
	for i := range questions {
		cs := choices[questions[i].ID]
		sort.SliceStable(cs, func(a, b int) bool { return cs[a].Order < cs[b].Order })
		if cs != nil {
			questions[i].Choices = cs
		}
	}
	return Quiz{Questions: questions}, nil
}

func saveQuiz(ctx context.Context, store core.RecordStore, activityID string, p Payload) (Payload, error) {
	quiz := p.(Quiz)
	if err := purgeQuiz(ctx, store, activityID); err != nil {
		return nil, err
	}

	saved := Quiz{Questions: make([]Question, 0, len(quiz.Questions))}
	for i, q := range quiz.Questions {
		rec, err := store.Insert(ctx, core.CollQuestions, core.Record{
			"activity_id":    activityID,
			"question_text":  q.Text,
			"question_type":  q.QuestionType,
			"part_b":         q.PartB,
			"question_order": i,
		})
		if err != nil {
			return nil, errors.Wrap(err, "inserting question")
		}
		q.ID = rec.String("id")
		q.Order = i

		choices := make([]Choice, 0, len(q.Choices))
		for j, c := range q.Choices {
			crec, err := store.Insert(ctx, core.CollQuestionChoices, core.Record{
				"question_id":  q.ID,
				"text":         c.Text,
				"is_correct":   c.IsCorrect,
				"choice_order": j,
			})
			if err != nil {
				return nil, errors.Wrap(err, "inserting question choice")
			}
			c.ID = crec.String("id")
			c.Order = j
			choices = append(choices, c)
		}
		q.Choices = choices
		saved.Questions = append(saved.Questions, q)
	}
	return saved, nil
}

func purgeQuiz(ctx context.Context, store core.RecordStore, activityID string) error {
	where := core.Filter{"activity_id": activityID}
	recs, err := store.Select(ctx, core.CollQuestions, where)
	if err != nil {
		return errors.Wrap(err, "selecting questions")
	}
	if len(recs) > 0 {
		ids := make([]string, 0, len(recs))
		for _, rec := range recs {
			ids = append(ids, rec.String("id"))
		}
		if _, err = store.Delete(ctx, core.CollQuestionChoices, core.Filter{"question_id": ids}); err != nil {
			return errors.Wrap(err, "deleting question choices")
		}
	}
	if _, err = store.Delete(ctx, core.CollQuestions, where); err != nil {
		return errors.Wrap(err, "deleting questions")
	}
	return nil
}
