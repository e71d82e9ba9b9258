package activity

import (
	"strings"

	"github.com/pkg/errors"
)

// MoveDirection moves an item one slot towards the start (Up) or the end (Down) of its list.
type MoveDirection int

const (
	Up   MoveDirection = -1
	Down MoveDirection = 1
)

func ParseMoveDirection(s string) (MoveDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, errors.Errorf("invalid move direction %q", s)
}

func (d MoveDirection) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// neighbour returns the index that the item at i swaps with when moved in direction d.
func neighbour(n, i int, d MoveDirection) (int, error) {
	if i < 0 || i >= n {
		return 0, errors.Wrapf(ErrOutOfRange, "index %d of %d", i, n)
	}
	if d != Up && d != Down {
		return 0, errors.Errorf("invalid move direction %d", d)
	}
	j := i + int(d)
	if j < 0 || j >= n {
		return 0, errors.Wrapf(ErrOutOfRange, "cannot move item %d %s", i, d)
	}
	return j, nil
}

// VocabularyEditor edits the ordered word list of a vocabulary activity.
// The list keeps at least one item; vocab_order always equals the list position.
type VocabularyEditor struct {
	items []VocabularyItem
}

func NewVocabularyEditor(voc Vocabulary) *VocabularyEditor {
	e := &VocabularyEditor{items: append([]VocabularyItem(nil), voc.Items...)}
	e.renumber()
	return e
}

func (e *VocabularyEditor) renumber() {
	for i := range e.items {
		e.items[i].Order = i
	}
}

func (e *VocabularyEditor) Len() int { return len(e.items) }

func (e *VocabularyEditor) Vocabulary() Vocabulary {
	return Vocabulary{Items: append([]VocabularyItem{}, e.items...)}
}

func (e *VocabularyEditor) AddItem(item VocabularyItem) {
	e.items = append(e.items, item)
	e.renumber()
}

func (e *VocabularyEditor) UpdateItem(i int, item VocabularyItem) error {
	if i < 0 || i >= len(e.items) {
		return errors.Wrapf(ErrOutOfRange, "index %d of %d", i, len(e.items))
	}
	item.ID = e.items[i].ID
	e.items[i] = item
	e.renumber()
	return nil
}

func (e *VocabularyEditor) RemoveItem(i int) error {
	if i < 0 || i >= len(e.items) {
		return errors.Wrapf(ErrOutOfRange, "index %d of %d", i, len(e.items))
	}
	if len(e.items) == 1 {
		return errors.Wrap(ErrMinimumItems, "vocabulary needs at least one word")
	}
	e.items = append(e.items[:i], e.items[i+1:]...)
	e.renumber()
	return nil
}

func (e *VocabularyEditor) MoveItem(i int, d MoveDirection) error {
	j, err := neighbour(len(e.items), i, d)
	if err != nil {
		return err
	}
	e.items[i], e.items[j] = e.items[j], e.items[i]
	e.renumber()
	return nil
}

// QuizEditor edits the questions of a question activity and the choices of each question.
// Both orderings are renumbered independently; the quiz keeps at least one question.
type QuizEditor struct {
	questions []Question
}

func NewQuizEditor(quiz Quiz) *QuizEditor {
	e := &QuizEditor{questions: make([]Question, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		q.Choices = append([]Choice{}, q.Choices...)
		e.questions = append(e.questions, q)
	}
	e.renumber()
	for i := range e.questions {
		e.renumberChoices(i)
	}
	return e
}

func (e *QuizEditor) renumber() {
	for i := range e.questions {
		e.questions[i].Order = i
	}
}

func (e *QuizEditor) renumberChoices(q int) {
	for i := range e.questions[q].Choices {
		e.questions[q].Choices[i].Order = i
	}
}

func (e *QuizEditor) checkQuestion(q int) error {
	if q < 0 || q >= len(e.questions) {
		return errors.Wrapf(ErrOutOfRange, "question %d of %d", q, len(e.questions))
	}
	return nil
}

func (e *QuizEditor) Len() int { return len(e.questions) }

func (e *QuizEditor) Quiz() Quiz {
	quiz := Quiz{Questions: make([]Question, 0, len(e.questions))}
	for _, q := range e.questions {
		q.Choices = append([]Choice{}, q.Choices...)
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz
}

func (e *QuizEditor) AddQuestion(q Question) {
	q.Choices = append([]Choice{}, q.Choices...)
	e.questions = append(e.questions, q)
	e.renumber()
	e.renumberChoices(len(e.questions) - 1)
}

func (e *QuizEditor) RemoveQuestion(q int) error {
	if err := e.checkQuestion(q); err != nil {
		return err
	}
	if len(e.questions) == 1 {
		return errors.Wrap(ErrMinimumItems, "quiz needs at least one question")
	}
	e.questions = append(e.questions[:q], e.questions[q+1:]...)
	e.renumber()
	return nil
}

func (e *QuizEditor) MoveQuestion(q int, d MoveDirection) error {
	j, err := neighbour(len(e.questions), q, d)
	if err != nil {
		return err
	}
	e.questions[q], e.questions[j] = e.questions[j], e.questions[q]
	e.renumber()
	return nil
}

func (e *QuizEditor) AddChoice(q int, c Choice) error {
	if err := e.checkQuestion(q); err != nil {
		return err
	}
	e.questions[q].Choices = append(e.questions[q].Choices, c)
	e.renumberChoices(q)
	return nil
}

func (e *QuizEditor) RemoveChoice(q, c int) error {
	if err := e.checkQuestion(q); err != nil {
		return err
	}
	choices := e.questions[q].Choices
	if c < 0 || c >= len(choices) {
		return errors.Wrapf(ErrOutOfRange, "choice %d of %d", c, len(choices))
	}
	e.questions[q].Choices = append(choices[:c], choices[c+1:]...)
	e.renumberChoices(q)
	return nil
}

func (e *QuizEditor) MoveChoice(q, c int, d MoveDirection) error {
	if err := e.checkQuestion(q); err != nil {
		return err
	}
	choices := e.questions[q].Choices
	j, err := neighbour(len(choices), c, d)
	if err != nil {
		return err
	}
	choices[c], choices[j] = choices[j], choices[c]
	e.renumberChoices(q)
	return nil
}
