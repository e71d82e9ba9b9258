package activity

import (
	"context"
	"reflect"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

var nowFunc = time.Now // mockable

type Service struct {
	store  core.RecordStore
	guard  *Guard
	locker core.Locker
	logger core.Logger
}

func NewService(store core.RecordStore, directions DirectionStore, locker core.Locker, logger core.Logger) *Service {
	return &Service{
		store:  store,
		guard:  NewGuard(directions, logger),
		locker: locker,
		logger: logger,
	}
}

func lessonLockKey(lessonID string) string { return "lesson:" + lessonID + ":activities" }

func (svc *Service) lockLesson(ctx context.Context, lessonID string) (func(), error) {
	unlock, err := svc.locker.Lock(ctx, lessonLockKey(lessonID))
	if err != nil {
		return nil, errors.Wrapf(err, "locking lesson %s", lessonID)
	}
	return unlock, nil
}

// List returns the activities of a lesson sorted by order.
func (svc *Service) List(ctx context.Context, lessonID string) ([]Activity, error) {
	recs, err := svc.store.Select(ctx, core.CollActivities, core.Filter{"lesson_id": lessonID}, core.Asc("order"))
	if err != nil {
		return nil, errors.Wrap(err, "selecting activities")
	}
	acts := make([]Activity, 0, len(recs))
	for _, rec := range recs {
		acts = append(acts, activityFromRecord(rec))
	}
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].Order < acts[j].Order })
	return acts, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Activity, error) {
	recs, err := svc.store.Select(ctx, core.CollActivities, core.Filter{"id": id})
	if err != nil {
		return Activity{}, errors.Wrap(err, "selecting activity")
	}
	if len(recs) == 0 {
		return Activity{}, ErrNotFound
	}
	return activityFromRecord(recs[0]), nil
}

// Insert appends a new activity to its lesson and creates its empty payload.
func (svc *Service) Insert(ctx context.Context, na NewActivity) (Activity, error) {
	kind, err := Lookup(na.Type)
	if err != nil {
		return Activity{}, core.NewValidationError(err, core.FieldError{Field: "type", Error: err.Error()})
	}

	unlock, err := svc.lockLesson(ctx, na.LessonID)
	if err != nil {
		return Activity{}, err
	}
	defer unlock()

	acts, err := svc.List(ctx, na.LessonID)
	if err != nil {
		return Activity{}, err
	}
	order := 0
	for _, a := range acts {
		if a.Order >= order {
			order = a.Order + 1
		}
	}

	now := nowFunc().UTC()
	act := Activity{
		LessonID:  na.LessonID,
		Order:     order,
		Name:      core.CleanString(na.Name),
		Type:      na.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec, err := svc.store.Insert(ctx, core.CollActivities, act.record())
	if err != nil {
		return Activity{}, errors.Wrap(err, "inserting activity")
	}
	act = activityFromRecord(rec)

	if _, err = kind.save(ctx, svc.store, act.ID, kind.New()); err != nil {
		// do not leave an activity without its payload shell behind
		if _, delErr := svc.store.Delete(ctx, core.CollActivities, core.Filter{"id": act.ID}); delErr != nil {
			svc.logger.Error("removing activity without payload", delErr, map[string]interface{}{"activity_id": act.ID})
		}
		return Activity{}, errors.Wrap(err, "creating payload shell")
	}
	return act, nil
}

// Update renames or (un)publishes an activity.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateActivity) (Activity, error) {
	act, err := svc.Get(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	patch := core.Record{"updated_at": nowFunc().UTC()}
	if ua.Name != nil {
		act.Name = core.CleanString(*ua.Name)
		patch["name"] = act.Name
	}
	if ua.Published != nil {
		act.Published.SetValid(*ua.Published)
		patch["published"] = flagValue(*ua.Published)
	}
	if _, err = svc.store.Update(ctx, core.CollActivities, core.Filter{"id": id}, patch); err != nil {
		return Activity{}, errors.Wrap(err, "updating activity")
	}
	act.UpdatedAt = patch["updated_at"].(time.Time)
	return act, nil
}

// Move puts the activity at newIndex of its lesson's sequence and renumbers the whole lesson.
func (svc *Service) Move(ctx context.Context, id string, newIndex int) ([]Activity, error) {
	act, err := svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := svc.lockLesson(ctx, act.LessonID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acts, err := svc.List(ctx, act.LessonID)
	if err != nil {
		return nil, err
	}
	curr := -1
	for i, a := range acts {
		if a.ID == id {
			curr = i
			break
		}
	}
	if curr < 0 {
		return nil, ErrNotFound
	}
	if newIndex < 0 || newIndex >= len(acts) {
		return nil, core.NewValidationError(ErrOutOfRange, core.FieldError{Field: "index", Error: ErrOutOfRange.Error()})
	}

	acts = MoveTo(acts, curr, newIndex)
	if err = svc.renumber(ctx, act.LessonID, acts); err != nil {
		return nil, err
	}
	return acts, nil
}

// Remove deletes the activity and its payload once the directions referencing it are reconciled
// by decide, then closes the gap in the lesson's order.
func (svc *Service) Remove(ctx context.Context, id string, decide DecideFunc) (DeleteOutcome, error) {
	act, err := svc.Get(ctx, id)
	if err != nil {
		return DeleteOutcome{}, err
	}

	unlock, err := svc.lockLesson(ctx, act.LessonID)
	if err != nil {
		return DeleteOutcome{}, err
	}
	defer unlock()

	out, err := svc.guard.Delete(ctx, act, decide, svc.delete)
	if err != nil || !out.Deleted {
		return out, err
	}

	acts, err := svc.List(ctx, act.LessonID)
	if err != nil {
		return out, err
	}
	return out, svc.renumber(ctx, act.LessonID, acts)
}

// delete removes the payload, then the activity row.
func (svc *Service) delete(ctx context.Context, act Activity) error {
	kind, err := Lookup(act.Type)
	if err != nil {
		return err
	}
	if err = kind.purge(ctx, svc.store, act.ID); err != nil {
		return err
	}
	if _, err = svc.store.Delete(ctx, core.CollActivities, core.Filter{"id": act.ID}); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return nil
}

// Renumber rewrites the orders of a lesson to 0..n-1, keeping the current sequence.
func (svc *Service) Renumber(ctx context.Context, lessonID string) ([]Activity, error) {
	unlock, err := svc.lockLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acts, err := svc.List(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if err = svc.renumber(ctx, lessonID, acts); err != nil {
		return nil, err
	}
	return acts, nil
}

// renumber sets every activity's order to its index in acts and writes the changed rows in one batch.
func (svc *Service) renumber(ctx context.Context, lessonID string, acts []Activity) error {
	patches := Renumber(acts)
	if len(patches) == 0 {
		return nil
	}
	if err := svc.store.BatchUpdate(ctx, core.CollActivities, patches); err != nil {
		svc.logger.Error("renumbering activities", err, map[string]interface{}{"lesson_id": lessonID})
		return &RenumberError{LessonID: lessonID, Err: err}
	}
	svc.logger.Debug("activities renumbered", map[string]interface{}{"lesson_id": lessonID, "rows": len(patches)})
	return nil
}

// MoveTo removes the item at index from and reinserts it at index to.
func MoveTo(acts []Activity, from, to int) []Activity {
	if from == to {
		return acts
	}
	moved := acts[from]
	out := make([]Activity, 0, len(acts))
	out = append(out, acts[:from]...)
	out = append(out, acts[from+1:]...)
	out = append(out[:to], append([]Activity{moved}, out[to:]...)...)
	return out
}

// Renumber sets the order of each activity to its index and returns the patches of the rows that changed.
func Renumber(acts []Activity) []core.KeyedPatch {
	var patches []core.KeyedPatch
	for i := range acts {
		if acts[i].Order != i {
			acts[i].Order = i
			patches = append(patches, core.KeyedPatch{ID: acts[i].ID, Patch: core.Record{"order": i}})
		}
	}
	return patches
}

// LoadPayload returns the activity's payload, or the empty payload of its type if none was saved yet.
func (svc *Service) LoadPayload(ctx context.Context, act Activity) (Payload, error) {
	kind, err := Lookup(act.Type)
	if err != nil {
		return nil, err
	}
	return kind.load(ctx, svc.store, act.ID)
}

// SavePayload persists p as the payload of act. p is expected to be validated by the caller.
// Nested lists are rewritten with fresh identifiers; the returned payload carries them.
func (svc *Service) SavePayload(ctx context.Context, act Activity, p Payload) (Payload, error) {
	kind, err := Lookup(act.Type)
	if err != nil {
		return nil, err
	}
	p = deref(p)
	if p == nil || p.Type() != act.Type {
		return nil, errors.Wrapf(ErrTypeMismatch, "activity %s is a %s", act.ID, act.Type)
	}
	return kind.save(ctx, svc.store, act.ID, p)
}

// EditVocabulary loads a vocabulary payload, applies edit and saves the result.
func (svc *Service) EditVocabulary(ctx context.Context, act Activity, edit func(*VocabularyEditor) error) (Vocabulary, error) {
	if act.Type != TypeVocabulary {
		return Vocabulary{}, errors.Wrapf(ErrTypeMismatch, "activity %s is a %s", act.ID, act.Type)
	}
	unlock, err := svc.lockLesson(ctx, act.LessonID)
	if err != nil {
		return Vocabulary{}, err
	}
	defer unlock()

	p, err := svc.LoadPayload(ctx, act)
	if err != nil {
		return Vocabulary{}, err
	}
	editor := NewVocabularyEditor(p.(Vocabulary))
	if err = edit(editor); err != nil {
		return Vocabulary{}, err
	}
	saved, err := svc.SavePayload(ctx, act, editor.Vocabulary())
	if err != nil {
		return Vocabulary{}, err
	}
	return saved.(Vocabulary), nil
}

// EditQuiz loads a quiz payload, applies edit and saves the result.
func (svc *Service) EditQuiz(ctx context.Context, act Activity, edit func(*QuizEditor) error) (Quiz, error) {
	if act.Type != TypeQuestion {
		return Quiz{}, errors.Wrapf(ErrTypeMismatch, "activity %s is a %s", act.ID, act.Type)
	}
	unlock, err := svc.lockLesson(ctx, act.LessonID)
	if err != nil {
		return Quiz{}, err
	}
	defer unlock()

	p, err := svc.LoadPayload(ctx, act)
	if err != nil {
		return Quiz{}, err
	}
	editor := NewQuizEditor(p.(Quiz))
	if err = edit(editor); err != nil {
		return Quiz{}, err
	}
	saved, err := svc.SavePayload(ctx, act, editor.Quiz())
	if err != nil {
		return Quiz{}, err
	}
	return saved.(Quiz), nil
}

// deref turns a *Reading into a Reading etc.
func deref(p Payload) Payload {
	if p == nil {
		return nil
	}
	v := reflect.ValueOf(p)
	if v.Kind() != reflect.Ptr {
		return p
	}
	if v.IsNil() {
		return nil
	}
	if inner, ok := v.Elem().Interface().(Payload); ok {
		return inner
	}
	return nil
}
