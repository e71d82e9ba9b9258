// Package lessonplan reads and reconciles the lesson-plan directions that may point at an activity.
package lessonplan

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-lessons/core"
)

var ErrNotFound = errors.New("lesson plan direction not found")

// Direction is a step of a lesson plan. It may reference the activity it introduces.
type Direction struct {
	ID           string      `json:"id" yaml:"id"`
	LessonPlanID string      `json:"lesson_plan_id" yaml:"lesson_plan_id"`
	ActivityID   null.String `json:"activity_id" yaml:"-"`
	Content      string      `json:"content" yaml:"content"`
	Order        int         `json:"order" yaml:"order"`
}

// NewDirection contains information needed to append a Direction to a lesson plan.
type NewDirection struct {
	LessonPlanID string `json:"lesson_plan_id" validate:"notblank"`
	ActivityID   string `json:"activity_id"`
	Content      string `json:"content"`
}

func fromRecord(rec core.Record) Direction {
	d := Direction{
		ID:           rec.String("id"),
		LessonPlanID: rec.String("lesson_plan_id"),
		Content:      rec.String("content"),
		Order:        rec.Int("direction_order"),
	}
	if rec["activity_id"] != nil {
		d.ActivityID = null.StringFrom(rec.String("activity_id"))
	}
	return d
}

func fromRecords(recs []core.Record) []Direction {
	dirs := make([]Direction, 0, len(recs))
	for _, rec := range recs {
		dirs = append(dirs, fromRecord(rec))
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		if dirs[i].LessonPlanID != dirs[j].LessonPlanID {
			return dirs[i].LessonPlanID < dirs[j].LessonPlanID
		}
		return dirs[i].Order < dirs[j].Order
	})
	return dirs
}

type Repository struct {
	store core.RecordStore
}

func NewRepository(store core.RecordStore) *Repository {
	return &Repository{store: store}
}

// ByActivity returns the directions referencing the activity.
func (repo *Repository) ByActivity(ctx context.Context, activityID string) ([]Direction, error) {
	recs, err := repo.store.Select(ctx, core.CollLessonPlanDirections, core.Filter{"activity_id": activityID})
	if err != nil {
		return nil, errors.Wrap(err, "selecting directions by activity")
	}
	return fromRecords(recs), nil
}

func (repo *Repository) ByLessonPlan(ctx context.Context, lessonPlanID string) ([]Direction, error) {
	recs, err := repo.store.Select(ctx, core.CollLessonPlanDirections, core.Filter{"lesson_plan_id": lessonPlanID})
	if err != nil {
		return nil, errors.Wrap(err, "selecting directions by lesson plan")
	}
	return fromRecords(recs), nil
}

func (repo *Repository) Get(ctx context.Context, id string) (Direction, error) {
	recs, err := repo.store.Select(ctx, core.CollLessonPlanDirections, core.Filter{"id": id})
	if err != nil {
		return Direction{}, errors.Wrap(err, "selecting direction")
	}
	if len(recs) == 0 {
		return Direction{}, ErrNotFound
	}
	return fromRecord(recs[0]), nil
}

// Create appends a direction at the end of its lesson plan.
func (repo *Repository) Create(ctx context.Context, nd NewDirection) (Direction, error) {
	existing, err := repo.ByLessonPlan(ctx, nd.LessonPlanID)
	if err != nil {
		return Direction{}, err
	}
	order := 0
	for _, d := range existing {
		if d.Order >= order {
			order = d.Order + 1
		}
	}

	rec := core.Record{
		"lesson_plan_id":  nd.LessonPlanID,
		"activity_id":     nil,
		"content":         nd.Content,
		"direction_order": order,
	}
	if nd.ActivityID != "" {
		rec["activity_id"] = nd.ActivityID
	}
	rec, err = repo.store.Insert(ctx, core.CollLessonPlanDirections, rec)
	if err != nil {
		return Direction{}, errors.Wrap(err, "inserting direction")
	}
	return fromRecord(rec), nil
}

// Decouple clears the activity reference of every direction pointing at the activity.
// The directions survive as freestanding content.
func (repo *Repository) Decouple(ctx context.Context, activityID string) (int, error) {
	n, err := repo.store.Update(ctx, core.CollLessonPlanDirections,
		core.Filter{"activity_id": activityID}, core.Record{"activity_id": nil})
	if err != nil {
		return 0, errors.Wrap(err, "decoupling directions")
	}
	return n, nil
}

// DeleteByActivity deletes every direction pointing at the activity.
func (repo *Repository) DeleteByActivity(ctx context.Context, activityID string) (int, error) {
	n, err := repo.store.Delete(ctx, core.CollLessonPlanDirections, core.Filter{"activity_id": activityID})
	if err != nil {
		return 0, errors.Wrap(err, "deleting directions")
	}
	return n, nil
}
