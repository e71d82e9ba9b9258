package activity_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
	logsvc "github.com/trezcool/masomo-lessons/services/logger"
	"github.com/trezcool/masomo-lessons/tests"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    activity.Decision
		wantErr bool
	}{
		{in: "", want: activity.DecisionNone},
		{in: "keep", want: activity.DecisionKeep},
		{in: " Delete ", want: activity.DecisionCascade},
		{in: "cascade", want: activity.DecisionCascade},
		{in: "cancel", want: activity.DecisionCancel},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := activity.ParseDecision(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Remove_WithDirections(t *testing.T) {
	trace := func(states ...activity.GuardState) []activity.GuardState { return states }
	referenced := trace(activity.StateIdle, activity.StateCheckingReferences, activity.StateHasReferences, activity.StateAwaitingPolicyChoice)

	tests := []struct {
		name         string
		decision     activity.Decision
		wantErr      error
		wantDeleted  bool
		wantDirs     int  // directions left in the plan
		wantDetached bool // remaining directions lost their activity reference
		wantTrace    []activity.GuardState
	}{
		{
			name:         "keep",
			decision:     activity.DecisionKeep,
			wantDeleted:  true,
			wantDirs:     3,
			wantDetached: true,
			wantTrace:    append(referenced, activity.StateDecouplingThenDeleting, activity.StateIdle),
		},
		{
			name:        "cascade",
			decision:    activity.DecisionCascade,
			wantDeleted: true,
			wantDirs:    1,
			wantTrace:   append(referenced, activity.StateCascadingDelete, activity.StateIdle),
		},
		{
			name:      "cancel",
			decision:  activity.DecisionCancel,
			wantDirs:  3,
			wantTrace: append(referenced, activity.StateCancelled, activity.StateIdle),
		},
		{
			name:      "no policy",
			decision:  activity.DecisionNone,
			wantErr:   activity.ErrPolicyRequired,
			wantDirs:  3,
			wantTrace: append(referenced, activity.StateCancelled, activity.StateIdle),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			ctx := context.Background()
			act := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "A")
			testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "B")
			testutil.CreateDirection(t, env.Directions, "plan", act.ID, "Read the passage aloud.")
			testutil.CreateDirection(t, env.Directions, "plan", act.ID, "Discuss in pairs.")
			testutil.CreateDirection(t, env.Directions, "plan", "", "Wrap up.")

			out, err := env.Svc.Remove(ctx, act.ID, activity.Policy(tt.decision))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantDeleted, out.Deleted)
			assert.Len(t, out.Directions, 2)
			assert.Equal(t, tt.wantTrace, out.Trace)

			_, err = env.Svc.Get(ctx, act.ID)
			if tt.wantDeleted {
				assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
				assert.Equal(t, []string{"B"}, listNames(t, env.Svc, lesson))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, []string{"A", "B"}, listNames(t, env.Svc, lesson))
			}

			dirs, err := env.Directions.ByLessonPlan(ctx, "plan")
			require.NoError(t, err)
			assert.Len(t, dirs, tt.wantDirs)
			refs, err := env.Directions.ByActivity(ctx, act.ID)
			require.NoError(t, err)
			if tt.wantDeleted {
				assert.Empty(t, refs, "no direction points at a deleted activity")
			} else {
				assert.Len(t, refs, 2)
			}
			if tt.wantDetached {
				for _, d := range dirs {
					assert.False(t, d.ActivityID.Valid)
				}
			}
		})
	}
}

func TestService_Remove_NoDirections(t *testing.T) {
	env := testutil.NewEnv(t)
	act := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeImage, "A")

	called := false
	decide := func(context.Context, activity.Activity, []lessonplan.Direction) (activity.Decision, error) {
		called = true
		return activity.DecisionCancel, nil
	}
	out, err := env.Svc.Remove(context.Background(), act.ID, decide)
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.False(t, called, "no policy is asked for without references")
	assert.Equal(t, []activity.GuardState{
		activity.StateIdle, activity.StateCheckingReferences, activity.StateNoReferences, activity.StateDeleting, activity.StateIdle,
	}, out.Trace)
}

func TestService_Remove_ReferenceCheckFails(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	act := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "A")

	env.Store.FailOn("select", core.CollLessonPlanDirections)
	out, err := env.Svc.Remove(ctx, act.ID, activity.Policy(activity.DecisionCascade))
	var rerr *activity.ReferenceCheckError
	require.True(t, errors.As(err, &rerr), "want a ReferenceCheckError, got %v", err)
	assert.Equal(t, act.ID, rerr.ActivityID)
	assert.False(t, out.Deleted)
	assert.Contains(t, out.Trace, activity.StateCancelled)

	env.Store.Reset()
	_, err = env.Svc.Get(ctx, act.ID)
	assert.NoError(t, err, "nothing is deleted when references are unknown")
}

func TestService_Remove_DecideError(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	act := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "A")
	testutil.CreateDirection(t, env.Directions, "plan", act.ID, "Read.")

	boom := errors.New("prompt closed")
	_, err := env.Svc.Remove(ctx, act.ID, func(context.Context, activity.Activity, []lessonplan.Direction) (activity.Decision, error) {
		return activity.DecisionNone, boom
	})
	assert.Equal(t, boom, errors.Cause(err))
	_, err = env.Svc.Get(ctx, act.ID)
	assert.NoError(t, err)
}

// fakeDirections counts the calls made by the Guard.
type fakeDirections struct {
	dirs                []lessonplan.Direction
	decoupled, cascaded int
}

func (f *fakeDirections) ByActivity(context.Context, string) ([]lessonplan.Direction, error) {
	return f.dirs, nil
}

func (f *fakeDirections) Decouple(context.Context, string) (int, error) {
	f.decoupled++
	return len(f.dirs), nil
}

func (f *fakeDirections) DeleteByActivity(context.Context, string) (int, error) {
	f.cascaded++
	return len(f.dirs), nil
}

func TestGuard_Delete_RemoveFails(t *testing.T) {
	dirs := &fakeDirections{dirs: []lessonplan.Direction{{ID: "d1"}}}
	logger := logsvc.NewMemoryLogger()
	g := activity.NewGuard(dirs, logger)

	boom := errors.New("store down")
	out, err := g.Delete(context.Background(), activity.Activity{ID: "a1"}, activity.Policy(activity.DecisionKeep),
		func(context.Context, activity.Activity) error { return boom })
	assert.Equal(t, boom, err)
	assert.False(t, out.Deleted)
	assert.Equal(t, 1, dirs.decoupled)
	assert.Equal(t, 0, dirs.cascaded)
	assert.Equal(t, "keep", out.Policy)
	assert.True(t, logger.Has("INFO", "activity directions decoupled"))
}
