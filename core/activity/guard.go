package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

// GuardState is a state of the reference-aware deletion flow.
type GuardState int

const (
	StateIdle GuardState = iota
	StateCheckingReferences
	StateNoReferences
	StateDeleting
	StateHasReferences
	StateAwaitingPolicyChoice
	StateDecouplingThenDeleting
	StateCascadingDelete
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:                   "Idle",
	StateCheckingReferences:     "CheckingReferences",
	StateNoReferences:           "NoReferences",
	StateDeleting:               "Deleting",
	StateHasReferences:          "HasReferences",
	StateAwaitingPolicyChoice:   "AwaitingPolicyChoice",
	StateDecouplingThenDeleting: "DecouplingThenDeleting",
	StateCascadingDelete:        "CascadingDelete",
	StateCancelled:              "Cancelled",
}

func (s GuardState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("GuardState(%d)", int(s))
}

// Decision is the policy chosen for the lesson plan directions of a deleted activity.
type Decision int

const (
	DecisionNone    Decision = iota
	DecisionKeep             // decouple the directions, then delete the activity
	DecisionCascade          // delete the directions together with the activity
	DecisionCancel           // leave everything untouched
)

func (d Decision) String() string {
	switch d {
	case DecisionKeep:
		return "keep"
	case DecisionCascade:
		return "delete"
	case DecisionCancel:
		return "cancel"
	}
	return ""
}

// ParseDecision parses the policy names used by the API and the admin CLI.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DecisionNone, nil
	case "keep":
		return DecisionKeep, nil
	case "delete", "cascade":
		return DecisionCascade, nil
	case "cancel":
		return DecisionCancel, nil
	}
	return DecisionNone, errors.Errorf("invalid policy %q: expected keep, delete or cancel", s)
}

// DecideFunc picks a Decision once an activity is known to have dependent directions.
type DecideFunc func(ctx context.Context, act Activity, dirs []lessonplan.Direction) (Decision, error)

// Policy returns a DecideFunc that always answers d.
// DecisionNone makes the deletion fail with ErrPolicyRequired whenever references exist.
func Policy(d Decision) DecideFunc {
	return func(context.Context, Activity, []lessonplan.Direction) (Decision, error) {
		if d == DecisionNone {
			return DecisionNone, ErrPolicyRequired
		}
		return d, nil
	}
}

// DirectionStore is the lesson plan collaborator consulted before deleting an activity.
type DirectionStore interface {
	ByActivity(ctx context.Context, activityID string) ([]lessonplan.Direction, error)
	Decouple(ctx context.Context, activityID string) (int, error)
	DeleteByActivity(ctx context.Context, activityID string) (int, error)
}

var _ DirectionStore = (*lessonplan.Repository)(nil) // interface compliance check

// DeleteOutcome reports what the Guard did.
type DeleteOutcome struct {
	Activity   Activity               `json:"activity"`
	Decision   Decision               `json:"-"`
	Policy     string                 `json:"policy,omitempty"`
	Directions []lessonplan.Direction `json:"directions"`
	Deleted    bool                   `json:"deleted"`
	Trace      []GuardState           `json:"-"`
}

// Guard reconciles an activity deletion with the directions referencing it.
type Guard struct {
	directions DirectionStore
	logger     core.Logger
}

func NewGuard(directions DirectionStore, logger core.Logger) *Guard {
	return &Guard{directions: directions, logger: logger}
}

// Delete runs the deletion flow for act. remove deletes the activity and its payload.
func (g *Guard) Delete(
	ctx context.Context,
	act Activity,
	decide DecideFunc,
	remove func(ctx context.Context, act Activity) error,
) (DeleteOutcome, error) {
	out := DeleteOutcome{Activity: act, Trace: []GuardState{StateIdle}}
	enter := func(s GuardState) { out.Trace = append(out.Trace, s) }
	cancel := func() {
		enter(StateCancelled)
		enter(StateIdle)
	}

	enter(StateCheckingReferences)
	dirs, err := g.directions.ByActivity(ctx, act.ID)
	if err != nil {
		cancel()
		return out, &ReferenceCheckError{ActivityID: act.ID, Err: err}
	}
	out.Directions = dirs

	if len(dirs) == 0 {
		enter(StateNoReferences)
		enter(StateDeleting)
		if err = remove(ctx, act); err != nil {
			enter(StateIdle)
			return out, err
		}
		out.Deleted = true
		enter(StateIdle)
		return out, nil
	}

	enter(StateHasReferences)
	enter(StateAwaitingPolicyChoice)
	if decide == nil {
		decide = Policy(DecisionNone)
	}
	decision, err := decide(ctx, act, dirs)
	if err != nil {
		cancel()
		return out, err
	}
	out.Decision = decision
	out.Policy = decision.String()

	switch decision {
	case DecisionKeep:
		enter(StateDecouplingThenDeleting)
		n, err := g.directions.Decouple(ctx, act.ID)
		if err != nil {
			enter(StateIdle)
			return out, errors.Wrap(err, "keeping directions")
		}
		g.logger.Info("activity directions decoupled", map[string]interface{}{"activity_id": act.ID, "directions": n})
	case DecisionCascade:
		enter(StateCascadingDelete)
		n, err := g.directions.DeleteByActivity(ctx, act.ID)
		if err != nil {
			enter(StateIdle)
			return out, errors.Wrap(err, "deleting directions")
		}
		g.logger.Info("activity directions deleted", map[string]interface{}{"activity_id": act.ID, "directions": n})
	case DecisionCancel:
		cancel()
		return out, nil
	default:
		cancel()
		return out, ErrPolicyRequired
	}

	if err = remove(ctx, act); err != nil {
		enter(StateIdle)
		return out, err
	}
	out.Deleted = true
	enter(StateIdle)
	return out, nil
}
