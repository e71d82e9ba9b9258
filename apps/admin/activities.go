package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/masomo-lessons/core/activity"
)

func (cli *commandLine) list(ctx context.Context, lessonID string) error {
	acts, err := cli.activitySvc.List(ctx, lessonID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ORDER\tID\tTYPE\tNAME\tPUBLISHED")
	for _, a := range acts {
		published := "-"
		if a.Published.Valid {
			published = fmt.Sprint(a.Published.Bool)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", a.Order, a.ID, a.Type, a.Name, published)
	}
	return w.Flush()
}

func orderLines(acts []activity.Activity) []string {
	lines := make([]string, len(acts))
	for i, a := range acts {
		lines[i] = fmt.Sprintf("%d %s %s %q\n", a.Order, a.ID, a.Type, a.Name)
	}
	return lines
}

func (cli *commandLine) renumber(ctx context.Context, lessonID string, dryRun bool) error {
	acts, err := cli.activitySvc.List(ctx, lessonID)
	if err != nil {
		return err
	}
	before := orderLines(acts)

	if dryRun {
		activity.Renumber(acts)
	} else if acts, err = cli.activitySvc.Renumber(ctx, lessonID); err != nil {
		return err
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        before,
		B:        orderLines(acts),
		FromFile: "lesson " + lessonID,
		ToFile:   "renumbered",
		Context:  1,
	})
	if err != nil {
		return errors.Wrap(err, "diffing orders")
	}
	if diff == "" {
		_, _ = fmt.Fprintln(cli.out, "orders are already contiguous")
		return nil
	}
	_, _ = fmt.Fprint(cli.out, diff)
	return nil
}

func (cli *commandLine) delete(ctx context.Context, id string, decision activity.Decision) error {
	decide := activity.Policy(decision)
	if decision == activity.DecisionNone && stdinIsTerminal() {
		decide = cli.promptDecision
	}

	out, err := cli.activitySvc.Remove(ctx, id, decide)
	if err != nil {
		return err
	}
	if !out.Deleted {
		_, _ = fmt.Fprintln(cli.out, "cancelled: nothing was deleted")
		return nil
	}
	_, _ = fmt.Fprintf(cli.out, "deleted activity %s", id)
	if len(out.Directions) > 0 {
		_, _ = fmt.Fprintf(cli.out, " (%d direction(s): %s)", len(out.Directions), out.Policy)
	}
	_, _ = fmt.Fprintln(cli.out)
	return nil
}

type (
	exportedLesson struct {
		LessonID   string             `yaml:"lesson_id"`
		Activities []exportedActivity `yaml:"activities"`
	}

	exportedActivity struct {
		activity.Activity `yaml:",inline"`
		Published         *bool            `yaml:"published,omitempty"`
		Payload           activity.Payload `yaml:"payload"`
	}
)

func (cli *commandLine) export(ctx context.Context, lessonID string) error {
	acts, err := cli.activitySvc.List(ctx, lessonID)
	if err != nil {
		return err
	}
	lesson := exportedLesson{LessonID: lessonID, Activities: make([]exportedActivity, 0, len(acts))}
	for _, a := range acts {
		p, err := cli.activitySvc.LoadPayload(ctx, a)
		if err != nil {
			return errors.Wrapf(err, "loading payload of %s", a.ID)
		}
		lesson.Activities = append(lesson.Activities, exportedActivity{
			Activity:  a,
			Published: a.Published.Ptr(),
			Payload:   p,
		})
	}

	enc := yaml.NewEncoder(cli.out)
	enc.SetIndent(2)
	if err = enc.Encode(lesson); err != nil {
		return errors.Wrap(err, "encoding lesson")
	}
	return enc.Close()
}
