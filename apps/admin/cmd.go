package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/core/lessonplan"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db          *sql.DB // nil with the in-memory storage engine
	activitySvc *activity.Service
	directions  *lessonplan.Repository
	in          io.Reader
	out         io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                        - run a goose command (up, down, status, version, ...)")
	_, _ = fmt.Fprintln(cli.out, "  list -lesson ID                               - list the activities of a lesson")
	_, _ = fmt.Fprintln(cli.out, "  renumber -lesson ID [-dry-run]                - rewrite the activity orders of a lesson to 0..n-1")
	_, _ = fmt.Fprintln(cli.out, "  delete -activity ID [-policy keep|delete]     - delete an activity and reconcile its lesson plan directions")
	_, _ = fmt.Fprintln(cli.out, "  export -lesson ID                             - print a lesson's activities and payloads as YAML")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
	listLesson := listCmd.String("lesson", "", "The lesson ID.")

	renumberCmd := flag.NewFlagSet("renumber", flag.ContinueOnError)
	renumberLesson := renumberCmd.String("lesson", "", "The lesson ID.")
	renumberDryRun := renumberCmd.Bool("dry-run", false, "Print the changes without writing them.")

	deleteCmd := flag.NewFlagSet("delete", flag.ContinueOnError)
	deleteActivity := deleteCmd.String("activity", "", "The activity ID.")
	deletePolicy := deleteCmd.String("policy", "", "What to do with the lesson plan directions referencing the activity: keep or delete. Prompted on a terminal if omitted.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportLesson := exportCmd.String("lesson", "", "The lesson ID.")

	for _, fs := range []*flag.FlagSet{listCmd, renumberCmd, deleteCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])
	case "list":
		if err := listCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *listLesson == "" {
			listCmd.Usage()
			return errHelp
		}
		return cli.list(ctx, *listLesson)
	case "renumber":
		if err := renumberCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *renumberLesson == "" {
			renumberCmd.Usage()
			return errHelp
		}
		return cli.renumber(ctx, *renumberLesson, *renumberDryRun)
	case "delete":
		if err := deleteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *deleteActivity == "" {
			deleteCmd.Usage()
			return errHelp
		}
		decision, err := activity.ParseDecision(*deletePolicy)
		if err != nil {
			return err
		}
		return cli.delete(ctx, *deleteActivity, decision)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportLesson == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportLesson)
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptDecision asks the operator what to do with the directions of an activity.
func (cli *commandLine) promptDecision(_ context.Context, act activity.Activity, dirs []lessonplan.Direction) (activity.Decision, error) {
	_, _ = fmt.Fprintf(cli.out, "Activity %s (%s) is referenced by %d lesson plan direction(s):\n", act.ID, act.Type, len(dirs))
	for _, d := range dirs {
		_, _ = fmt.Fprintf(cli.out, "  - %s (lesson plan %s): %s\n", d.ID, d.LessonPlanID, d.Content)
	}
	scanner := bufio.NewScanner(cli.in)
	for {
		_, _ = fmt.Fprint(cli.out, "Keep the directions, delete them, or cancel? [keep/delete/cancel]: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return activity.DecisionNone, err
			}
			return activity.DecisionCancel, nil
		}
		if d, err := activity.ParseDecision(scanner.Text()); err == nil && d != activity.DecisionNone {
			return d, nil
		}
	}
}

func stdinIsTerminal() bool {
	return isTerminalFunc(int(os.Stdin.Fd()))
}
