package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-lessons/core"
	"github.com/trezcool/masomo-lessons/core/activity"
	"github.com/trezcool/masomo-lessons/tests"
)

const lesson = "lesson-1"

func setup(t *testing.T, input string) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	out := new(bytes.Buffer)
	return &commandLine{
		db:          new(sql.DB), // only handed to the mocked goose runner
		activitySvc: env.Svc,
		directions:  env.Directions,
		in:          strings.NewReader(input),
		out:         out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		if errors.Cause(err) != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err == nil || err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
		}
	case err != nil:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t, "")

	gooseRunFunc = func(_ context.Context, db *sql.DB, command string, args ...string) error {
		if db == nil {
			return fmt.Errorf("no database")
		}
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "choices_feedback", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	t.Run("memory storage", func(t *testing.T) {
		cli.db = nil
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.EqualError(t, err, "migrations need the postgres storage engine")
	})
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t, "")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "list without lesson", args: []string{"list"}, wantErr: errHelp},
		{name: "renumber without lesson", args: []string{"renumber", "-dry-run"}, wantErr: errHelp},
		{name: "delete without activity", args: []string{"delete", "-policy", "keep"}, wantErr: errHelp},
		{name: "export without lesson", args: []string{"export"}, wantErr: errHelp},
		{name: "bad policy", args: []string{"delete", "-activity", "a", "-policy", "maybe"}, wantErrStr: `invalid policy "maybe": expected keep, delete or cancel`},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(args)
			tt.check(t, err)
			if tt.wantErr == errHelp {
				assert.NotEmpty(t, out.String(), "usage is printed")
			}
		})
	}
}

func Test_commandLine_list(t *testing.T) {
	cli, env, out := setup(t, "")
	a := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "Intro")
	testutil.InsertActivity(t, env.Svc, lesson, activity.TypeImage, "Map")

	require.NoError(t, cli.run([]string{"admin", "list", "-lesson", lesson}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ORDER", "ID", "TYPE", "NAME", "PUBLISHED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", a.ID, "reading", "Intro", "-"}, strings.Fields(lines[1]))
	assert.True(t, strings.HasPrefix(lines[2], "1 "))
}

func Test_commandLine_renumber(t *testing.T) {
	cli, env, out := setup(t, "")
	ctx := context.Background()
	acts := []activity.Activity{
		testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "A"),
		testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "B"),
		testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "C"),
	}
	// leave gaps, as a crashed writer could
	for id, order := range map[string]int{acts[1].ID: 5, acts[2].ID: 9} {
		_, err := env.Store.Update(ctx, core.CollActivities, core.Filter{"id": id}, core.Record{"order": order})
		require.NoError(t, err)
	}
	orders := func() []int {
		list, err := env.Svc.List(ctx, lesson)
		require.NoError(t, err)
		out := make([]int, len(list))
		for i, a := range list {
			out[i] = a.Order
		}
		return out
	}

	require.NoError(t, cli.run([]string{"admin", "renumber", "-lesson", lesson, "-dry-run"}))
	assert.Contains(t, out.String(), fmt.Sprintf("-5 %s reading \"B\"", acts[1].ID))
	assert.Contains(t, out.String(), fmt.Sprintf("+1 %s reading \"B\"", acts[1].ID))
	assert.Equal(t, []int{0, 5, 9}, orders(), "dry run writes nothing")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "renumber", "-lesson", lesson}))
	assert.Contains(t, out.String(), fmt.Sprintf("+2 %s reading \"C\"", acts[2].ID))
	assert.Equal(t, []int{0, 1, 2}, orders())

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "renumber", "-lesson", lesson}))
	assert.Equal(t, "orders are already contiguous\n", out.String())
}

func Test_commandLine_delete(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		terminal    bool
		input       string
		wantErr     error
		wantOut     string
		wantDeleted bool
	}{
		{name: "policy flag", args: []string{"-policy", "delete"}, wantOut: "(1 direction(s): delete)", wantDeleted: true},
		{name: "no policy, not a terminal", wantErr: activity.ErrPolicyRequired},
		{name: "prompted keep", terminal: true, input: "maybe\nkeep\n", wantOut: "(1 direction(s): keep)", wantDeleted: true},
		{name: "prompted cancel", terminal: true, input: "cancel\n", wantOut: "cancelled: nothing was deleted"},
		{name: "prompt closed", terminal: true, input: "", wantOut: "cancelled: nothing was deleted"},
	}
	origIsTerminal := isTerminalFunc
	defer func() { isTerminalFunc = origIsTerminal }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, env, out := setup(t, tt.input)
			act := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeReading, "A")
			testutil.CreateDirection(t, env.Directions, "plan", act.ID, "Read it.")
			terminal := tt.terminal
			isTerminalFunc = func(int) bool { return terminal }

			err := cli.run(append([]string{"admin", "delete", "-activity", act.ID}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			} else {
				require.NoError(t, err)
				assert.Contains(t, out.String(), tt.wantOut)
			}

			_, err = env.Svc.Get(context.Background(), act.ID)
			if tt.wantDeleted {
				assert.Equal(t, activity.ErrNotFound, errors.Cause(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_export(t *testing.T) {
	cli, env, out := setup(t, "")
	ctx := context.Background()
	voc := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeVocabulary, "Words")
	_, err := env.Svc.SavePayload(ctx, voc, activity.Vocabulary{Items: []activity.VocabularyItem{{Word: "jambo", Definition: "hello"}}})
	require.NoError(t, err)
	img := testutil.InsertActivity(t, env.Svc, lesson, activity.TypeImage, "Map")
	published := true
	_, err = env.Svc.Update(ctx, img.ID, activity.UpdateActivity{Published: &published})
	require.NoError(t, err)

	require.NoError(t, cli.run([]string{"admin", "export", "-lesson", lesson}))
	yml := out.String()
	for _, want := range []string{
		"lesson_id: " + lesson,
		"type: vocabulary",
		"word: jambo",
		"definition: hello",
		"type: image",
		"published: true",
	} {
		assert.Contains(t, yml, want)
	}
	assert.Less(t, strings.Index(yml, "jambo"), strings.Index(yml, "type: image"), "activities are exported in order")
}
