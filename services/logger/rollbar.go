package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/masomo-lessons/core"
)

// level pairs the printed label with the rollbar severity.
type level struct {
	label   string
	rollbar string
	rank    int
}

var (
	levelDebug = level{"DEBUG", rollbar.DEBUG, 0}
	levelInfo  = level{"INFO", rollbar.INFO, 1}
	levelWarn  = level{"WARN", rollbar.WARN, 2}
	levelError = level{"ERROR", rollbar.ERR, 3}
	levelFatal = level{"FATAL", rollbar.CRIT, 4}
)

// RollbarLogger prints every entry on std and reports it to rollbar when a token is configured.
type RollbarLogger struct {
	std *log.Logger
	min level
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)

	min := levelInfo
	if conf.Debug {
		min = levelDebug
	}
	return &RollbarLogger{std: std, min: min}
}

// entry is a log call split into what rollbar and the printer each need.
type entry struct {
	msg    string
	err    error
	actor  *core.Actor
	extras map[string]interface{}
	other  []interface{}
}

// split sorts args into the error, the first core.Actor, the merged extras and anything else.
func split(msg string, args []interface{}) entry {
	e := entry{msg: msg}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
			} else {
				e.other = append(e.other, v)
			}
		case core.Actor:
			if e.actor == nil {
				actor := v
				e.actor = &actor
			}
		case map[string]interface{}:
			if e.extras == nil {
				e.extras = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				e.extras[k] = val
			}
		default:
			e.other = append(e.other, v)
		}
	}
	return e
}

func (e entry) rollbarArgs() []interface{} {
	args := []interface{}{e.msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	extras := e.extras
	if len(e.other) > 0 {
		extras = make(map[string]interface{}, len(e.extras)+1)
		for k, v := range e.extras {
			extras[k] = v
		}
		extras["args"] = fmt.Sprint(e.other...)
	}
	if extras != nil {
		args = append(args, extras)
	}
	return args
}

func (e entry) String() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	if e.actor != nil {
		fmt.Fprintf(&sb, " actor=%s", e.actor.Username)
	}
	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.extras[k])
	}
	for _, o := range e.other {
		fmt.Fprintf(&sb, " %+v", o)
	}
	if e.err != nil {
		fmt.Fprintf(&sb, ": %v", e.err)
	}
	return sb.String()
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) entry {
	e := split(msg, args)
	if lvl.rank < l.min.rank {
		return e
	}
	if e.actor != nil {
		rollbar.SetPerson(e.actor.ID, e.actor.Username, e.actor.Email)
	} else {
		rollbar.ClearPerson()
	}
	rollbar.Log(lvl.rollbar, e.rollbarArgs()...)
	l.std.Printf("%s: %s", lvl.label, e)
	return e
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }

func (l RollbarLogger) Info(msg string, args ...interface{}) { l.log(levelInfo, msg, args) }

func (l RollbarLogger) Warn(msg string, args ...interface{}) { l.log(levelWarn, msg, args) }

func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

// Fatal flushes rollbar before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := l.log(levelFatal, msg, args)
	rollbar.Wait()
	l.std.Fatalf("%s", e)
}
