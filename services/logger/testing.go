package logsvc

import (
	"fmt"
	"sync"

	"github.com/trezcool/masomo-lessons/core"
)

// Entry is a message recorded by a MemoryLogger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// MemoryLogger keeps entries in memory; used by tests.
type MemoryLogger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*MemoryLogger)(nil)

func NewMemoryLogger() *MemoryLogger { return new(MemoryLogger) }

func (l *MemoryLogger) add(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *MemoryLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Has reports whether a message was recorded at level.
func (l *MemoryLogger) Has(level, msg string) bool {
	for _, e := range l.Entries() {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

func (l *MemoryLogger) Debug(msg string, args ...interface{}) { l.add("DEBUG", msg, args) }
func (l *MemoryLogger) Info(msg string, args ...interface{})  { l.add("INFO", msg, args) }
func (l *MemoryLogger) Warn(msg string, args ...interface{})  { l.add("WARN", msg, args) }
func (l *MemoryLogger) Error(msg string, args ...interface{}) { l.add("ERROR", msg, args) }
func (l *MemoryLogger) Fatal(msg string, args ...interface{}) {
	l.add("FATAL", msg, args)
	panic(fmt.Sprintf("fatal: %s", msg))
}
