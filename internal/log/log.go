// Package log is a minimal leveled logger for the weaving pipeline. It
// writes to a single process-wide destination (stderr by default) and
// prefixes every line with the stack of scopes currently open, so that
// log lines emitted while weaving or firing a particular aspect/join
// point can be grepped out of a noisy run.
package log

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

// levelCount sizes Counts' snapshot array to cover every Level.
const levelCount = LevelTrace + 1

var (
	level            = LevelNone
	writer  *os.File = os.Stderr
	writerM sync.Mutex

	scope  []scopeFrame
	scopeM sync.RWMutex

	counts [levelCount]uint64
)

// scopeFrame is one entry on the nested-scope stack PushScope builds.
type scopeFrame struct {
	key   string
	value string
}

// Close releases the current output file (if it is not stdout/stderr)
// and resets all open scopes.
func Close() (err error) {
	writerM.Lock()
	defer writerM.Unlock()

	if writer != os.Stderr && writer != os.Stdout {
		err = writer.Close()
	}
	writer = os.Stderr

	scopeM.Lock()
	defer scopeM.Unlock()
	scope = nil

	return
}

func SetLevel(l Level) {
	level = l
}

func SetOutput(f *os.File) {
	writerM.Lock()
	defer writerM.Unlock()

	writer = f
}

// PushScope opens a nested scope tagging every log line emitted until
// the returned pop is called. The weaver and advice decorators use
// this to tag lines with the aspect currently being woven or the join
// point currently firing (e.g. PushScope("joinpoint", jp.ID().String())).
//
// A flat key→value map (the teacher's own SetContext/context map)
// loses information once a scope nests inside another one keyed the
// same: advice bodies are arbitrary (§5) and may call back into
// another advised method before returning, so a "joinpoint" scope can
// legitimately open while an outer "joinpoint" scope is still active.
// PushScope keeps every open frame on a stack instead of a single
// slot per key, so popping the inner scope restores exactly the outer
// frame rather than erasing the key entirely.
func PushScope(key, value string) (pop func()) {
	scopeM.Lock()
	scope = append(scope, scopeFrame{key: key, value: value})
	idx := len(scope) - 1
	scopeM.Unlock()

	return func() {
		scopeM.Lock()
		defer scopeM.Unlock()
		if idx < len(scope) && scope[idx].key == key {
			scope = append(scope[:idx], scope[idx+1:]...)
		}
	}
}

func Errorf(format string, args ...any) {
	write(LevelError, format, args...)
}

func Warnf(format string, args ...any) {
	write(LevelWarn, format, args...)
}

func Infof(format string, args ...any) {
	write(LevelInfo, format, args...)
}

func Debugf(format string, args ...any) {
	write(LevelDebug, format, args...)
}

func Tracef(format string, args ...any) {
	write(LevelTrace, format, args...)
}

// Counts returns the number of lines emitted at each level since
// startup, indexed by Level; Close does not reset them. weaverctl's doctor
// subcommand reports these next to process resource usage, so an
// operator can tell whether a long-running boot is quietly emitting
// Warn/Error lines without tailing the log output itself.
func Counts() [levelCount]uint64 {
	var out [levelCount]uint64
	for i := range out {
		out[i] = atomic.LoadUint64(&counts[i])
	}
	return out
}

func write(at Level, format string, args ...any) {
	if at > level {
		return
	}
	atomic.AddUint64(&counts[at], 1)

	writerM.Lock()
	defer writerM.Unlock()

	// Flock so lines from concurrently firing advice don't interleave mid-write.
	_ = Flock(writer)
	defer FUnlock(writer)

	fmt.Fprintf(writer, "[%-7s", at)

	scopeM.RLock()
	for _, frame := range scope {
		fmt.Fprintf(writer, "|%s=%s", frame.key, frame.value)
	}
	scopeM.RUnlock()

	fmt.Fprint(writer, "] ")
	fmt.Fprintf(writer, format, args...)
	if len(format) == 0 || format[len(format)-1] != '\n' {
		fmt.Fprintln(writer)
	}
}
