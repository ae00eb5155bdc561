package log_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/internal/log"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	log.SetOutput(w)
	defer log.Close()

	fn()

	require.NoError(t, w.Close())
	data := make([]byte, 4096)
	n, _ := r.Read(data)
	return string(data[:n])
}

func TestPushScopeNestsRatherThanClobbers(t *testing.T) {
	log.SetLevel(log.LevelTrace)
	defer log.SetLevel(log.LevelNone)

	var inner, outer string
	out := captureOutput(t, func() {
		popOuter := log.PushScope("joinpoint", "outer-id")
		log.Tracef("outer fired")
		outer = "outer-id"

		popInner := log.PushScope("joinpoint", "inner-id")
		log.Tracef("inner fired")
		inner = "inner-id"
		popInner()

		log.Tracef("outer fired again")
		popOuter()
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "joinpoint="+outer)
	require.Contains(t, lines[1], "joinpoint="+inner)
	require.Contains(t, lines[2], "joinpoint="+outer)
	require.NotContains(t, lines[2], inner, "popping the inner scope must not leave it active on the outer line")
}

func TestCountsTallyByLevel(t *testing.T) {
	log.SetLevel(log.LevelTrace)
	defer log.SetLevel(log.LevelNone)

	before := log.Counts()
	captureOutput(t, func() {
		log.Warnf("one warning")
		log.Warnf("two warnings")
		log.Errorf("one error")
	})
	after := log.Counts()

	require.Equal(t, before[log.LevelWarn]+2, after[log.LevelWarn])
	require.Equal(t, before[log.LevelError]+1, after[log.LevelError])
}
