package exec

import (
	"bytes"
	"context"
	"errors"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"stopwatch/internal/services/metrics"
	"stopwatch/pkg/events"
	"stopwatch/pkg/stopwatch"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := osexec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
}

func TestRun(t *testing.T) {
	requireShell(t)
	log := logrus.NewEntry(logrus.New())

	t.Run("reports elapsed time", func(t *testing.T) {
		r := require.New(t)
		var stdout, stderr bytes.Buffer

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, "", options{}, []string{"sh", "-c", "echo hello"})

		r.NoError(err)
		r.Equal("hello\n", stdout.String())
		r.Contains(stderr.String(), "sh took ")
	})

	t.Run("prefixes lines with slices", func(t *testing.T) {
		r := require.New(t)
		var stdout, stderr bytes.Buffer

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, "", options{slices: true},
			[]string{"sh", "-c", "echo one; sleep 0.1; echo two"})

		r.NoError(err)
		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		r.Len(lines, 2)
		r.True(strings.HasPrefix(lines[0], "[+"))
		r.True(strings.HasSuffix(lines[0], "ms] one"))
		r.True(strings.HasSuffix(lines[1], "ms] two"))
	})

	t.Run("returns the command error", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, "", options{}, []string{"sh", "-c", "exit 3"})

		var exitErr *osexec.ExitError
		require.True(t, errors.As(err, &exitErr))
		require.Equal(t, 3, exitErr.ExitCode())
		require.Contains(t, stderr.String(), "sh took ")
	})

	t.Run("kills the command when the countdown runs out", func(t *testing.T) {
		r := require.New(t)
		var stdout, stderr bytes.Buffer
		started := time.Now()

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, "", options{timeout: 100 * time.Millisecond},
			[]string{"sh", "-c", "sleep 10"})

		r.ErrorContains(err, "timed out after 100ms")
		r.Less(time.Since(started), 5*time.Second)
		r.Contains(stderr.String(), "sh took ")
	})

	t.Run("records the session of a timed out command", func(t *testing.T) {
		if _, err := osexec.LookPath("sleep"); err != nil {
			t.Skip("sleep is not available")
		}
		r := require.New(t)
		var stdout, stderr bytes.Buffer
		before := testutil.CollectAndCount(metrics.SessionDuration, "stopwatch_session_milliseconds")

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, "", options{timeout: 50 * time.Millisecond},
			[]string{"sleep", "10"})

		r.ErrorContains(err, "sleep timed out after 50ms")
		r.Equal(before+1, testutil.CollectAndCount(metrics.SessionDuration, "stopwatch_session_milliseconds"))
	})

	t.Run("fails on a missing binary", func(t *testing.T) {
		sw := stopwatch.New()
		var stdout, stderr bytes.Buffer

		err := run(context.Background(), log, sw, &stdout, &stderr, "", options{}, []string{"./does-not-exist"})

		require.ErrorContains(t, err, "starting does-not-exist")
		require.False(t, sw.Running())
	})

	t.Run("writes the metrics textfile", func(t *testing.T) {
		r := require.New(t)
		var stdout, stderr bytes.Buffer
		path := filepath.Join(t.TempDir(), "stopwatch.prom")

		err := run(context.Background(), log, stopwatch.New(), &stdout, &stderr, path, options{}, []string{"sh", "-c", "true"})

		r.NoError(err)
		r.FileExists(path)
	})
}

func TestStopTotal(t *testing.T) {
	t.Run("waits for a timeout that already reset the stopwatch", func(t *testing.T) {
		r := require.New(t)
		timeouts := make(chan events.Payload, 1)
		go func() {
			time.Sleep(50 * time.Millisecond)
			timeouts <- events.Payload{MS: 100, RealMS: 120.5}
		}()

		total, timedOut, err := stopTotal(stopwatch.New(), timeouts, true)

		r.NoError(err)
		r.True(timedOut)
		r.Equal(120.5, total)
	})

	t.Run("stopped before the countdown ran out", func(t *testing.T) {
		r := require.New(t)
		fc := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		sw := stopwatch.New(stopwatch.WithClock(fc))
		sw.Countdown(time.Second)
		fc.Step(500 * time.Millisecond)

		total, timedOut, err := stopTotal(sw, make(chan events.Payload, 1), true)

		r.NoError(err)
		r.False(timedOut)
		r.Equal(500.0, total)
	})

	t.Run("not started without a countdown", func(t *testing.T) {
		_, timedOut, err := stopTotal(stopwatch.New(), make(chan events.Payload, 1), false)

		require.ErrorIs(t, err, stopwatch.ErrNotStarted)
		require.False(t, timedOut)
	})
}
