package countdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"

	"stopwatch/pkg/stopwatch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSession(sw *stopwatch.Stopwatch, out *bytes.Buffer, interval time.Duration) *session {
	return &session{
		sw:       sw,
		log:      logrus.NewEntry(logrus.New()),
		out:      &syncWriter{w: out},
		interval: interval,
	}
}

func TestSession_Handle(t *testing.T) {
	r := require.New(t)
	fc := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	sw := stopwatch.New(stopwatch.WithClock(fc))
	var out bytes.Buffer
	s := newSession(sw, &out, 0)

	expect := func(line, want string, done bool) {
		t.Helper()
		out.Reset()
		r.Equal(done, s.handle(line))
		r.Contains(out.String(), want)
	}

	sw.Countdown(10 * time.Second)
	fc.Step(2 * time.Second)
	expect("p", "paused, 8000.00ms remaining", false)

	fc.Step(5 * time.Second)
	expect("?", "8000.00ms remaining", false)
	expect("continue", "continued, 8000.00ms remaining", false)

	fc.Step(time.Second)
	expect("remain", "7000.00ms remaining", false)
	expect("r", "restarted, 10000.00ms remaining", false)
	expect("bogus", `unknown command "bogus"`, false)
	expect("", "", false)
	expect(" s ", "stopped after 0.00ms", true)
	expect("pause", stopwatch.ErrCountdownNotSet.Error(), false)
}

func TestSession_Run(t *testing.T) {
	t.Run("finishes when the countdown runs out", func(t *testing.T) {
		r := require.New(t)
		var out bytes.Buffer

		err := newSession(stopwatch.New(), &out, 0).run(context.Background(), strings.NewReader(""), 50*time.Millisecond)

		r.NoError(err)
		r.Contains(out.String(), "countdown finished: charged ")
	})

	t.Run("stops on command", func(t *testing.T) {
		r := require.New(t)
		var out bytes.Buffer
		sw := stopwatch.New()

		err := newSession(sw, &out, 0).run(context.Background(), strings.NewReader("p\n?\nc\ns\n"), time.Minute)

		r.NoError(err)
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		r.Len(lines, 4)
		r.True(strings.HasPrefix(lines[0], "paused, "))
		r.True(strings.HasSuffix(lines[1], "ms remaining"))
		r.True(strings.HasPrefix(lines[2], "continued, "))
		r.True(strings.HasPrefix(lines[3], "stopped after "))
		r.False(sw.Running())
	})

	t.Run("returns when the context is cancelled", func(t *testing.T) {
		r := require.New(t)
		var out bytes.Buffer
		sw := stopwatch.New()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := newSession(sw, &out, 0).run(ctx, strings.NewReader(""), time.Minute)

		r.ErrorIs(err, context.Canceled)
		r.False(sw.Running())
	})

	t.Run("prints the remaining time", func(t *testing.T) {
		r := require.New(t)
		var out bytes.Buffer

		err := newSession(stopwatch.New(), &out, 20*time.Millisecond).run(context.Background(), strings.NewReader(""), 200*time.Millisecond)

		r.NoError(err)
		r.GreaterOrEqual(strings.Count(out.String(), "ms remaining\n"), 2)
		r.Contains(out.String(), "countdown finished: ")
	})
}

func TestNewCmd_InvalidDuration(t *testing.T) {
	for _, arg := range []string{"soon", "-1s", "0"} {
		t.Run(arg, func(t *testing.T) {
			cmd := NewCmd()
			cmd.SetArgs([]string{"--", arg})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SilenceUsage = true

			require.Error(t, cmd.Execute())
		})
	}
}
