package countdown

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/wait"

	"stopwatch/internal/services/metrics"
	"stopwatch/pkg/events"
	"stopwatch/pkg/stopwatch"
)

const helpText = `  p, pause      hold the countdown
  c, continue   resume a held countdown
  r, restart    start over with the same duration
  ?, remain     print the remaining time
  s, stop       stop and print the elapsed time
`

type session struct {
	sw       *stopwatch.Stopwatch
	log      logrus.FieldLogger
	out      io.Writer
	interval time.Duration
	textfile string
}

func (s *session) run(ctx context.Context, in io.Reader, target time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.Observe(s.sw, Use)
	finished := make(chan events.Payload, 1)
	s.sw.On(events.CountdownTimeout, func(p events.Payload) {
		select {
		case finished <- p:
		default:
		}
	})

	// The reader is not part of the group since a blocked read on stdin
	// cannot be interrupted.
	cmds := make(chan string)
	go readCommands(ctx, in, cmds)

	s.sw.Countdown(target)
	s.log.WithField("target", target).Info("countdown started")

	g, gctx := errgroup.WithContext(ctx)
	if s.interval > 0 {
		g.Go(func() error {
			wait.UntilWithContext(gctx, s.printRemain, s.interval)
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				s.sw.Reset()
				return fmt.Errorf("countdown interrupted: %w", gctx.Err())
			case p := <-finished:
				_, _ = fmt.Fprintf(s.out, "countdown finished: charged %.2fms, real %.2fms\n", p.MS, p.RealMS)
				s.log.WithFields(logrus.Fields{"charged_ms": p.MS, "real_ms": p.RealMS}).Info("countdown finished")
				return nil
			case line, ok := <-cmds:
				if !ok {
					// Without input the countdown keeps running until it finishes.
					cmds = nil
					continue
				}
				if s.handle(line) {
					return nil
				}
			}
		}
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if s.textfile != "" {
		return metrics.WriteTextfile(s.textfile)
	}
	return nil
}

// handle applies a single command and reports whether the session is over.
func (s *session) handle(line string) bool {
	var (
		ms  float64
		err error
	)
	switch strings.TrimSpace(line) {
	case "":
		return false
	case "p", "pause":
		if ms, err = s.sw.CountdownPause(); err == nil {
			_, _ = fmt.Fprintf(s.out, "paused, %.2fms remaining\n", ms)
		}
	case "c", "continue":
		if ms, err = s.sw.CountdownContinue(); err == nil {
			_, _ = fmt.Fprintf(s.out, "continued, %.2fms remaining\n", ms)
		}
	case "r", "restart":
		s.sw.CountdownRestart(0)
		if ms, err = s.sw.CountdownRemain(); err == nil {
			_, _ = fmt.Fprintf(s.out, "restarted, %.2fms remaining\n", ms)
		}
	case "?", "remain":
		s.printRemain(context.Background())
	case "s", "stop":
		if ms, err = s.sw.Stop(); err == nil {
			_, _ = fmt.Fprintf(s.out, "stopped after %.2fms\n", ms)
			return true
		}
	default:
		_, _ = fmt.Fprintf(s.out, "unknown command %q\n%s", line, helpText)
	}
	if err != nil {
		_, _ = fmt.Fprintln(s.out, err)
	}
	return false
}

func (s *session) printRemain(_ context.Context) {
	ms, err := s.sw.CountdownRemain()
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(s.out, "%.2fms remaining\n", ms)
}

func readCommands(ctx context.Context, in io.Reader, cmds chan<- string) {
	defer close(cmds)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case cmds <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
