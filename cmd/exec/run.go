package exec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	osexec "os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"stopwatch/internal/services/metrics"
	"stopwatch/pkg/events"
	"stopwatch/pkg/stopwatch"
)

// waitDelay bounds how long Wait keeps copying output after the command
// exited, since children of a killed command may keep its pipes open.
const waitDelay = time.Second

func run(
	ctx context.Context,
	log logrus.FieldLogger,
	sw *stopwatch.Stopwatch,
	stdout, stderr io.Writer,
	metricsTextfile string,
	opts options,
	args []string,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := filepath.Base(args[0])
	log = log.WithField("command", name)

	metrics.Observe(sw, name)
	timeouts := make(chan events.Payload, 1)
	sw.On(events.CountdownTimeout, func(p events.Payload) {
		select {
		case timeouts <- p:
		default:
		}
		log.WithField("charged_ms", p.MS).Warn("timeout reached, killing command")
		cancel()
	})

	c := osexec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = waitDelay

	var (
		pw     *io.PipeWriter
		sliced chan error
	)
	if opts.slices {
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		c.Stdout = pw
		sliced = make(chan error, 1)
		go func() {
			sliced <- writeSlices(sw, pr, stdout)
		}()
	}
	// drain waits until every sliced line has been written.
	drain := func() {
		if pw == nil {
			return
		}
		_ = pw.Close()
		if err := <-sliced; err != nil {
			log.Errorf("reading command output: %v", err)
		}
	}

	if opts.timeout > 0 {
		sw.Countdown(opts.timeout)
	} else {
		sw.Start()
	}
	if err := c.Start(); err != nil {
		drain()
		sw.Reset()
		return fmt.Errorf("starting %s: %w", name, err)
	}
	waitErr := c.Wait()
	drain()

	total, timedOut, err := stopTotal(sw, timeouts, opts.timeout > 0)
	if err != nil {
		return err
	}
	if timedOut {
		metrics.SessionDuration.WithLabelValues(name).Observe(total)
	}

	_, _ = fmt.Fprintf(stderr, "%s took %.2fms\n", name, total)
	log.WithField("elapsed_ms", total).Info("command finished")

	if metricsTextfile != "" {
		if err := metrics.WriteTextfile(metricsTextfile); err != nil {
			return err
		}
	}

	if timedOut {
		return fmt.Errorf("%s timed out after %s", name, opts.timeout)
	}
	if waitErr != nil {
		return fmt.Errorf("running %s: %w", name, waitErr)
	}
	return nil
}

// stopTotal stops sw and returns the elapsed milliseconds. A countdown that
// fired first has already reset sw, so the total comes from its timeout
// payload instead, which the handler may still be delivering.
func stopTotal(sw *stopwatch.Stopwatch, timeouts <-chan events.Payload, armed bool) (float64, bool, error) {
	total, err := sw.Stop()
	if err == nil || !armed || !errors.Is(err, stopwatch.ErrNotStarted) {
		return total, false, err
	}
	select {
	case p := <-timeouts:
		return p.RealMS, true, nil
	case <-time.After(waitDelay):
		return 0, false, err
	}
}

// writeSlices copies r to w line by line, prefixing each line with the slice
// since the previous one.
func writeSlices(sw *stopwatch.Stopwatch, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		ms, err := sw.Slice()
		if err != nil {
			// Stopped by the countdown, keep draining the output.
			_, _ = fmt.Fprintln(w, scanner.Text())
			continue
		}
		_, _ = fmt.Fprintf(w, "[+%10.2fms] %s\n", ms, scanner.Text())
	}
	return scanner.Err()
}
