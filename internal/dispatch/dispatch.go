// =============================================================================
// Club Utilities - External Dispatch
// =============================================================================
//
// Hands prepared mail to the outside world: spooled emails to a submission
// agent (or a composer when attachments are present) and letter files to the
// print utility. Each message is submitted once; a failure is recorded with
// the tool's exit status and the batch carries on.
//
// =============================================================================

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexKleider/Club-Utilities-sub000/internal/spool"
)

var commandContext = exec.CommandContext

// Mailer submits one email and returns the submission tool's exit status.
type Mailer interface {
	Submit(ctx context.Context, item spool.Item) (int, error)
}

// Printer prints one file and returns the print tool's exit status.
type Printer interface {
	Print(ctx context.Context, path string) (int, error)
}

// =============================================================================
// EXEC IMPLEMENTATIONS
// =============================================================================

// ExecMailer pipes assembled messages to Agent, or hands items with
// attachments to Composer.
type ExecMailer struct {
	// Agent reads a complete message on stdin, e.g. "msmtp -t".
	Agent string

	// Composer is invoked as: Composer -s subject -a file... -- to...
	// with the body on stdin.
	Composer string
}

// Submit runs the agent or composer for one item.
func (m ExecMailer) Submit(ctx context.Context, item spool.Item) (int, error) {
	if len(item.To) == 0 {
		return 0, errors.New("email has no recipients")
	}
	if len(item.Attachments) == 0 {
		return run(ctx, m.Agent, nil, item.Text())
	}
	args := []string{"-s", item.Subject}
	for _, a := range item.Attachments {
		args = append(args, "-a", a)
	}
	args = append(args, "--")
	args = append(args, item.To...)
	return run(ctx, m.Composer, args, item.Body)
}

// ExecPrinter runs Command with the file path appended, e.g. "lpr".
type ExecPrinter struct {
	Command string
}

// Print runs the print command for one file.
func (p ExecPrinter) Print(ctx context.Context, path string) (int, error) {
	return run(ctx, p.Command, []string{path}, "")
}

// run executes command (split on white space) plus extra arguments with
// stdin as input. A non-zero exit is returned as its status with an error
// carrying the tool's stderr.
func run(ctx context.Context, command string, extra []string, stdin string) (int, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return 0, errors.New("no command configured")
	}
	args := append(fields[1:], extra...)
	cmd := commandContext(ctx, fields[0], args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = exitErr.Error()
		}
		return exitErr.ExitCode(), fmt.Errorf("%s exited with status %d: %s", fields[0], exitErr.ExitCode(), msg)
	}
	return 1, fmt.Errorf("run %s: %w", fields[0], err)
}

// =============================================================================
// BATCHES
// =============================================================================

// Outcome records what happened to one message or file.
type Outcome struct {
	// Target names the recipients or the file.
	Target string
	Status int
	Err    error
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool { return o.Err == nil && o.Status == 0 }

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// SendOptions controls SendAll.
type SendOptions struct {
	// MinSleep and MaxSleep bound the random pause between messages.
	MinSleep time.Duration
	MaxSleep time.Duration

	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// SendAll submits items in order, pausing a random interval between
// consecutive messages. It stops early only when ctx is cancelled.
func SendAll(ctx context.Context, items []spool.Item, mailer Mailer, opts SendOptions) []Outcome {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	outcomes := make([]Outcome, 0, len(items))
	for i, item := range items {
		if i > 0 {
			if err := sleep(ctx, Jitter(opts.MinSleep, opts.MaxSleep)); err != nil {
				log.Warn().Err(err).Int("remaining", len(items)-i).Msg("sending interrupted")
				break
			}
		}
		target := strings.Join(item.To, ", ")
		status, err := mailer.Submit(ctx, item)
		outcomes = append(outcomes, Outcome{Target: target, Status: status, Err: err})
		if err != nil || status != 0 {
			log.Error().Err(err).Int("status", status).Str("to", target).Msg("email not sent")
			continue
		}
		log.Info().Str("to", target).Str("subject", item.Subject).Msg("email sent")
	}
	return outcomes
}

// PrintAll prints files in order.
func PrintAll(ctx context.Context, paths []string, printer Printer, logger *zerolog.Logger) []Outcome {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	outcomes := make([]Outcome, 0, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		status, err := printer.Print(ctx, p)
		outcomes = append(outcomes, Outcome{Target: p, Status: status, Err: err})
		if err != nil || status != 0 {
			log.Error().Err(err).Int("status", status).Str("file", p).Msg("print failed")
			continue
		}
		log.Info().Str("file", p).Msg("printed")
	}
	return outcomes
}

// LastFailure returns the status of the last failed outcome, or 0. A
// failure without an exit status counts as 1.
func LastFailure(outcomes []Outcome) int {
	code := 0
	for _, o := range outcomes {
		switch {
		case o.Status != 0:
			code = o.Status
		case o.Err != nil:
			code = 1
		}
	}
	return code
}

// Jitter returns a uniformly random duration in [lo, hi].
func Jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return max(lo, 0)
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo+1)))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
