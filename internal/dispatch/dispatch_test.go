package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/spool"
)

type fakeMailer struct {
	sent   []spool.Item
	status map[string]int
}

func (f *fakeMailer) Submit(_ context.Context, item spool.Item) (int, error) {
	f.sent = append(f.sent, item)
	if s := f.status[item.To[0]]; s != 0 {
		return s, fmt.Errorf("agent exited with status %d", s)
	}
	return 0, nil
}

type fakePrinter struct{ printed []string }

func (f *fakePrinter) Print(_ context.Context, path string) (int, error) {
	f.printed = append(f.printed, path)
	if strings.HasSuffix(path, "jammed") {
		return 3, errors.New("printer jammed")
	}
	return 0, nil
}

func items(to ...string) []spool.Item {
	out := make([]spool.Item, len(to))
	for i, t := range to {
		out[i] = spool.Item{From: "sec@x", To: []string{t}, Subject: "s", Body: "b\n"}
	}
	return out
}

func TestSendAll_ContinuesAfterFailure(t *testing.T) {
	mailer := &fakeMailer{status: map[string]int{"b@x": 75}}
	var pauses []time.Duration
	outcomes := SendAll(context.Background(), items("a@x", "b@x", "c@x"), mailer, SendOptions{
		MinSleep: time.Second,
		MaxSleep: 5 * time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return nil
		},
	})

	require.Len(t, outcomes, 3)
	assert.Len(t, mailer.sent, 3)
	assert.True(t, outcomes[0].OK())
	assert.False(t, outcomes[1].OK())
	assert.Equal(t, 75, outcomes[1].Status)
	assert.Equal(t, "b@x", outcomes[1].Target)
	assert.True(t, outcomes[2].OK())
	assert.Equal(t, 75, LastFailure(outcomes))

	require.Len(t, pauses, 2, "no pause before the first message")
	for _, d := range pauses {
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestSendAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mailer := &fakeMailer{}
	outcomes := SendAll(ctx, items("a@x", "b@x"), mailer, SendOptions{
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})
	assert.Len(t, outcomes, 1)
	assert.Equal(t, 0, LastFailure(outcomes))
}

func TestPrintAll(t *testing.T) {
	printer := &fakePrinter{}
	outcomes := PrintAll(context.Background(), []string{"Doe_Jane", "jammed", "Roe_John"}, printer, nil)
	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"Doe_Jane", "jammed", "Roe_John"}, printer.printed)
	assert.Equal(t, 3, LastFailure(outcomes))
}

func TestLastFailure(t *testing.T) {
	assert.Equal(t, 0, LastFailure(nil))
	assert.Equal(t, 1, LastFailure([]Outcome{{Status: 2}, {Err: errors.New("spawn failed")}}))
	assert.Equal(t, 2, LastFailure([]Outcome{{Err: errors.New("x")}, {Status: 2}, {}}))
}

func TestJitter(t *testing.T) {
	assert.Equal(t, time.Second, Jitter(time.Second, time.Second))
	assert.Equal(t, time.Duration(0), Jitter(-time.Second, -2*time.Second))
	for i := 0; i < 50; i++ {
		d := Jitter(time.Millisecond, 3*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Millisecond)
		assert.LessOrEqual(t, d, 3*time.Millisecond)
	}
}

// =============================================================================
// exec implementations, driven through a helper process
// =============================================================================

func setHelperCommand(t *testing.T, mode string, captured *[]string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "DISPATCH_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestExecMailer_Agent(t *testing.T) {
	var args []string
	setHelperCommand(t, "echo-subject", &args)

	m := ExecMailer{Agent: "msmtp -a club -t", Composer: "mutt"}
	status, err := m.Submit(context.Background(), items("a@x")[0])
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, []string{"msmtp", "-a", "club", "-t"}, args)
}

func TestExecMailer_ComposerForAttachments(t *testing.T) {
	var args []string
	setHelperCommand(t, "success", &args)

	item := items("a@x")[0]
	item.Attachments = []string{"/tmp/list.pdf"}
	_, err := ExecMailer{Agent: "msmtp -t", Composer: "mutt"}.Submit(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, []string{"mutt", "-s", "s", "-a", "/tmp/list.pdf", "--", "a@x"}, args)
}

func TestExecMailer_Errors(t *testing.T) {
	_, err := ExecMailer{Agent: "msmtp -t"}.Submit(context.Background(), spool.Item{})
	assert.ErrorContains(t, err, "no recipients")

	_, err = ExecMailer{}.Submit(context.Background(), items("a@x")[0])
	assert.ErrorContains(t, err, "no command configured")
}

func TestExecPrinter_Failure(t *testing.T) {
	var args []string
	setHelperCommand(t, "failure", &args)

	status, err := ExecPrinter{Command: "lpr -P office"}.Print(context.Background(), "/tmp/Doe_Jane")
	assert.Equal(t, 4, status)
	assert.ErrorContains(t, err, "lpr exited with status 4: out of paper")
	assert.Equal(t, []string{"lpr", "-P", "office", "/tmp/Doe_Jane"}, args)
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("DISPATCH_HELPER_MODE") {
	case "echo-subject":
		data, _ := io.ReadAll(os.Stdin)
		if !strings.Contains(string(data), "Subject: s\n") {
			fmt.Fprintln(os.Stderr, "missing subject header")
			os.Exit(2)
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "out of paper")
		os.Exit(4)
	default:
		os.Exit(0)
	}
}
