package cli_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"taskhub/internal/cli"
	"taskhub/internal/commands"
	"taskhub/internal/config"
	"taskhub/internal/exitcode"
	"taskhub/internal/service"
	"taskhub/internal/testutil"
)

// testFactory creates a backend factory that returns the given FakeBackend.
func testFactory(f *testutil.FakeBackend) cli.BackendFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Backend, error) {
		return f, nil
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	f := testutil.NewFakeBackend()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"unknowncmd"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	f := testutil.NewFakeBackend()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	f := testutil.NewFakeBackend()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr.String() != "" {
		t.Errorf("expected no stderr, got %q", stderr.String())
	}
	if !bytes.Contains(stdout.Bytes(), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	f := testutil.NewFakeBackend()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"help", "--unknown"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_NoArgsListsTasks(t *testing.T) {
	f := testutil.NewFakeBackend()
	sess := f.AddUser("a@b.c", "secret1", "")
	f.SetSession(&sess)
	f.SeedTask(sess.UserID, "Buy milk", service.PriorityMedium, false)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Buy milk") {
		t.Errorf("expected listed task, got %q", stdout.String())
	}
}

func TestDispatcher_CommonFlagsReachCommand(t *testing.T) {
	f := testutil.NewFakeBackend()
	sess := f.AddUser("a@b.c", "secret1", "")
	f.SetSession(&sess)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(f))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"add", "--quiet", "Buy", "milk"}, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "" {
		t.Errorf("quiet run should print nothing, got %q", stdout.String())
	}
	if snap := f.Snapshot(sess.UserID); len(snap) != 1 || snap[0].Title != "Buy milk" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestDispatcher_NeedsAuthWithoutFactory(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--config", t.TempDir()}, &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.Contains(stderr.String(), "not logged in") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
