package liquibase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liquibase "github.com/bcomnes/goliquibase"
)

// TestMain lets the test binary stand in for the Liquibase executable.
// When GOLIQUIBASE_FAKE is set it behaves like a tiny scripted Liquibase.
func TestMain(m *testing.M) {
	if os.Getenv("GOLIQUIBASE_FAKE") == "1" {
		os.Exit(fakeLiquibase(os.Args[1:]))
	}
	os.Exit(m.Run())
}

// fakeLiquibase writes FAKE_STDOUT and FAKE_STDERR ('|' separates chunks),
// echoes its arguments when FAKE_ECHO_ARGS is set and exits with FAKE_EXIT.
func fakeLiquibase(args []string) int {
	if os.Getenv("FAKE_ECHO_ARGS") == "1" {
		for _, a := range args {
			fmt.Fprintln(os.Stdout, a)
		}
	}
	for _, chunk := range strings.Split(os.Getenv("FAKE_STDOUT"), "|") {
		if chunk != "" {
			os.Stdout.WriteString(chunk)
			time.Sleep(5 * time.Millisecond)
		}
	}
	if s := os.Getenv("FAKE_STDERR"); s != "" {
		os.Stderr.WriteString(s)
	}
	if d := os.Getenv("FAKE_SLEEP"); d != "" {
		if dur, err := time.ParseDuration(d); err == nil {
			time.Sleep(dur)
		}
	}
	code, _ := strconv.Atoi(os.Getenv("FAKE_EXIT"))
	return code
}

func fakeRunner(env ...string) (*liquibase.ProcessRunner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	r := &liquibase.ProcessRunner{
		Logger: &liquibase.Logger{Out: &out, Err: &errOut, Level: liquibase.LogLevelSevere},
		Env:    append(append(os.Environ(), "GOLIQUIBASE_FAKE=1"), env...),
	}
	return r, &out, &errOut
}

func fakeCommandLine(args ...string) liquibase.CommandLine {
	return liquibase.CommandLine{
		Path:    os.Args[0],
		Command: liquibase.Status,
		Args:    args,
		Tokens:  args,
	}
}

func TestRunReturnsCapturedStdout(t *testing.T) {
	r, logOut, _ := fakeRunner("FAKE_STDOUT=one\n|two\n|three")

	out, err := r.Run(context.Background(), fakeCommandLine("status"))
	require.NoError(t, err)

	assert.Equal(t, "one\ntwo\nthree", out)
	assert.Contains(t, logOut.String(), liquibase.Label+" Running ")
	assert.Contains(t, logOut.String(), "three")
	assert.Contains(t, logOut.String(), "Exited with code 0")
}

func TestRunStderrWithExitZeroSucceeds(t *testing.T) {
	r, _, logErr := fakeRunner("FAKE_STDOUT=ok", "FAKE_STDERR=INFO: liquibase chatter")

	out, err := r.Run(context.Background(), fakeCommandLine("status"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Contains(t, logErr.String(), "liquibase chatter")
}

func TestRunNonZeroExitCarriesStderr(t *testing.T) {
	r, _, _ := fakeRunner("FAKE_EXIT=3", "FAKE_STDERR=Unexpected error running Liquibase: connection refused")

	_, err := r.Run(context.Background(), fakeCommandLine("status"))
	require.Error(t, err)

	var execErr *liquibase.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "Unexpected error running Liquibase: connection refused", execErr.Stderr)
	assert.Equal(t, "status", execErr.Command)
	assert.Contains(t, err.Error(), "connection refused")

	code, ok := liquibase.ExitCode(err)
	assert.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestRunLaunchFailure(t *testing.T) {
	r, _, _ := fakeRunner()
	cl := fakeCommandLine("status")
	cl.Path = "/nonexistent/liquibase/liquibase"

	_, err := r.Run(context.Background(), cl)
	require.Error(t, err)

	var launchErr *liquibase.LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, cl.Path, launchErr.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestRunPassesArgumentsWithoutShell(t *testing.T) {
	r, _, _ := fakeRunner("FAKE_ECHO_ARGS=1")
	hostile := `--tag=v 1; rm -rf / && echo $HOME`

	out, err := r.Run(context.Background(), fakeCommandLine("tag", hostile))
	require.NoError(t, err)
	assert.Equal(t, "tag\n"+hostile+"\n", out)
}

func TestRunHonoursContextCancellation(t *testing.T) {
	r, _, _ := fakeRunner("FAKE_SLEEP=10s")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, fakeCommandLine("update"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFacadeEndToEndWithFakeExecutable(t *testing.T) {
	r, _, _ := fakeRunner("FAKE_ECHO_ARGS=1")
	lb := liquibase.New(liquibase.Config{
		Liquibase:     os.Args[0],
		URL:           "db://x",
		Username:      "u",
		Password:      "p",
		ChangeLogFile: "/a/b.xml",
		Classpath:     "/d.jar",
	}, liquibase.WithRunner(r))

	out, err := lb.Tag(context.Background(), liquibase.TagParams{Tag: "release 1"})
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"--changeLogFile=/a/b.xml",
		"--classpath=/d.jar",
		"--password=p",
		"--url=db://x",
		"--username=u",
		"tag",
		"--tag=release 1",
	}, "\n")+"\n", out)
}

func TestFacadeStartIsAsynchronous(t *testing.T) {
	r, _, _ := fakeRunner("FAKE_STDOUT=done", "FAKE_SLEEP=100ms")
	lb := liquibase.New(liquibase.Config{Liquibase: os.Args[0]}, liquibase.WithRunner(r))

	exec := lb.Start(context.Background(), liquibase.Status, nil)
	select {
	case <-exec.Done():
		t.Fatal("execution finished before the child could have exited")
	default:
	}

	out, err := exec.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", out)
}
