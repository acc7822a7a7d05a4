// Package pcexec runs vetted shell commands on the host and streams
// their output line by line.
package pcexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"

	"github.com/rs/zerolog"
)

type Runner struct {
	shell   string
	timeout time.Duration
	log     zerolog.Logger
}

func NewRunner(timeout time.Duration) *Runner {
	return &Runner{
		shell:   "sh",
		timeout: timeout,
		log:     log.New("exec"),
	}
}

// Run executes command under the runner's shell. Each produced line is
// passed to onLine (may be nil) as it appears; the combined output is
// returned once the process exits.
func (r *Runner) Run(ctx context.Context, command string, onLine func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	// the command runs in its own process group so cancellation kills
	// forked children too, not just the shell; otherwise orphans keep
	// the output pipes open and Run blocks until they exit
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second * 5

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	r.log.Debug().Msgf("running command: %s", command)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start command: %w", err)
	}

	var wg sync.WaitGroup
	lines := make(chan string)

	wg.Add(1)
	go func() { defer wg.Done(); streamPipe(stdout, lines) }()

	wg.Add(1)
	go func() { defer wg.Done(); streamPipe(stderr, lines) }()

	go func() { wg.Wait(); close(lines) }()

	var out strings.Builder
	for line := range lines {
		out.WriteString(line)
		out.WriteByte('\n')
		if onLine != nil {
			onLine(line)
		}
	}

	err = cmd.Wait()
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return out.String(), fmt.Errorf("command timed out after %s", r.timeout)
	}
	if err != nil {
		return out.String(), fmt.Errorf("command failed: %w", err)
	}
	return out.String(), nil
}

func streamPipe(pipe io.ReadCloser, ch chan<- string) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ch <- scanner.Text()
	}
}
