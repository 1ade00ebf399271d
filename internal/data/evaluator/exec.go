// Package evaluator runs console commands in an external process.
package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-dirac-console/internal/core/command"
	"github.com/penwyp/go-dirac-console/internal/core/constants"
	"github.com/penwyp/go-dirac-console/internal/util"
)

// Exec evaluates each command by running Argv with the code on stdin.
// Stdout becomes the result; a non-zero exit turns stderr into an error
// result.
type Exec struct {
	Argv    []string
	Timeout time.Duration
	Dir     string
}

// NewExec parses a command line such as "node -i" into an evaluator.
func NewExec(cmdline string) (*Exec, error) {
	argv := strings.Fields(cmdline)
	if len(argv) == 0 {
		return nil, errors.New("empty evaluator command")
	}
	return &Exec{Argv: argv, Timeout: constants.EvaluateTimeout}, nil
}

func (e *Exec) Evaluate(ctx context.Context, req command.Request) (*command.Result, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = constants.EvaluateTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.Argv[0], e.Argv[1:]...)
	cmd.Dir = e.Dir
	cmd.WaitDelay = time.Second
	cmd.Stdin = strings.NewReader(req.Code)
	cmd.Env = append(os.Environ(),
		"DIRAC_REQUEST_ID="+strconv.Itoa(req.ID),
		"DIRAC_SURFACE="+req.Surface,
		"DIRAC_NAMESPACE="+req.Namespace,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	util.LogDebugf("Evaluated request %d with %s in %v", req.ID, e.Argv[0], time.Since(start))

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("evaluation timed out after %v", timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		text := strings.TrimRight(stderr.String(), "\n")
		if text == "" {
			text = exitErr.Error()
		}
		return &command.Result{RequestID: req.ID, Text: text, Exception: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", e.Argv[0], err)
	}
	return &command.Result{RequestID: req.ID, Text: strings.TrimRight(stdout.String(), "\n")}, nil
}
